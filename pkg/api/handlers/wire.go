package handlers

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/gmarchetti/inkwell/pkg/contents"
	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
	"github.com/gmarchetti/inkwell/pkg/store/tree"
)

// wireModel is the on-the-wire shape of a content model. Content is encoded
// per the format field: raw JSON for notebooks, a plain string for text, and
// base64 for binary payloads.
type wireModel struct {
	Name         string      `json:"name"`
	Path         string      `json:"path"`
	Type         string      `json:"type"`
	Created      time.Time   `json:"created"`
	LastModified time.Time   `json:"last_modified"`
	Size         int64       `json:"size"`
	Writable     bool        `json:"writable"`
	Mimetype     string      `json:"mimetype,omitempty"`
	Format       string      `json:"format,omitempty"`
	Content      interface{} `json:"content"`
}

// saveRequest is the body of a save call. Format tells how content is
// encoded; it defaults from type when omitted.
type saveRequest struct {
	Type    string          `json:"type"`
	Format  string          `json:"format"`
	Content json.RawMessage `json:"content"`
}

// renameRequest is the body of a rename call.
type renameRequest struct {
	Path string `json:"path"`
}

// restoreRequest is the body of a checkpoint restore call.
type restoreRequest struct {
	ID string `json:"id"`
}

// toWire converts a model for JSON responses.
func toWire(m *contents.Model) wireModel {
	w := wireModel{
		Name:         m.Name,
		Path:         m.Path,
		Type:         string(m.Type),
		Created:      m.Created,
		LastModified: m.LastModified,
		Size:         m.Size,
		Writable:     m.Writable,
		Mimetype:     m.Mimetype,
		Format:       m.Format,
	}

	if m.Type == contents.ModelDirectory {
		if m.Children != nil {
			children := make([]wireModel, 0, len(m.Children))
			for i := range m.Children {
				children = append(children, toWire(&m.Children[i]))
			}
			w.Content = children
		}
		return w
	}

	if m.Content == nil {
		return w
	}
	switch m.Format {
	case contents.FormatJSON:
		w.Content = json.RawMessage(m.Content)
	case contents.FormatBase64:
		w.Content = base64.StdEncoding.EncodeToString(m.Content)
	default:
		w.Content = string(m.Content)
	}
	return w
}

// decodeSave turns a save request into stored bytes and a content type.
func decodeSave(path string, req *saveRequest) ([]byte, tree.ContentType, error) {
	format := req.Format
	ctype := tree.TypeText

	switch req.Type {
	case string(contents.ModelNotebook):
		ctype = tree.TypeNotebook
		if format == "" {
			format = contents.FormatJSON
		}
	case string(contents.ModelFile), "":
		if format == "" {
			format = contents.FormatText
		}
		if format == contents.FormatBase64 {
			ctype = tree.TypeBinary
		}
	default:
		return nil, "", cerr.NewInvalidArgument("unknown model type " + req.Type)
	}

	switch format {
	case contents.FormatJSON:
		if len(req.Content) == 0 {
			return nil, "", cerr.NewInvalidNotebook(path, "empty notebook content")
		}
		return []byte(req.Content), ctype, nil
	case contents.FormatText:
		var s string
		if err := json.Unmarshal(req.Content, &s); err != nil {
			return nil, "", cerr.NewInvalidArgument("text content must be a JSON string")
		}
		return []byte(s), ctype, nil
	case contents.FormatBase64:
		var s string
		if err := json.Unmarshal(req.Content, &s); err != nil {
			return nil, "", cerr.NewInvalidArgument("base64 content must be a JSON string")
		}
		raw, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, "", cerr.NewInvalidArgument("content is not valid base64")
		}
		return raw, ctype, nil
	default:
		return nil, "", cerr.NewInvalidArgument("unknown content format " + format)
	}
}
