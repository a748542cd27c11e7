package contents

import (
	"encoding/json"

	cerr "github.com/gmarchetti/inkwell/pkg/contents/errors"
)

// minNbformat is the oldest notebook schema version accepted for writes.
const minNbformat = 4

// notebookShape is the structural subset checked before a notebook write.
// Unknown fields pass through untouched; validation never rewrites content.
type notebookShape struct {
	Nbformat      *int             `json:"nbformat"`
	NbformatMinor *int             `json:"nbformat_minor"`
	Cells         *json.RawMessage `json:"cells"`
	Metadata      *json.RawMessage `json:"metadata"`
}

// validateNotebook checks that content is a structurally plausible notebook
// document: a JSON object with an nbformat version and a cells array. It
// fails with InvalidNotebook and leaves stored data for path unmodified.
func validateNotebook(path string, content []byte) error {
	if len(content) == 0 {
		return cerr.NewInvalidNotebook(path, "empty notebook content")
	}

	var shape notebookShape
	if err := json.Unmarshal(content, &shape); err != nil {
		return cerr.NewInvalidNotebook(path, "content is not a JSON object")
	}

	if shape.Nbformat == nil {
		return cerr.NewInvalidNotebook(path, "missing nbformat field")
	}
	if *shape.Nbformat < minNbformat {
		return cerr.NewInvalidNotebook(path, "unsupported nbformat version")
	}
	if shape.Cells == nil {
		return cerr.NewInvalidNotebook(path, "missing cells field")
	}

	var cells []json.RawMessage
	if err := json.Unmarshal(*shape.Cells, &cells); err != nil {
		return cerr.NewInvalidNotebook(path, "cells is not an array")
	}
	for _, cell := range cells {
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(cell, &obj); err != nil {
			return cerr.NewInvalidNotebook(path, "cell is not an object")
		}
		if _, ok := obj["cell_type"]; !ok {
			return cerr.NewInvalidNotebook(path, "cell missing cell_type")
		}
	}
	return nil
}
