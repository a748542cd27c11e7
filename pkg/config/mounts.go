package config

import (
	"context"
	"strings"

	"github.com/gmarchetti/inkwell/internal/logger"
	"github.com/gmarchetti/inkwell/pkg/contents"
	"github.com/gmarchetti/inkwell/pkg/contents/router"
	cpmem "github.com/gmarchetti/inkwell/pkg/store/checkpoints/memory"
	cppg "github.com/gmarchetti/inkwell/pkg/store/checkpoints/postgres"
	treemem "github.com/gmarchetti/inkwell/pkg/store/tree/memory"
	treepg "github.com/gmarchetti/inkwell/pkg/store/tree/postgres"
)

// ManagerGraph is the content manager graph built from configuration,
// together with the resources it owns.
type ManagerGraph struct {
	// Manager is the routed entry point over every configured mount.
	Manager contents.Manager

	closers []func() error
}

// Close releases every store the graph owns.
func (g *ManagerGraph) Close() error {
	var firstErr error
	for _, close := range g.closers {
		if err := close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// BuildManager constructs backends and the router from the mount
// configuration. On error, stores already opened are closed before
// returning.
func BuildManager(ctx context.Context, cfg *Config) (*ManagerGraph, error) {
	graph := &ManagerGraph{}
	mounts := make(map[string]router.Mount, len(cfg.Mounts))

	for i := range cfg.Mounts {
		mc := &cfg.Mounts[i]

		backend, closer, err := buildBackend(ctx, cfg, mc)
		if err != nil {
			graph.Close()
			return nil, err
		}
		graph.closers = append(graph.closers, closer)

		mounts[mc.Prefix] = router.Mount{
			Backend:   backend,
			Validator: validatorFor(mc.Validator),
		}

		logger.Info("mount configured",
			"prefix", mc.Prefix,
			"backend", mc.Backend,
			"validator", mc.Validator,
		)
	}

	r, err := router.New(mounts)
	if err != nil {
		graph.Close()
		return nil, err
	}
	graph.Manager = r
	return graph, nil
}

// buildBackend constructs one mount's content service over its stores.
func buildBackend(ctx context.Context, cfg *Config, mc *MountConfig) (contents.Manager, func() error, error) {
	maxSize := int64(cfg.Contents.MaxFileSize.Bytes())

	switch mc.Backend {
	case "postgres":
		ts, err := treepg.New(ctx, mc.Postgres)
		if err != nil {
			return nil, nil, err
		}
		cs := cppg.New(ts.Pool(), cfg.Contents.MaxCheckpoints)
		svc := contents.NewService(ts, cs, contents.WithMaxFileSize(maxSize))
		return svc, ts.Close, nil

	default:
		ts := treemem.New()
		cs := cpmem.New(ts, cfg.Contents.MaxCheckpoints)
		svc := contents.NewService(ts, cs, contents.WithMaxFileSize(maxSize))
		return svc, ts.Close, nil
	}
}

// validatorFor maps a validator name to its predicate. Names are validated
// during config loading, so unknown names mean no restriction.
func validatorFor(name string) router.Validator {
	switch name {
	case "notebooks_only":
		return func(relPath string) bool {
			return strings.HasSuffix(relPath, ".ipynb")
		}
	default:
		return nil
	}
}
