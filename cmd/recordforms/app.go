package main

import (
	"fmt"
	"os"

	"github.com/goliatone/go-recordforms/pkg/client"
	"github.com/goliatone/go-recordforms/pkg/engine"
	"github.com/goliatone/go-recordforms/pkg/metrics"
	"github.com/goliatone/go-recordforms/pkg/options"
	"github.com/goliatone/go-recordforms/pkg/registry"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/session"
	"github.com/goliatone/go-recordforms/pkg/submit"
)

// loadRegistry returns the built-in registry, extended with the documents
// under RECORDFORMS_REGISTRY_DIR when set.
func (a *app) loadRegistry() (*registry.Registry, error) {
	reg := registry.Builtin()
	if a.cfg.RegistryDir == "" {
		return reg, nil
	}
	extra, err := registry.LoadFS(os.DirFS(a.cfg.RegistryDir))
	if err != nil {
		return nil, fmt.Errorf("load registry dir %s: %w", a.cfg.RegistryDir, err)
	}
	reg.Merge(extra)
	a.logger.WithField("record_types", len(extra.Names())).Info("loaded registry documents")
	return reg, nil
}

func (a *app) newClient() (*client.Client, error) {
	return client.New(a.cfg.APIBaseURL,
		client.WithTimeout(a.cfg.HTTPTimeout),
		client.WithToken(a.cfg.APIToken),
		client.WithLogger(a.logger),
	)
}

// newEngine wires the engine from configuration. renderers and store may be
// nil to use the engine defaults.
func (a *app) newEngine(renderers *render.Registry, store session.Store, rec metrics.Recorder) (*engine.Engine, error) {
	reg, err := a.loadRegistry()
	if err != nil {
		return nil, err
	}
	backend, err := a.newClient()
	if err != nil {
		return nil, err
	}
	opts := []engine.Option{
		engine.WithRegistry(reg),
		engine.WithLogger(a.logger),
		engine.WithMetrics(rec),
		engine.WithResolverOptions(
			options.WithGlobalRoles(a.cfg.GlobalRoles...),
			options.WithConcurrency(a.cfg.OptionConcurrency),
		),
		engine.WithSubmitOptions(submit.WithListPath(a.cfg.ListPath)),
	}
	if renderers != nil {
		opts = append(opts, engine.WithRenderers(renderers))
	}
	if store != nil {
		opts = append(opts, engine.WithSessionStore(store))
	}
	return engine.New(backend, opts...)
}
