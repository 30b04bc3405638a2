// Package recordforms is the entry point for embedding the record form
// engine: it connects to the resource API and exposes the engine types
// under short names.
package recordforms

import (
	"context"

	"github.com/goliatone/go-recordforms/pkg/client"
	"github.com/goliatone/go-recordforms/pkg/engine"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/session"
)

// Engine aliases engine.Engine.
type Engine = engine.Engine

// Request identifies the form to open.
type Request = engine.Request

// Session is the tenant, department and role context forms are built in.
type Session = session.Context

// RenderOptions describes per-request overrides such as the action URL,
// hidden inputs and submit errors.
type RenderOptions = render.RenderOptions

// Config groups the resource API connection settings.
type Config struct {
	BaseURL string
	Client  []client.Option
	Engine  []engine.Option
}

// NewEngine connects to the resource API at cfg.BaseURL.
func NewEngine(cfg Config) (*Engine, error) {
	backend, err := client.New(cfg.BaseURL, cfg.Client...)
	if err != nil {
		return nil, err
	}
	return engine.New(backend, cfg.Engine...)
}

// RenderHTML opens the form described by req and renders it with the
// default renderer. It is the simplest entry point for callers that only
// need markup.
func RenderHTML(ctx context.Context, eng *Engine, req Request, opts RenderOptions) ([]byte, error) {
	f, err := eng.Open(ctx, req)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	out, _, err := eng.Render(ctx, f, "", opts)
	return out, err
}
