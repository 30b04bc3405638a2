package engine

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordforms/internal/logging"
	"github.com/goliatone/go-recordforms/pkg/form"
	"github.com/goliatone/go-recordforms/pkg/metrics"
	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/options"
	"github.com/goliatone/go-recordforms/pkg/registry"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/renderers/vanilla"
	"github.com/goliatone/go-recordforms/pkg/session"
	"github.com/goliatone/go-recordforms/pkg/submit"
)

const defaultRendererName = vanilla.Name

// Backend is the resource API surface the engine drives.
type Backend interface {
	options.Source
	submit.Writer
	Delete(ctx context.Context, doctype, id string, query url.Values) error
}

// Option customises the engine configuration.
type Option func(*Engine)

// WithRegistry replaces the built-in field registry.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithSessionStore sets the store sessions are read from.
func WithSessionStore(store session.Store) Option {
	return func(e *Engine) {
		e.sessions = store
	}
}

// WithRenderers injects a renderer registry.
func WithRenderers(renderers *render.Registry) Option {
	return func(e *Engine) {
		e.renderers = renderers
	}
}

// WithDefaultRenderer overrides the renderer used when a call omits one.
func WithDefaultRenderer(name string) Option {
	return func(e *Engine) {
		e.defaultRenderer = strings.TrimSpace(name)
	}
}

// WithResolverOptions configures the option resolver built by New.
func WithResolverOptions(opts ...options.Option) Option {
	return func(e *Engine) {
		e.resolverOpts = append(e.resolverOpts, opts...)
	}
}

// WithSubmitOptions configures the submission pipeline built by New.
func WithSubmitOptions(opts ...submit.Option) Option {
	return func(e *Engine) {
		e.submitOpts = append(e.submitOpts, opts...)
	}
}

// WithFormOptions are applied to every form the engine opens.
func WithFormOptions(opts ...form.Option) Option {
	return func(e *Engine) {
		e.formOpts = append(e.formOpts, opts...)
	}
}

// WithLogger sets the logger shared with the resolver and pipeline.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics sets the recorder shared with the resolver and pipeline.
func WithMetrics(rec metrics.Recorder) Option {
	return func(e *Engine) {
		if rec != nil {
			e.metrics = rec
		}
	}
}

// Engine coordinates one record form from session lookup to save. Missing
// collaborators are replaced with the built-in implementations.
type Engine struct {
	backend         Backend
	registry        *registry.Registry
	sessions        session.Store
	renderers       *render.Registry
	defaultRenderer string
	resolver        *options.Resolver
	pipeline        *submit.Pipeline

	resolverOpts []options.Option
	submitOpts   []submit.Option
	formOpts     []form.Option
	logger       logrus.FieldLogger
	metrics      metrics.Recorder
}

// New constructs an engine over backend.
func New(backend Backend, opts ...Option) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("engine: backend is required")
	}
	e := &Engine{
		backend:         backend,
		defaultRenderer: defaultRendererName,
		logger:          logging.Discard(),
		metrics:         metrics.Nop{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(e)
	}

	if e.registry == nil {
		e.registry = registry.Builtin()
	}
	if e.sessions == nil {
		e.sessions = session.NewMemoryStore()
	}
	if e.renderers == nil {
		renderer, err := vanilla.New()
		if err != nil {
			return nil, fmt.Errorf("engine: default renderer: %w", err)
		}
		if e.renderers, err = render.NewRegistry(renderer); err != nil {
			return nil, fmt.Errorf("engine: renderer registry: %w", err)
		}
	}

	shared := []options.Option{options.WithLogger(e.logger), options.WithMetrics(e.metrics)}
	e.resolver = options.New(backend, append(shared, e.resolverOpts...)...)
	submitShared := []submit.Option{submit.WithLogger(e.logger), submit.WithMetrics(e.metrics)}
	e.pipeline = submit.New(backend, append(submitShared, e.submitOpts...)...)
	return e, nil
}

// Registry returns the field registry.
func (e *Engine) Registry() *registry.Registry { return e.registry }

// Renderers returns the renderer registry.
func (e *Engine) Renderers() *render.Registry { return e.renderers }

// Pipeline returns the submission pipeline.
func (e *Engine) Pipeline() *submit.Pipeline { return e.pipeline }

// Resolver returns the option resolver.
func (e *Engine) Resolver() *options.Resolver { return e.resolver }

// Sessions returns the session store.
func (e *Engine) Sessions() session.Store { return e.sessions }

// Session builds the session context of sessionID, merging the whitelisted
// URL parameters of query. An unknown session yields an empty context; the
// form still opens and validation reports the missing tenant.
func (e *Engine) Session(ctx context.Context, sessionID string, query url.Values) (session.Context, error) {
	var sess session.Context
	if strings.TrimSpace(sessionID) != "" {
		var err error
		sess, err = session.FromStore(ctx, e.sessions, sessionID)
		if err != nil {
			return session.Context{}, fmt.Errorf("engine: load session: %w", err)
		}
	}
	return sess.WithURL(query), nil
}

// Request identifies the form to open.
type Request struct {
	RecordType string
	// RecordID switches the form to edit mode; the record is fetched first.
	RecordID string
	Session  session.Context
}

// Open builds the form for req and resolves its link options. In edit mode
// the stored record seeds the draft; a failed fetch is returned.
func (e *Engine) Open(ctx context.Context, req Request) (*form.Form, error) {
	if ctx == nil {
		return nil, errors.New("engine: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	recordType := registry.Normalize(req.RecordType)
	if recordType == "" {
		return nil, errors.New("engine: record type is required")
	}

	opts := append([]form.Option{form.WithLogger(e.logger)}, e.formOpts...)
	if id := strings.TrimSpace(req.RecordID); id != "" {
		record, err := e.backend.Get(ctx, recordType, id, tenantQuery(req.Session))
		if err != nil {
			return nil, fmt.Errorf("engine: load %s %q: %w", recordType, id, err)
		}
		opts = append(opts, form.WithRecord(id, model.Values(record)))
	}

	f := form.New(recordType, e.registry.Lookup(recordType), req.Session, opts...)
	e.Refresh(ctx, f)
	return f, nil
}

// Refresh re-resolves the link options of f. A result is applied only if no
// newer refresh started meanwhile and the form is still open; it reports
// whether it was applied.
func (e *Engine) Refresh(ctx context.Context, f *form.Form) bool {
	generation := f.NextGeneration()
	result := e.resolver.Resolve(ctx, f.RecordType(), f.Descriptors(), f.Session())
	return f.ApplyOptions(generation, result)
}

// UpdateSession installs sess on f and re-resolves options when it changed.
func (e *Engine) UpdateSession(ctx context.Context, f *form.Form, sess session.Context) bool {
	if f.Session().Equal(sess) {
		return false
	}
	f.SetSession(sess)
	e.Refresh(ctx, f)
	return true
}

// LinkOptions resolves the ordered options of one field within sess, the
// same list the form editor offers: synthetic options first, then static,
// then fetched ones, restricted by the designation whitelist.
func (e *Engine) LinkOptions(ctx context.Context, recordType, field string, sess session.Context) ([]model.Option, error) {
	recordType = registry.Normalize(recordType)
	desc, ok := model.FindField(e.registry.Lookup(recordType), field)
	if !ok {
		return nil, fmt.Errorf("engine: %w: %q on %s", form.ErrUnknownField, field, recordType)
	}
	f := form.New(recordType, []model.FieldDescriptor{desc}, sess, form.WithLogger(e.logger))
	defer f.Close()
	e.Refresh(ctx, f)
	return f.Options(field), nil
}

// Renderer returns the renderer called name, or the default one when name
// is empty.
func (e *Engine) Renderer(name string) (render.Renderer, error) {
	if e.renderers == nil {
		return nil, errors.New("engine: renderer registry is nil")
	}

	target := strings.TrimSpace(name)
	if target == "" {
		target = e.defaultRenderer
	}
	if target != "" {
		renderer, err := e.renderers.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("engine: renderer %q: %w", name, err)
		}
	}

	names := e.renderers.List()
	if len(names) == 0 {
		return nil, errors.New("engine: no renderers registered")
	}
	return e.renderers.Get(names[0])
}

// Render draws f with the named renderer. The record type label of the
// registry is used as title unless options carry one.
func (e *Engine) Render(ctx context.Context, f *form.Form, rendererName string, opts render.RenderOptions) ([]byte, string, error) {
	renderer, err := e.Renderer(rendererName)
	if err != nil {
		return nil, "", err
	}
	if strings.TrimSpace(opts.Title) == "" {
		opts.Title = e.registry.Label(f.RecordType())
	}
	out, err := renderer.Render(ctx, f, opts)
	if err != nil {
		return nil, "", fmt.Errorf("engine: render output: %w", err)
	}
	return out, renderer.ContentType(), nil
}

// Submit saves f through the pipeline and closes it on success so late
// option results are ignored.
func (e *Engine) Submit(ctx context.Context, f *form.Form) (submit.Result, error) {
	result, err := e.pipeline.Submit(ctx, f)
	if err != nil {
		return submit.Result{}, err
	}
	f.Close()
	return result, nil
}

// Delete removes a stored record within the session's organization and
// returns the list path to navigate to.
func (e *Engine) Delete(ctx context.Context, recordType, id string, sess session.Context) (string, error) {
	recordType = registry.Normalize(recordType)
	if !sess.HasTenant() {
		return "", form.ErrMissingTenant
	}
	if strings.TrimSpace(id) == "" {
		return "", errors.New("engine: record id is required")
	}
	if err := e.backend.Delete(ctx, recordType, id, tenantQuery(sess)); err != nil {
		return "", fmt.Errorf("engine: delete %s %q: %w", recordType, id, err)
	}
	logging.FromContext(ctx, e.logger).WithFields(logrus.Fields{
		"record_type": recordType,
		"id":          id,
	}).Info("record deleted")
	return e.pipeline.ListPath(recordType), nil
}

func tenantQuery(sess session.Context) url.Values {
	if !sess.HasTenant() {
		return nil
	}
	return url.Values{"organizationId": []string{sess.OrganizationID}}
}
