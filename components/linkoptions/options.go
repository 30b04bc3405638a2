package linkoptions

import (
	"context"
	"net/http"

	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/session"
)

// Source resolves the ordered options of one link field.
type Source interface {
	LinkOptions(ctx context.Context, recordType, field string, sess session.Context) ([]model.Option, error)
}

// SessionFunc extracts the session context of a request.
type SessionFunc func(r *http.Request) (session.Context, error)

// GuardFunc authorises a request before any lookup happens.
type GuardFunc func(r *http.Request) error

type Options struct {
	RoutePath    string
	TypeParam    string
	FieldParam   string
	SearchParam  string
	LimitParam   string
	DefaultLimit int
	MaxLimit     int
	Guard        GuardFunc
	Session      SessionFunc

	Source Source
}

type OptionFn func(*Options)

func DefaultOptions() Options {
	return Options{
		RoutePath:    "/api/link-options",
		TypeParam:    "type",
		FieldParam:   "field",
		SearchParam:  "q",
		LimitParam:   "limit",
		DefaultLimit: 50,
		MaxLimit:     200,
	}
}

func NewOptions(fns ...OptionFn) Options {
	opts := DefaultOptions()
	for _, fn := range fns {
		if fn == nil {
			continue
		}
		fn(&opts)
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 50
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 200
	}
	if opts.RoutePath == "" {
		opts.RoutePath = "/api/link-options"
	}
	if opts.TypeParam == "" {
		opts.TypeParam = "type"
	}
	if opts.FieldParam == "" {
		opts.FieldParam = "field"
	}
	if opts.SearchParam == "" {
		opts.SearchParam = "q"
	}
	if opts.LimitParam == "" {
		opts.LimitParam = "limit"
	}
	return opts
}

func WithRoutePath(path string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.RoutePath = path
	}
}

func WithSearchParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.SearchParam = name
	}
}

func WithLimitParam(name string) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.LimitParam = name
	}
}

func WithDefaultLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.DefaultLimit = limit
	}
}

func WithMaxLimit(limit int) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.MaxLimit = limit
	}
}

func WithGuard(guard GuardFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Guard = guard
	}
}

// WithSession sets how the request session is found. Without one every
// request resolves with an empty session.
func WithSession(fn SessionFunc) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Session = fn
	}
}

func WithSource(source Source) OptionFn {
	return func(o *Options) {
		if o == nil {
			return
		}
		o.Source = source
	}
}

func clampLimit(limit int, opts Options) int {
	if limit < 0 {
		return 0
	}
	if limit == 0 {
		limit = opts.DefaultLimit
	}
	if opts.MaxLimit > 0 && limit > opts.MaxLimit {
		return opts.MaxLimit
	}
	return limit
}
