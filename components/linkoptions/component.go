package linkoptions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
)

// Component bundles the handler with its configuration.
type Component struct {
	opts Options
}

// New constructs a component with default options plus any overrides.
func New(fns ...OptionFn) *Component {
	return &Component{opts: NewOptions(fns...)}
}

// Options returns a copy of the component configuration.
func (c *Component) Options() Options {
	if c == nil {
		return DefaultOptions()
	}
	return c.opts
}

// Handler returns the net/http handler.
func (c *Component) Handler() http.Handler {
	return HandlerWithOptions(c.Options())
}

// Path returns the route path joined under basePath.
func (c *Component) Path(basePath string) string {
	return joinPath(basePath, c.Options().RoutePath)
}

// Mount registers the handler on a gorilla/mux router for GET and HEAD.
func (c *Component) Mount(r *mux.Router) (*mux.Route, error) {
	if r == nil {
		return nil, errors.New("linkoptions: missing router")
	}
	return r.Handle(c.Options().RoutePath, c.Handler()).Methods(http.MethodGet, http.MethodHead), nil
}

// MountServeMux registers the handler on a standard library mux under
// basePath and returns the pattern used. GET patterns also match HEAD.
func (c *Component) MountServeMux(m *http.ServeMux, basePath string) (string, error) {
	if m == nil {
		return "", errors.New("linkoptions: missing mux")
	}
	path := c.Path(basePath)
	m.Handle(http.MethodGet+" "+path, c.Handler())
	return path, nil
}

func joinPath(basePath, routePath string) string {
	routePath = "/" + strings.Trim(strings.TrimSpace(routePath), "/")
	basePath = strings.Trim(strings.TrimSpace(basePath), "/")
	if basePath == "" {
		return routePath
	}
	return "/" + basePath + routePath
}
