package template

import "io"

// TemplateRenderer executes a named template from the renderer's bundle.
// The output is returned and also copied to every writer in out.
type TemplateRenderer interface {
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
}

// Extensible is implemented by engines that accept filters and shared
// template context.
type Extensible interface {
	TemplateRenderer
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
