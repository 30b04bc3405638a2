package render

import (
	"context"
	"strings"

	"github.com/goliatone/go-recordforms/pkg/form"
)

// Renderer turns a form into a byte representation (HTML, JSON, a filled
// terminal session).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, f *form.Form, options RenderOptions) ([]byte, error)
}

// View is the renderer-neutral snapshot of a form.
type View struct {
	RecordType string
	Title      string
	Mode       string
	RecordID   string
	Action     string
	Method     string
	Fields     []form.FieldView
	Hidden     []HiddenField
	Errors     map[string][]string
	Notices    []string
}

// FieldErrors returns the messages attached to field.
func (v View) FieldErrors(field string) []string {
	return v.Errors[field]
}

// BuildView snapshots f with the per-request options applied.
func BuildView(f *form.Form, options RenderOptions) View {
	title := strings.TrimSpace(options.Title)
	if title == "" {
		title = f.RecordType()
	}
	if f.Mode() == form.ModeEdit {
		title = "Edit " + title
	} else {
		title = "New " + title
	}

	method := strings.ToUpper(strings.TrimSpace(options.Method))
	if method == "" {
		method = "POST"
	}

	hidden := options.Hidden
	if id := f.RecordID(); id != "" {
		hidden = MergeHiddenFields(hidden, RecordID(id))
	}

	return View{
		RecordType: f.RecordType(),
		Title:      title,
		Mode:       f.Mode().String(),
		RecordID:   f.RecordID(),
		Action:     options.Action,
		Method:     method,
		Fields:     f.Fields(),
		Hidden:     SortedHiddenFields(hidden),
		Errors:     options.Errors,
		Notices:    normalizeMessages(options.Notices),
	}
}
