package render

// RenderOptions describe per-request data that renderers use to customise
// their output without touching the form itself.
type RenderOptions struct {
	// Title is the record type label; renderers prefix "New"/"Edit".
	Title string
	// Action is the submit URL of HTML renderers.
	Action string
	// Method defaults to POST.
	Method string
	// Hidden inputs emitted alongside the visible fields.
	Hidden map[string]string
	// Errors carries field messages keyed by field name.
	Errors map[string][]string
	// Notices are blocking form-level messages shown above the fields.
	Notices []string
	// Theme and Variant select the token set of themed renderers.
	Theme   string
	Variant string
}

// WithSubmitError returns a copy of o carrying the messages of err.
func (o RenderOptions) WithSubmitError(err error) RenderOptions {
	if err == nil {
		return o
	}
	mapping := MapSubmitError(err)
	out := o
	out.Notices = MergeFormErrors(o.Notices, mapping.Form...)
	if len(mapping.Fields) > 0 {
		out.Errors = make(map[string][]string, len(o.Errors)+len(mapping.Fields))
		for key, messages := range o.Errors {
			out.Errors[key] = append([]string(nil), messages...)
		}
		for key, messages := range mapping.Fields {
			out.Errors[key] = normalizeMessages(append(out.Errors[key], messages...))
		}
	}
	return out
}
