package vanilla

import (
	theme "github.com/goliatone/go-theme"
	"github.com/microcosm-cc/bluemonday"

	"github.com/goliatone/go-recordforms/pkg/form"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/widgets"
)

// helpPolicy allows the inline formatting descriptors use in help text.
func helpPolicy() *bluemonday.Policy {
	p := bluemonday.StrictPolicy()
	p.AllowElements("b", "strong", "i", "em", "code", "br")
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	return p
}

type optionData struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

type fieldData struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Label       string       `json:"label"`
	Kind        string       `json:"kind"`
	Widget      string       `json:"widget"`
	InputType   string       `json:"inputType"`
	Value       string       `json:"value"`
	Placeholder string       `json:"placeholder,omitempty"`
	Required    bool         `json:"required"`
	Checked     bool         `json:"checked"`
	Help        string       `json:"help,omitempty"`
	Options     []optionData `json:"options,omitempty"`
	PollEntries []string     `json:"pollEntries,omitempty"`
	CanRemove   bool         `json:"canRemove"`
	Errors      []string     `json:"errors,omitempty"`
}

type hiddenData struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type viewData struct {
	RecordType string       `json:"recordType"`
	Title      string       `json:"title"`
	Mode       string       `json:"mode"`
	Action     string       `json:"action,omitempty"`
	Method     string       `json:"method"`
	Hidden     []hiddenData `json:"hidden,omitempty"`
	Fields     []fieldData  `json:"fields"`
	Notices    []string     `json:"notices,omitempty"`
}

type themeData struct {
	Name         string            `json:"name,omitempty"`
	Variant      string            `json:"variant,omitempty"`
	Tokens       map[string]string `json:"tokens,omitempty"`
	CSSVarsStyle string            `json:"cssVarsStyle,omitempty"`
}

func inputType(widget string) string {
	switch widget {
	case widgets.WidgetDate:
		return "date"
	case widgets.WidgetDateTime:
		return "datetime-local"
	case widgets.WidgetNumber:
		return "number"
	case widgets.WidgetPassword:
		return "password"
	}
	return "text"
}

// newViewData converts a render view into template data. Help text is
// sanitised here; everything else is escaped by the template.
func newViewData(view render.View, policy *bluemonday.Policy) viewData {
	data := viewData{
		RecordType: view.RecordType,
		Title:      view.Title,
		Mode:       view.Mode,
		Action:     view.Action,
		Method:     view.Method,
		Notices:    view.Notices,
		Fields:     make([]fieldData, 0, len(view.Fields)),
	}
	for _, hidden := range view.Hidden {
		data.Hidden = append(data.Hidden, hiddenData{Name: hidden.Name, Value: hidden.Value})
	}
	for _, field := range view.Fields {
		data.Fields = append(data.Fields, newFieldData(field, view.FieldErrors(field.Name), policy))
	}
	return data
}

func newFieldData(field form.FieldView, errs []string, policy *bluemonday.Policy) fieldData {
	out := fieldData{
		ID:          controlID(field.Name),
		Name:        field.Name,
		Label:       field.DisplayLabel(),
		Kind:        string(field.Kind),
		Widget:      field.Widget,
		InputType:   inputType(field.Widget),
		Value:       field.Text,
		Placeholder: field.Placeholder,
		Required:    field.Required,
		Checked:     field.Checked(),
		PollEntries: field.PollEntries,
		CanRemove:   field.CanRemove,
		Errors:      errs,
	}
	if field.Widget == widgets.WidgetPassword {
		out.Value = ""
	}
	if field.Help != "" {
		out.Help = policy.Sanitize(field.Help)
	}
	for _, opt := range field.Options {
		out.Options = append(out.Options, optionData{
			Label:    opt.Label,
			Value:    opt.Value,
			Selected: field.Selected(opt),
		})
	}
	return out
}

func newThemeData(cfg *theme.RendererConfig) themeData {
	if cfg == nil {
		return themeData{}
	}
	vars := make(map[string]string, len(cfg.CSSVars)+len(cfg.Tokens))
	for key, value := range cfg.Tokens {
		vars["--"+key] = value
	}
	for key, value := range cfg.CSSVars {
		vars[key] = value
	}
	return themeData{
		Name:         cfg.Theme,
		Variant:      cfg.Variant,
		Tokens:       cfg.Tokens,
		CSSVarsStyle: cssVarsStyle(vars),
	}
}

// themeConfig turns a selection into renderer configuration; manifest
// tokens become CSS custom properties.
func themeConfig(selection *theme.Selection) *theme.RendererConfig {
	if selection == nil {
		return nil
	}
	cfg := &theme.RendererConfig{
		Theme:   selection.Theme,
		Variant: selection.Variant,
		Tokens:  map[string]string{},
		CSSVars: map[string]string{},
	}
	if selection.Manifest != nil {
		for key, value := range selection.Manifest.Tokens {
			cfg.Tokens[key] = value
			cfg.CSSVars["--"+key] = value
		}
	}
	return cfg
}
