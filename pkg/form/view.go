package form

import (
	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/widgets"
)

// BlankLabel is the placeholder option shown first in every select.
const BlankLabel = "Select..."

// FieldView is what a renderer needs to draw one visible field.
type FieldView struct {
	model.FieldDescriptor

	Value  any
	Text   string
	Widget string
	// Options is set for select widgets, blank placeholder first.
	Options []model.Option
	// PollEntries is set for the poll editor.
	PollEntries []string
	// CanRemove is false while the poll is at its minimum size.
	CanRemove bool
}

// Selected reports whether opt is the current value.
func (v FieldView) Selected(opt model.Option) bool {
	return opt.Value == v.Text
}

// Checked reports the boolean state of a toggle.
func (v FieldView) Checked() bool {
	b, _ := v.Value.(bool)
	return b
}

// Fields returns the visible fields in descriptor order.
func (f *Form) Fields() []FieldView {
	f.mu.Lock()
	defer f.mu.Unlock()

	ctx := f.visibilityContext()
	views := make([]FieldView, 0, len(f.fields))
	for _, desc := range f.fields {
		if !f.visibleLocked(ctx, desc) {
			continue
		}
		value := f.draft.Get(desc.Name)
		view := FieldView{
			FieldDescriptor: desc.Clone(),
			Value:           value,
			Text:            model.Stringify(value),
			Widget:          f.widgets.Resolve(desc),
		}
		switch view.Widget {
		case widgets.WidgetSelect:
			placeholder := desc.Placeholder
			if placeholder == "" {
				placeholder = BlankLabel
			}
			view.Options = append([]model.Option{{Label: placeholder}}, f.optionsLocked(desc)...)
		case widgets.WidgetPollEditor:
			view.PollEntries = append([]string(nil), f.polls[desc.Name]...)
			view.CanRemove = len(view.PollEntries) > MinPollOptions
		}
		views = append(views, view)
	}
	return views
}
