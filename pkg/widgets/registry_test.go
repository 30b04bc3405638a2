package widgets

import (
	"testing"

	"github.com/goliatone/go-recordforms/pkg/model"
)

func TestResolve_Builtins(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		name   string
		field  model.FieldDescriptor
		expect string
	}{
		{name: "text", field: model.FieldDescriptor{Kind: model.KindText}, expect: WidgetText},
		{name: "checkbox toggle", field: model.FieldDescriptor{Kind: model.KindCheckbox}, expect: WidgetToggle},
		{name: "static select", field: model.FieldDescriptor{Kind: model.KindSelect, Options: []string{"a"}}, expect: WidgetSelect},
		{name: "link select", field: model.FieldDescriptor{Kind: model.KindLink, Link: "department"}, expect: WidgetSelect},
		{name: "text with options", field: model.FieldDescriptor{Kind: model.KindText, Options: []string{"a"}}, expect: WidgetSelect},
		{name: "date", field: model.FieldDescriptor{Kind: model.KindDate}, expect: WidgetDate},
		{name: "datetime", field: model.FieldDescriptor{Kind: model.KindDatetime}, expect: WidgetDateTime},
		{name: "textarea", field: model.FieldDescriptor{Kind: model.KindTextarea}, expect: WidgetTextarea},
		{name: "numeric", field: model.FieldDescriptor{Kind: model.KindNumeric}, expect: WidgetNumber},
		{name: "password", field: model.FieldDescriptor{Kind: model.KindPassword}, expect: WidgetPassword},
		{name: "poll options", field: model.FieldDescriptor{Kind: model.KindPollOptions}, expect: WidgetPollEditor},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := reg.Resolve(tc.field); got != tc.expect {
				t.Fatalf("resolve %s: want %q, got %q", tc.name, tc.expect, got)
			}
		})
	}
}

func TestResolve_PriorityOverride(t *testing.T) {
	reg := NewRegistry()
	reg.Register("rich-text", 999, func(field model.FieldDescriptor) bool {
		return field.Kind == model.KindTextarea && field.Name == "content"
	})

	if got := reg.Resolve(model.FieldDescriptor{Name: "content", Kind: model.KindTextarea}); got != "rich-text" {
		t.Fatalf("priority matcher should win, got %q", got)
	}
	if got := reg.Resolve(model.FieldDescriptor{Name: "notes", Kind: model.KindTextarea}); got != WidgetTextarea {
		t.Fatalf("non matching field should keep builtin widget, got %q", got)
	}
}

func TestResolve_NilRegistryFallsBackToText(t *testing.T) {
	var reg *Registry
	if got := reg.Resolve(model.FieldDescriptor{Kind: model.KindCheckbox}); got != WidgetText {
		t.Fatalf("expected text fallback, got %q", got)
	}
}
