package render_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-recordforms/pkg/form"
	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/session"
	"github.com/goliatone/go-recordforms/pkg/submit"
)

type stubRenderer struct{ name string }

func (s stubRenderer) Name() string        { return s.name }
func (s stubRenderer) ContentType() string { return "text/plain" }
func (s stubRenderer) Render(context.Context, *form.Form, render.RenderOptions) ([]byte, error) {
	return []byte(s.name), nil
}

func TestRegistry(t *testing.T) {
	reg, err := render.NewRegistry(stubRenderer{name: "b"}, stubRenderer{name: "a"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	if err := reg.Register(stubRenderer{name: "a"}); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if diff := cmp.Diff([]string{"a", "b"}, reg.List()); diff != "" {
		t.Fatalf("list mismatch (-want +got):\n%s", diff)
	}
	if _, err := reg.Get("missing"); !errors.Is(err, render.ErrRendererNotFound) {
		t.Fatalf("expected ErrRendererNotFound, got %v", err)
	}
}

func TestMergeAndSortHiddenFields(t *testing.T) {
	merged := render.MergeHiddenFields(map[string]string{" existing ": "keep", "": "ignored"},
		render.CSRFToken("token123"),
		render.RecordID("emp-1"),
		render.Hidden("  ", "skip"),
	)
	wantMerged := map[string]string{"existing": "keep", "_csrf": "token123", "_id": "emp-1"}
	if diff := cmp.Diff(wantMerged, merged); diff != "" {
		t.Fatalf("merged hidden fields mismatch (-want +got):\n%s", diff)
	}

	wantSorted := []render.HiddenField{
		{Name: "_csrf", Value: "token123"},
		{Name: "_id", Value: "emp-1"},
		{Name: "existing", Value: "keep"},
	}
	if diff := cmp.Diff(wantSorted, render.SortedHiddenFields(merged)); diff != "" {
		t.Fatalf("sorted hidden fields mismatch (-want +got):\n%s", diff)
	}
}

func TestMapSubmitError(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantFields map[string][]string
		wantForm   []string
	}{
		{
			name:       "missing field",
			err:        &form.MissingFieldError{Field: "email", Label: "Email"},
			wantFields: map[string][]string{"email": {"Email is required"}},
			wantForm:   []string{"Email is required"},
		},
		{
			name:     "missing tenant",
			err:      form.ErrMissingTenant,
			wantForm: []string{"Organization context is missing. Sign in again before saving."},
		},
		{
			name:     "rejected",
			err:      fmt.Errorf("wrapped: %w", &submit.RejectedError{Message: "Duplicate email"}),
			wantForm: []string{"Duplicate email"},
		},
		{
			name:     "unreachable",
			err:      &submit.ConnectivityError{Err: errors.New("dial tcp")},
			wantForm: []string{submit.ConnectivityMessage},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapping := render.MapSubmitError(tc.err)
			if diff := cmp.Diff(tc.wantFields, mapping.Fields); diff != "" {
				t.Fatalf("fields mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tc.wantForm, mapping.Form); diff != "" {
				t.Fatalf("form mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeFormErrors(t *testing.T) {
	merged := render.MergeFormErrors([]string{" First ", "Second"}, "Second", "third", "  ")
	if diff := cmp.Diff([]string{"First", "Second", "third"}, merged); diff != "" {
		t.Fatalf("merged form errors mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildView(t *testing.T) {
	fields := []model.FieldDescriptor{
		{Name: "title", Label: "Title", Kind: model.KindText, Required: true},
	}
	f := form.New("task", fields, session.Context{OrganizationID: "T1"}, form.WithRecord("task-1", model.Values{"title": "Old"}))

	opts := render.RenderOptions{Title: "Task", Action: "/forms/task/task-1"}.
		WithSubmitError(&form.MissingFieldError{Field: "title", Label: "Title"})
	view := render.BuildView(f, opts)

	if view.Title != "Edit Task" || view.Method != "POST" || view.Mode != "edit" {
		t.Fatalf("unexpected view header: %+v", view)
	}
	if diff := cmp.Diff([]render.HiddenField{{Name: "_id", Value: "task-1"}}, view.Hidden); diff != "" {
		t.Fatalf("hidden mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Title is required"}, view.FieldErrors("title")); diff != "" {
		t.Fatalf("field errors mismatch (-want +got):\n%s", diff)
	}
	if len(view.Fields) != 1 || view.Fields[0].Text != "Old" {
		t.Fatalf("unexpected fields: %+v", view.Fields)
	}
}
