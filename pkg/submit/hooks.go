package submit

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/goliatone/go-recordforms/pkg/client"
	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/session"
)

// Event describes a committed create handed to post-commit hooks.
type Event struct {
	RecordType string
	Record     client.Record
	Payload    model.Values
	Session    session.Context
}

// Hook is a post-commit side effect. Hook failures are logged and never
// reach the caller of Submit.
type Hook interface {
	Name() string
	Run(ctx context.Context, w Writer, event Event) error
}

type hookFunc struct {
	name string
	fn   func(ctx context.Context, w Writer, event Event) error
}

// HookFunc adapts fn into a named Hook.
func HookFunc(name string, fn func(ctx context.Context, w Writer, event Event) error) Hook {
	return hookFunc{name: name, fn: fn}
}

func (h hookFunc) Name() string { return h.name }

func (h hookFunc) Run(ctx context.Context, w Writer, event Event) error {
	return h.fn(ctx, w, event)
}

const (
	// ApplicationField references the job application a record was
	// created from.
	ApplicationField = "jobApplicationId"
	// StatusAccepted is written to the referenced application.
	StatusAccepted = "Accepted"
)

// AcceptApplication marks the referenced job application as accepted once
// the record created from it is saved.
func AcceptApplication() Hook {
	return HookFunc("accept_application", func(ctx context.Context, w Writer, event Event) error {
		id := strings.TrimSpace(event.Payload.String(ApplicationField))
		if id == "" {
			return nil
		}
		var query url.Values
		if org := event.Session.OrganizationID; org != "" {
			query = url.Values{"organizationId": []string{org}}
		}
		body := map[string]any{"status": StatusAccepted}
		if _, err := w.Update(ctx, model.DoctypeJobApplication, id, query, body); err != nil {
			return fmt.Errorf("submit: accept application %s: %w", id, err)
		}
		return nil
	})
}
