// Package prefill computes the values a new draft starts with: tenant and
// department linkage from the session, descriptor defaults, and whitelisted
// URL parameters. Each layer writes with its own origin, so applying the
// layers repeatedly or in any order converges on the same draft and never
// overwrites user input.
package prefill

import (
	"strings"

	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/session"
)

// Draft fields seeded from the session.
const (
	FieldOrganizationID        = "organizationId"
	FieldDepartmentID          = "departmentId"
	FieldDepartmentName        = "departmentName"
	FieldStudyCenter           = "studyCenter"
	FieldAddedByDepartmentID   = "addedByDepartmentId"
	FieldAddedByDepartmentName = "addedByDepartmentName"
)

// Layers holds the partial drafts of each prefill source.
type Layers struct {
	Session  model.Values
	Defaults model.Values
	URL      model.Values
}

// Merge flattens the layers by precedence (url over session over defaults).
func (l Layers) Merge() model.Values {
	draft := model.NewDraft()
	l.applyTo(draft)
	return draft.Values()
}

func (l Layers) applyTo(draft *model.Draft) bool {
	changed := draft.ApplyAll(model.OriginDefault, l.Defaults)
	if draft.ApplyAll(model.OriginSession, l.Session) {
		changed = true
	}
	if draft.ApplyAll(model.OriginURL, l.URL) {
		changed = true
	}
	return changed
}

// Compute builds every layer for recordType.
func Compute(recordType string, fields []model.FieldDescriptor, sess session.Context) Layers {
	return Layers{
		Session:  SessionValues(recordType, sess),
		Defaults: StaticDefaults(fields),
		URL:      URLValues(sess.URLParams),
	}
}

// ComputeDefaults returns the merged partial draft for recordType.
func ComputeDefaults(recordType string, fields []model.FieldDescriptor, sess session.Context) model.Values {
	return Compute(recordType, fields, sess).Merge()
}

// Apply writes every layer into draft and reports whether it changed.
// Applying twice without intervening edits is a no-op.
func Apply(draft *model.Draft, recordType string, fields []model.FieldDescriptor, sess session.Context) bool {
	if draft == nil {
		return false
	}
	return Compute(recordType, fields, sess).applyTo(draft)
}

// SessionValues returns the fields seeded from the session for recordType.
func SessionValues(recordType string, sess session.Context) model.Values {
	values := model.Values{}
	set := func(field, value string) {
		if value = strings.TrimSpace(value); value != "" {
			values[field] = value
		}
	}

	set(FieldOrganizationID, sess.OrganizationID)

	switch {
	case strings.EqualFold(recordType, model.DoctypeEmployee):
		// Provenance of the creating department, independent of the
		// employee's own department selection.
		set(FieldAddedByDepartmentID, sess.DepartmentID)
		set(FieldAddedByDepartmentName, sess.DepartmentName)
	case model.IsDepartmentalType(recordType):
		set(FieldDepartmentID, sess.DepartmentID)
		set(FieldDepartmentName, sess.DepartmentName)
	}

	if sess.IsStudyCenter() {
		set(FieldStudyCenter, sess.StudyCenterName)
	}
	return values
}

// StaticDefaults collects descriptor defaults in list order.
func StaticDefaults(fields []model.FieldDescriptor) model.Values {
	values := model.Values{}
	for _, field := range fields {
		if field.Default == nil {
			continue
		}
		if _, seen := values[field.Name]; seen {
			continue
		}
		values[field.Name] = field.Default
	}
	return values
}

// URLValues converts whitelisted URL parameters into draft values.
func URLValues(params map[string]string) model.Values {
	values := model.Values{}
	for _, key := range session.URLParams {
		if value := strings.TrimSpace(params[key]); value != "" {
			values[key] = value
		}
	}
	return values
}
