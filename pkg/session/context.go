// Package session exposes the ambient tenant/department/role context the form
// engine reads, as an explicit value object built from a key-value Store.
package session

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Store keys read by FromStore.
const (
	KeyOrganizationID  = "organizationId"
	KeyDepartmentID    = "departmentId"
	KeyDepartmentName  = "departmentName"
	KeyStudyCenterName = "studyCenterName"
	KeyRole            = "role"
	KeyUserID          = "userId"
)

// Keys lists every store key FromStore reads.
var Keys = []string{
	KeyOrganizationID,
	KeyDepartmentID,
	KeyDepartmentName,
	KeyStudyCenterName,
	KeyRole,
	KeyUserID,
}

// RoleStudyCenter is the role whose study-center field is implicit.
const RoleStudyCenter = "StudyCenter"

// URLParams lists the query parameters merged into new drafts.
var URLParams = []string{
	"name",
	"email",
	"jobOpeningId",
	"jobApplicationId",
	"designation",
	"departmentName",
	"departmentId",
}

// Context is the read-only session snapshot handed to resolvers.
type Context struct {
	OrganizationID  string `json:"organizationId,omitempty"`
	DepartmentID    string `json:"departmentId,omitempty"`
	DepartmentName  string `json:"departmentName,omitempty"`
	StudyCenterName string `json:"studyCenterName,omitempty"`
	Role            string `json:"role,omitempty"`
	UserID          string `json:"userId,omitempty"`
	// URLParams holds the whitelisted query parameters present on entry.
	URLParams map[string]string `json:"urlParams,omitempty"`
}

// HasTenant reports whether an organization is present.
func (c Context) HasTenant() bool {
	return strings.TrimSpace(c.OrganizationID) != ""
}

// HasDepartment reports whether a department id is present.
func (c Context) HasDepartment() bool {
	return strings.TrimSpace(c.DepartmentID) != ""
}

// IsStudyCenter reports whether the role is the study-center role.
func (c Context) IsStudyCenter() bool {
	return strings.EqualFold(strings.TrimSpace(c.Role), RoleStudyCenter)
}

// WithURL returns a copy holding the whitelisted parameters of query.
func (c Context) WithURL(query url.Values) Context {
	c.URLParams = FilterURLParams(query)
	return c
}

// Equal reports whether two contexts carry the same values.
func (c Context) Equal(other Context) bool {
	if c.OrganizationID != other.OrganizationID || c.DepartmentID != other.DepartmentID ||
		c.DepartmentName != other.DepartmentName || c.StudyCenterName != other.StudyCenterName ||
		c.Role != other.Role || c.UserID != other.UserID || len(c.URLParams) != len(other.URLParams) {
		return false
	}
	for key, value := range c.URLParams {
		if other.URLParams[key] != value {
			return false
		}
	}
	return true
}

// FilterURLParams keeps the non-empty whitelisted parameters of query.
func FilterURLParams(query url.Values) map[string]string {
	if len(query) == 0 {
		return nil
	}
	out := make(map[string]string)
	for _, key := range URLParams {
		if value := strings.TrimSpace(query.Get(key)); value != "" {
			out[key] = value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Store is the persistent key-value collaborator owned by the
// authentication layer. Values returns every key stored for sessionID.
type Store interface {
	Values(ctx context.Context, sessionID string) (map[string]string, error)
	Put(ctx context.Context, sessionID string, values map[string]string) error
	Delete(ctx context.Context, sessionID string) error
}

// FromStore loads the session snapshot for sessionID. A missing session
// yields an empty context; the submission gate reports the missing tenant.
func FromStore(ctx context.Context, store Store, sessionID string) (Context, error) {
	if store == nil {
		return Context{}, fmt.Errorf("session: store is required")
	}
	values, err := store.Values(ctx, sessionID)
	if err != nil {
		return Context{}, fmt.Errorf("session: load %q: %w", sessionID, err)
	}
	return FromValues(values), nil
}

// FromValues builds a Context from raw store values.
func FromValues(values map[string]string) Context {
	get := func(key string) string { return strings.TrimSpace(values[key]) }
	return Context{
		OrganizationID:  get(KeyOrganizationID),
		DepartmentID:    get(KeyDepartmentID),
		DepartmentName:  get(KeyDepartmentName),
		StudyCenterName: get(KeyStudyCenterName),
		Role:            get(KeyRole),
		UserID:          get(KeyUserID),
	}
}

// Values flattens the context into store values, omitting empty entries.
func (c Context) Values() map[string]string {
	out := make(map[string]string, 6)
	set := func(key, value string) {
		if value = strings.TrimSpace(value); value != "" {
			out[key] = value
		}
	}
	set(KeyOrganizationID, c.OrganizationID)
	set(KeyDepartmentID, c.DepartmentID)
	set(KeyDepartmentName, c.DepartmentName)
	set(KeyStudyCenterName, c.StudyCenterName)
	set(KeyRole, c.Role)
	set(KeyUserID, c.UserID)
	return out
}
