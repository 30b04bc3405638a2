package main

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-recordforms/pkg/session"
)

// sessionFlags build a session context from the command line for the
// offline commands.
type sessionFlags struct {
	organizationID  string
	departmentID    string
	departmentName  string
	studyCenterName string
	role            string
	userID          string
	params          []string
}

func (s *sessionFlags) bind(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&s.organizationID, "org", "", "Organization id of the session")
	flags.StringVar(&s.departmentID, "department-id", "", "Department id of the session")
	flags.StringVar(&s.departmentName, "department-name", "", "Department name of the session")
	flags.StringVar(&s.studyCenterName, "study-center", "", "Study center name of the session")
	flags.StringVar(&s.role, "role", "", "Role of the session user")
	flags.StringVar(&s.userID, "user", "", "User id of the session")
	flags.StringArrayVar(&s.params, "param", nil, "URL parameter as key=value (repeatable)")
}

func (s *sessionFlags) context() (session.Context, error) {
	query := url.Values{}
	for _, raw := range s.params {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return session.Context{}, fmt.Errorf("invalid --param %q, expected key=value", raw)
		}
		query.Add(strings.TrimSpace(key), value)
	}
	sess := session.FromValues(map[string]string{
		session.KeyOrganizationID:  s.organizationID,
		session.KeyDepartmentID:    s.departmentID,
		session.KeyDepartmentName:  s.departmentName,
		session.KeyStudyCenterName: s.studyCenterName,
		session.KeyRole:            s.role,
		session.KeyUserID:          s.userID,
	})
	return sess.WithURL(query), nil
}
