package prefill

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/registry"
	"github.com/goliatone/go-recordforms/pkg/session"
)

func TestComputeDefaults_EmployeeRecordsProvenanceNotDepartment(t *testing.T) {
	sess := session.Context{OrganizationID: "T1", DepartmentID: "D1", DepartmentName: "Sales"}
	fields := registry.Builtin().Lookup("employee")

	got := ComputeDefaults("employee", fields, sess)

	if got["organizationId"] != "T1" {
		t.Fatalf("expected organizationId=T1, got %v", got["organizationId"])
	}
	if _, ok := got["departmentId"]; ok {
		t.Fatalf("employee must not be seeded with departmentId, got %v", got["departmentId"])
	}
	if got["addedByDepartmentId"] != "D1" || got["addedByDepartmentName"] != "Sales" {
		t.Fatalf("expected addedBy provenance fields, got %v", got)
	}
	if got["status"] != "Active" {
		t.Fatalf("expected static default status=Active, got %v", got["status"])
	}
}

func TestComputeDefaults_DepartmentalTypes(t *testing.T) {
	sess := session.Context{OrganizationID: "T1", DepartmentID: "D1", DepartmentName: "Sales"}
	for _, recordType := range []string{"job-opening", "leave-application", "announcement", "attendance"} {
		got := ComputeDefaults(recordType, nil, sess)
		want := model.Values{"organizationId": "T1", "departmentId": "D1", "departmentName": "Sales"}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("%s defaults mismatch (-want +got):\n%s", recordType, diff)
		}
	}

	got := ComputeDefaults("designation", nil, sess)
	if diff := cmp.Diff(model.Values{"organizationId": "T1"}, got); diff != "" {
		t.Fatalf("non-departmental defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeDefaults_StudyCenterRole(t *testing.T) {
	sess := session.Context{OrganizationID: "T1", Role: "StudyCenter", StudyCenterName: "North Campus"}
	got := ComputeDefaults("student", nil, sess)
	if got["studyCenter"] != "North Campus" {
		t.Fatalf("expected study center seeded, got %v", got)
	}

	sess.Role = "Admin"
	if _, ok := ComputeDefaults("student", nil, sess)["studyCenter"]; ok {
		t.Fatalf("study center must only be seeded for the study-center role")
	}
}

func TestComputeDefaults_URLBeatsDefaultsAndSession(t *testing.T) {
	fields := []model.FieldDescriptor{
		{Name: "designation", Kind: model.KindText, Default: "Trainee"},
		{Name: "name", Kind: model.KindText},
	}
	sess := session.Context{
		OrganizationID: "T1",
		DepartmentID:   "D1",
		URLParams:      map[string]string{"designation": "Engineer", "departmentId": "D7", "name": "Asha"},
	}

	got := ComputeDefaults("job-application", fields, sess)
	want := model.Values{
		"organizationId": "T1",
		"departmentId":   "D7",
		"designation":    "Engineer",
		"name":           "Asha",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_Idempotent(t *testing.T) {
	sess := session.Context{
		OrganizationID: "T1",
		DepartmentID:   "D1",
		DepartmentName: "Sales",
		URLParams:      map[string]string{"email": "a@b.c"},
	}
	fields := registry.Builtin().Lookup("job-application")

	draft := model.NewDraft()
	if !Apply(draft, "job-application", fields, sess) {
		t.Fatalf("first apply should change the draft")
	}
	first := draft.Values()

	if Apply(draft, "job-application", fields, sess) {
		t.Fatalf("second apply should be a no-op")
	}
	if diff := cmp.Diff(first, draft.Values()); diff != "" {
		t.Fatalf("second apply changed the draft (-first +second):\n%s", diff)
	}
}

func TestApply_NeverOverwritesUserInput(t *testing.T) {
	sess := session.Context{OrganizationID: "T1", URLParams: map[string]string{"email": "url@x.y"}}
	fields := []model.FieldDescriptor{{Name: "status", Kind: model.KindSelect, Default: "Applied"}}

	draft := model.NewDraft()
	draft.Apply(model.OriginUser, "email", "typed@x.y")
	draft.Apply(model.OriginUser, "status", "Shortlisted")
	Apply(draft, "job-application", fields, sess)

	if draft.String("email") != "typed@x.y" || draft.String("status") != "Shortlisted" {
		t.Fatalf("prefill clobbered user input: %v", draft.Values())
	}
}

func TestApply_SessionAndURLCommute(t *testing.T) {
	sess := session.Context{OrganizationID: "T1", DepartmentID: "D1", DepartmentName: "Sales"}
	withURL := sess
	withURL.URLParams = map[string]string{"departmentId": "D2", "departmentName": "Ops"}

	a := model.NewDraft()
	Apply(a, "task", nil, sess)
	Apply(a, "task", nil, withURL)

	b := model.NewDraft()
	Apply(b, "task", nil, withURL)
	Apply(b, "task", nil, sess)

	if diff := cmp.Diff(a.Values(), b.Values()); diff != "" {
		t.Fatalf("order dependent prefill (-a +b):\n%s", diff)
	}
	if a.String("departmentId") != "D2" {
		t.Fatalf("expected URL department to win, got %q", a.String("departmentId"))
	}
}
