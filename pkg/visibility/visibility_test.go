package visibility

import (
	"testing"

	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/session"
)

func field(name string) model.FieldDescriptor {
	return model.FieldDescriptor{Name: name, Kind: model.KindText}
}

func TestBuiltin_PollOptionsOnlyForPolls(t *testing.T) {
	table := Builtin()
	ctx := Context{RecordType: "announcement", Values: model.Values{"type": "News"}}
	if table.Visible(ctx, field("pollOptions")) {
		t.Fatalf("poll options should be hidden for News")
	}
	ctx.Values["type"] = "Poll"
	if !table.Visible(ctx, field("pollOptions")) {
		t.Fatalf("poll options should be visible for Poll")
	}
}

func TestBuiltin_VocationalFields(t *testing.T) {
	table := Builtin()
	for _, name := range []string{"sectorSkillCouncil", "qpCode", "nsqfLevel"} {
		hidden := Context{RecordType: "student", Values: model.Values{"programType": "Diploma"}}
		if table.Visible(hidden, field(name)) {
			t.Fatalf("%s should be hidden outside B.Voc", name)
		}
		shown := Context{RecordType: "student", Values: model.Values{"programType": "B.Voc"}}
		if !table.Visible(shown, field(name)) {
			t.Fatalf("%s should be visible for B.Voc", name)
		}
	}
}

func TestBuiltin_StudyCenterHiddenForStudyCenterRole(t *testing.T) {
	table := Builtin()
	ctx := Context{RecordType: "student", Session: session.Context{Role: "StudyCenter"}}
	if table.Visible(ctx, field("studyCenter")) {
		t.Fatalf("study center should be implicit for the study-center role")
	}
	ctx.Session.Role = "Admin"
	if !table.Visible(ctx, field("studyCenter")) {
		t.Fatalf("study center should be editable for other roles")
	}
}

func TestBuiltin_TargetCenterHiddenForHRAnnouncements(t *testing.T) {
	table := Builtin()
	for _, dept := range []string{"HR", "hr", "Human Resources", "human resources"} {
		ctx := Context{RecordType: "announcement", Values: model.Values{"departmentName": dept}}
		if table.Visible(ctx, field("targetCenter")) {
			t.Fatalf("target center should be hidden for department %q", dept)
		}
	}

	sales := Context{RecordType: "announcement", Values: model.Values{"departmentName": "Sales"}}
	if !table.Visible(sales, field("targetCenter")) {
		t.Fatalf("target center should be visible for Sales")
	}

	task := Context{RecordType: "task", Values: model.Values{"departmentName": "HR"}}
	if !table.Visible(task, field("targetCenter")) {
		t.Fatalf("HR rule must only apply to announcement-like types")
	}
}

func TestTable_VisibleWhenExpression(t *testing.T) {
	table := NewTable()
	desc := model.FieldDescriptor{Name: "toDate", Kind: model.KindDate, VisibleWhen: `halfDay != true && session.role != "Intern"`}

	ctx := Context{RecordType: "leave-application", Values: model.Values{"halfDay": false}, Session: session.Context{Role: "Manager"}}
	if !table.Visible(ctx, desc) {
		t.Fatalf("expected toDate visible")
	}
	ctx.Values["halfDay"] = true
	if table.Visible(ctx, desc) {
		t.Fatalf("expected toDate hidden for half days")
	}
}

func TestTable_RulesAreANDed(t *testing.T) {
	table := NewTable()
	table.Add(AnyRecordType, "x", ValueEquals{Field: "a", Value: "1"})
	table.Add("thing", "x", HiddenForRole{Role: "Guest"})

	ctx := Context{RecordType: "thing", Values: model.Values{"a": "1"}, Session: session.Context{Role: "guest"}}
	if table.Visible(ctx, field("x")) {
		t.Fatalf("expected role rule to hide the field")
	}
	if got := len(table.Rules("thing", "x")); got != 2 {
		t.Fatalf("expected 2 rules, got %d", got)
	}
	if got := len(table.Rules("other", "x")); got != 1 {
		t.Fatalf("expected wildcard rule only, got %d", got)
	}
}
