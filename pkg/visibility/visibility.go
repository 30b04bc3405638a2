// Package visibility decides which descriptors of a record type are shown.
// Rules live in a table keyed by {recordType, fieldName} so the special cases
// stay auditable in one place; descriptors can add their own visibleWhen
// expression on top.
package visibility

import (
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/session"
	"github.com/goliatone/go-recordforms/pkg/visibility/expr"
)

// AnyRecordType keys rules that apply to every record type.
const AnyRecordType = "*"

// Context carries the inputs of a visibility decision.
type Context struct {
	RecordType string
	Values     model.Values
	Session    session.Context
}

// Lookup resolves expression identifiers: draft values by field name and
// session values under the "session." prefix.
func (c Context) Lookup(name string) (any, bool) {
	if key, ok := strings.CutPrefix(name, "session."); ok {
		value, has := c.Session.Values()[key]
		return value, has
	}
	if key, ok := strings.CutPrefix(name, "record."); ok && key == "type" {
		return c.RecordType, true
	}
	value, ok := c.Values[name]
	return value, ok
}

// Evaluator decides whether field is visible in ctx.
type Evaluator interface {
	Visible(ctx Context, field model.FieldDescriptor) bool
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(ctx Context, field model.FieldDescriptor) bool

// Visible delegates to the function.
func (fn EvaluatorFunc) Visible(ctx Context, field model.FieldDescriptor) bool {
	return fn(ctx, field)
}

// Rule is one visibility condition. Implementations are the tagged variants
// below.
type Rule interface {
	Visible(ctx Context) bool
	String() string
}

// ValueEquals shows the field only when Field holds Value.
type ValueEquals struct {
	Field    string
	Value    string
	FoldCase bool
}

func (r ValueEquals) Visible(ctx Context) bool {
	got := ctx.Values.String(r.Field)
	if r.FoldCase {
		return strings.EqualFold(got, r.Value)
	}
	return got == r.Value
}

func (r ValueEquals) String() string {
	return fmt.Sprintf("%s == %q", r.Field, r.Value)
}

// ValueNotIn hides the field while Field holds any of Values.
type ValueNotIn struct {
	Field    string
	Values   []string
	FoldCase bool
}

func (r ValueNotIn) Visible(ctx Context) bool {
	got := ctx.Values.String(r.Field)
	for _, candidate := range r.Values {
		if got == candidate || r.FoldCase && strings.EqualFold(got, candidate) {
			return false
		}
	}
	return true
}

func (r ValueNotIn) String() string {
	return fmt.Sprintf("%s not in %q", r.Field, r.Values)
}

// HiddenForRole hides the field for sessions with Role.
type HiddenForRole struct {
	Role string
}

func (r HiddenForRole) Visible(ctx Context) bool {
	return !strings.EqualFold(strings.TrimSpace(ctx.Session.Role), r.Role)
}

func (r HiddenForRole) String() string {
	return fmt.Sprintf("hidden for role %q", r.Role)
}

// Expr shows the field while the compiled expression holds.
type Expr struct {
	Program *expr.Program
}

// CompileExpr compiles source into an Expr rule.
func CompileExpr(source string) (Expr, error) {
	prog, err := expr.Compile(source)
	if err != nil {
		return Expr{}, err
	}
	return Expr{Program: prog}, nil
}

func (r Expr) Visible(ctx Context) bool {
	return r.Program.Eval(ctx.Lookup)
}

func (r Expr) String() string {
	return r.Program.String()
}

type key struct {
	recordType string
	field      string
}

// Table is the {recordType, fieldName} -> rules map. All matching rules must
// hold for a field to be visible.
type Table struct {
	mu    sync.RWMutex
	rules map[key][]Rule
	exprs map[string]*expr.Program
}

// NewTable returns an empty table; every field is visible.
func NewTable() *Table {
	return &Table{
		rules: make(map[key][]Rule),
		exprs: make(map[string]*expr.Program),
	}
}

// HR department names whose announcements are never center-targeted.
var hrDepartmentNames = []string{"HR", "Human Resources"}

// Builtin returns the default rule table.
func Builtin() *Table {
	t := NewTable()
	t.Add(AnyRecordType, "pollOptions", ValueEquals{Field: "type", Value: "Poll"})
	for _, field := range []string{"sectorSkillCouncil", "qpCode", "nsqfLevel"} {
		t.Add(AnyRecordType, field, ValueEquals{Field: "programType", Value: "B.Voc"})
	}
	t.Add(AnyRecordType, "studyCenter", HiddenForRole{Role: session.RoleStudyCenter})
	for _, recordType := range model.AnnouncementTypes {
		t.Add(recordType, "targetCenter", ValueNotIn{Field: "departmentName", Values: hrDepartmentNames, FoldCase: true})
	}
	return t
}

// Add appends rule for field on recordType (AnyRecordType for all).
func (t *Table) Add(recordType, field string, rule Rule) {
	if t == nil || rule == nil {
		return
	}
	k := key{recordType: strings.ToLower(strings.TrimSpace(recordType)), field: field}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rules[k] = append(t.rules[k], rule)
}

// Rules returns the rules that apply to field on recordType.
func (t *Table) Rules(recordType, field string) []Rule {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := append([]Rule(nil), t.rules[key{recordType: AnyRecordType, field: field}]...)
	if rt := strings.ToLower(strings.TrimSpace(recordType)); rt != AnyRecordType {
		out = append(out, t.rules[key{recordType: rt, field: field}]...)
	}
	return out
}

// Visible implements Evaluator.
func (t *Table) Visible(ctx Context, field model.FieldDescriptor) bool {
	for _, rule := range t.Rules(ctx.RecordType, field.Name) {
		if !rule.Visible(ctx) {
			return false
		}
	}
	if field.VisibleWhen == "" {
		return true
	}
	prog, err := t.program(field.VisibleWhen)
	if err != nil {
		// Registry validation compiles every expression, so this only
		// happens for descriptors built by hand.
		return true
	}
	return prog.Eval(ctx.Lookup)
}

func (t *Table) program(source string) (*expr.Program, error) {
	if t == nil {
		return expr.Compile(source)
	}
	t.mu.RLock()
	prog, ok := t.exprs[source]
	t.mu.RUnlock()
	if ok {
		return prog, nil
	}
	prog, err := expr.Compile(source)
	if err != nil {
		return nil, err
	}
	t.mu.Lock()
	t.exprs[source] = prog
	t.mu.Unlock()
	return prog, nil
}
