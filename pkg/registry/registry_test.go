package registry

import (
	"context"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-recordforms/pkg/model"
)

func TestLookup_UnknownTypeFallsBackToNameField(t *testing.T) {
	reg := Builtin()
	for _, recordType := range []string{"invoice", "", "no-such-type"} {
		fields := reg.Lookup(recordType)
		want := []model.FieldDescriptor{{Name: "name", Label: "Name", Kind: model.KindText}}
		if diff := cmp.Diff(want, fields); diff != "" {
			t.Fatalf("fallback for %q mismatch (-want +got):\n%s", recordType, diff)
		}
	}

	var nilRegistry *Registry
	if got := nilRegistry.Lookup("employee"); len(got) != 1 || got[0].Name != FallbackField {
		t.Fatalf("nil registry should fall back, got %#v", got)
	}
}

func TestBuiltin_DeclaresCoreDoctypes(t *testing.T) {
	reg := Builtin()
	for _, name := range []string{"employee", "announcement", "circular", "job-application", "student", "department", "designation"} {
		if !reg.Has(name) {
			t.Fatalf("expected builtin doctype %q", name)
		}
	}

	employee := reg.Lookup("Employee")
	dept, ok := model.FindField(employee, "departmentId")
	if !ok {
		t.Fatalf("employee should declare departmentId")
	}
	if dept.Kind != model.KindLink || dept.Link != "department" || dept.LinkedName != "departmentName" {
		t.Fatalf("unexpected departmentId descriptor: %#v", dept)
	}
}

func TestLookup_ReturnsCopies(t *testing.T) {
	reg := Builtin()
	fields := reg.Lookup("announcement")
	fields[0].Label = "mutated"
	fields[1].Options[0] = "mutated"

	again := reg.Lookup("announcement")
	if again[0].Label == "mutated" || again[1].Options[0] == "mutated" {
		t.Fatalf("lookup leaked mutable registry state")
	}
}

func TestRegister_RejectsDuplicateNames(t *testing.T) {
	reg := New()
	err := reg.Register("ticket", []model.FieldDescriptor{
		{Name: "subject", Kind: model.KindText},
		{Name: "subject", Kind: model.KindTextarea},
	})
	if err == nil || !strings.Contains(err.Error(), "twice") {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
}

func TestRegister_RejectsInvalidDescriptors(t *testing.T) {
	cases := map[string][]model.FieldDescriptor{
		"missing name":   {{Kind: model.KindText}},
		"unknown kind":   {{Name: "x", Kind: "slider"}},
		"link no target": {{Name: "x", Kind: model.KindLink}},
		"self linked":    {{Name: "x", Kind: model.KindLink, Link: "y", LinkedName: "x"}},
		"empty":          nil,
	}
	for name, fields := range cases {
		t.Run(name, func(t *testing.T) {
			if err := New().Register("thing", fields); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadFS_ParsesYAMLAndJSON(t *testing.T) {
	fsys := fstest.MapFS{
		"crm.yaml": {Data: []byte(`
doctypes:
  lead:
    label: Lead
    fields:
      - {name: company, label: Company, kind: text, required: true}
      - {name: owner, link: employee}
`)},
		"ops.json":  {Data: []byte(`{"doctypes":{"vehicle":{"fields":[{"name":"plate","kind":"text"}]}}}`)},
		"README.md": {Data: []byte("ignored")},
	}

	reg, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if diff := cmp.Diff([]string{"lead", "vehicle"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	owner, _ := model.FindField(reg.Lookup("lead"), "owner")
	if owner.Kind != model.KindLink {
		t.Fatalf("expected link kind inferred from link target, got %s", owner.Kind)
	}
	if got := reg.Label("vehicle"); got != "Vehicle" {
		t.Fatalf("expected humanized label, got %q", got)
	}
}

func TestLoadFS_ImportsOpenAPIDocuments(t *testing.T) {
	fsys := fstest.MapFS{
		"visitors.yaml": {Data: []byte(`
openapi: 3.0.3
info: {title: erp, version: 1.0.0}
paths: {}
components:
  schemas:
    Visitor:
      type: object
      title: Visitor
      x-recordforms-doctype: visitor
      required: [fullName]
      properties:
        fullName: {type: string, title: Full Name, x-recordforms-order: 1}
        host: {type: string, x-recordforms-link: employee, x-recordforms-order: 2}
`)},
		"crm.yaml": {Data: []byte("doctypes:\n  lead:\n    fields:\n      - {name: company, kind: text}\n")},
	}

	reg, err := LoadFS(fsys)
	if err != nil {
		t.Fatalf("load fs: %v", err)
	}
	if diff := cmp.Diff([]string{"lead", "visitor"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}
	doc, ok := reg.Doctype("visitor")
	if !ok {
		t.Fatalf("visitor not registered")
	}
	if doc.Source != "visitors.yaml#/components/schemas/Visitor" {
		t.Fatalf("unexpected source %q", doc.Source)
	}
	want := []model.FieldDescriptor{
		{Name: "fullName", Label: "Full Name", Kind: model.KindText, Required: true},
		{Name: "host", Kind: model.KindLink, Link: "employee"},
	}
	if diff := cmp.Diff(want, doc.Fields); diff != "" {
		t.Fatalf("descriptors mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFS_InvalidOpenAPIDocument(t *testing.T) {
	fsys := fstest.MapFS{
		"broken.yaml": {Data: []byte("openapi: 3.0.3\ncomponents: [not, a, map]\n")},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected error for malformed openapi document")
	}
}

func TestLoadFS_DuplicateAcrossFiles(t *testing.T) {
	fsys := fstest.MapFS{
		"a.yaml": {Data: []byte("doctypes:\n  lead:\n    fields:\n      - {name: a, kind: text}\n")},
		"b.yaml": {Data: []byte("doctypes:\n  lead:\n    fields:\n      - {name: b, kind: text}\n")},
	}
	if _, err := LoadFS(fsys); err == nil {
		t.Fatalf("expected duplicate record type error")
	}
}

func TestMerge_OtherWins(t *testing.T) {
	base := Builtin()
	override := New()
	if err := override.Register("designation", []model.FieldDescriptor{{Name: "title", Kind: model.KindText, Required: true}, {Name: "grade", Kind: model.KindNumeric}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	base.Merge(override)

	if _, ok := model.FindField(base.Lookup("designation"), "grade"); !ok {
		t.Fatalf("expected merged designation to include grade")
	}
}

func TestFromOpenAPI(t *testing.T) {
	doc := []byte(`{
  "openapi": "3.0.3",
  "info": {"title": "erp", "version": "1.0.0"},
  "paths": {},
  "components": {
    "schemas": {
      "Visitor": {
        "type": "object",
        "title": "Visitor",
        "x-recordforms-doctype": "visitor",
        "required": ["fullName"],
        "properties": {
          "fullName": {"type": "string", "title": "Full Name", "x-recordforms-order": 1},
          "visitDate": {"type": "string", "format": "date", "x-recordforms-order": 2},
          "host": {"type": "string", "x-recordforms-link": "employee", "x-recordforms-order": 3},
          "purpose": {"type": "string", "enum": ["Meeting", "Delivery"], "x-recordforms-order": 4},
          "badgeReturned": {"type": "boolean", "x-recordforms-order": 5},
          "id": {"type": "string", "readOnly": true}
        }
      },
      "Ignored": {"type": "object", "properties": {"a": {"type": "string"}}}
    }
  }
}`)

	reg, err := FromOpenAPI(context.Background(), doc)
	if err != nil {
		t.Fatalf("from openapi: %v", err)
	}
	if diff := cmp.Diff([]string{"visitor"}, reg.Names()); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	got := reg.Lookup("visitor")
	want := []model.FieldDescriptor{
		{Name: "fullName", Label: "Full Name", Kind: model.KindText, Required: true},
		{Name: "visitDate", Kind: model.KindDate},
		{Name: "host", Kind: model.KindLink, Link: "employee"},
		{Name: "purpose", Kind: model.KindSelect, Options: []string{"Meeting", "Delivery"}},
		{Name: "badgeReturned", Kind: model.KindCheckbox},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("descriptors mismatch (-want +got):\n%s", diff)
	}
}
