package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDraftApply_HigherOriginWins(t *testing.T) {
	draft := NewDraft()
	draft.Apply(OriginDefault, "status", "Open")
	draft.Apply(OriginURL, "status", "Closed")
	draft.Apply(OriginDefault, "status", "Open")

	if got := draft.String("status"); got != "Closed" {
		t.Fatalf("expected url value to survive default reapply, got %q", got)
	}
	if got := draft.Origin("status"); got != OriginURL {
		t.Fatalf("expected url origin, got %s", got)
	}
}

func TestDraftApply_UserValuesNeverClobbered(t *testing.T) {
	draft := NewDraft()
	draft.Apply(OriginUser, "email", "typed@example.com")

	for _, origin := range []Origin{OriginDefault, OriginSession, OriginURL, OriginRecord} {
		if draft.Apply(origin, "email", "other@example.com") {
			t.Fatalf("origin %s overwrote a user value", origin)
		}
	}
	if got := draft.String("email"); got != "typed@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
}

func TestDraftApply_IgnoresEmptyNonUserValues(t *testing.T) {
	draft := NewDraft()
	if draft.Apply(OriginSession, "departmentId", "  ") {
		t.Fatalf("expected blank session value to be ignored")
	}
	if draft.Origin("departmentId") != OriginUnset {
		t.Fatalf("expected field to stay unset")
	}

	draft.Apply(OriginUser, "notes", "x")
	if !draft.Apply(OriginUser, "notes", "") {
		t.Fatalf("expected user to be able to clear a field")
	}
}

func TestDraftApplyAll_Commutative(t *testing.T) {
	session := Values{"organizationId": "T1", "departmentId": "D1"}
	url := Values{"departmentId": "D9", "email": "a@b.c"}

	first := NewDraft()
	first.ApplyAll(OriginSession, session)
	first.ApplyAll(OriginURL, url)

	second := NewDraft()
	second.ApplyAll(OriginURL, url)
	second.ApplyAll(OriginSession, session)

	if diff := cmp.Diff(first.Values(), second.Values()); diff != "" {
		t.Fatalf("layer order changed the draft (-first +second):\n%s", diff)
	}
}

func TestDraftClone_Independent(t *testing.T) {
	draft := NewDraft()
	draft.Apply(OriginUser, "name", "Ada")
	clone := draft.Clone()
	clone.Apply(OriginUser, "name", "Grace")

	if draft.String("name") != "Ada" {
		t.Fatalf("clone mutated original draft")
	}
}
