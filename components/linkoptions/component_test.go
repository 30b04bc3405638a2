package linkoptions

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
)

func TestComponent_Path(t *testing.T) {
	cases := []struct {
		base string
		fns  []OptionFn
		want string
	}{
		{base: "", want: "/api/link-options"},
		{base: "/admin", want: "/admin/api/link-options"},
		{base: "admin/", want: "/admin/api/link-options"},
		{base: "/admin/", fns: []OptionFn{WithRoutePath("api/opts/")}, want: "/admin/api/opts"},
	}
	for _, tc := range cases {
		if got := New(tc.fns...).Path(tc.base); got != tc.want {
			t.Fatalf("Path(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestComponent_MountServeMux(t *testing.T) {
	m := http.NewServeMux()
	path, err := New(WithSource(departments())).MountServeMux(m, "/admin")
	if err != nil {
		t.Fatalf("mount: %v", err)
	}
	got := decode(t, serve(t, m, http.MethodGet, path+"?type=announcement&field=departmentId&limit=1"))
	if len(got) != 1 {
		t.Fatalf("expected 1 result, got %#v", got)
	}
	if rec := serve(t, m, http.MethodPost, path+"?type=announcement&field=departmentId"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 from the mux, got %d", rec.Code)
	}

	if _, err := New().MountServeMux(nil, "/"); err == nil {
		t.Fatalf("expected error for nil mux")
	}
}

func TestComponent_MountRouter(t *testing.T) {
	r := mux.NewRouter()
	if _, err := New(WithSource(departments())).Mount(r); err != nil {
		t.Fatalf("mount: %v", err)
	}
	got := decode(t, serve(t, r, http.MethodGet, "/api/link-options?type=announcement&field=departmentId"))
	if len(got) == 0 {
		t.Fatalf("expected options from mounted route")
	}
	if rec := serve(t, r, http.MethodPost, "/api/link-options?type=announcement&field=departmentId"); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405 for POST, got %d", rec.Code)
	}
}
