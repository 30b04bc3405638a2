package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := &Config{
		APIBaseURL:        "http://localhost:8000",
		HTTPTimeout:       10 * time.Second,
		ListenAddr:        ":8080",
		SessionDB:         "recordforms.db",
		GlobalRoles:       []string{"SuperAdmin", "Admin", "Operations", "HR"},
		OptionConcurrency: 8,
		LogLevel:          "info",
		LogFormat:         "text",
		MetricsPath:       "/metrics",
		ListPath:          "/app/{type}",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("defaults mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_Overrides(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"RECORDFORMS_API_BASE_URL":       "https://erp.example.com/",
		"RECORDFORMS_API_TOKEN":          "secret",
		"RECORDFORMS_HTTP_TIMEOUT":       "3s",
		"RECORDFORMS_GLOBAL_ROLES":       "Admin, HR ,",
		"RECORDFORMS_OPTION_CONCURRENCY": "2",
		"RECORDFORMS_LOG_FORMAT":         "JSON",
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.APIBaseURL != "https://erp.example.com" || cfg.APIToken != "secret" || cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("unexpected api settings: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"Admin", "HR"}, cfg.GlobalRoles); diff != "" {
		t.Fatalf("roles mismatch (-want +got):\n%s", diff)
	}
	if cfg.OptionConcurrency != 2 || cfg.LogFormat != "json" {
		t.Fatalf("unexpected values: %+v", cfg)
	}
}

func TestParse_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad url":         {"RECORDFORMS_API_BASE_URL": "not a url"},
		"zero timeout":    {"RECORDFORMS_HTTP_TIMEOUT": "0s"},
		"bad concurrency": {"RECORDFORMS_OPTION_CONCURRENCY": "0"},
		"bad level":       {"RECORDFORMS_LOG_LEVEL": "loud"},
		"bad metrics":     {"RECORDFORMS_METRICS_PATH": "metrics"},
		"unparsable":      {"RECORDFORMS_OPTION_CONCURRENCY": "many"},
	}
	for name, environ := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse(environ); err == nil {
				t.Fatalf("expected error for %v", environ)
			}
		})
	}
}

func TestValidate_NamesVariable(t *testing.T) {
	_, err := Parse(map[string]string{"RECORDFORMS_LOG_FORMAT": "xml"})
	if err == nil || !strings.Contains(err.Error(), "RECORDFORMS_LOG_FORMAT") {
		t.Fatalf("expected variable name in error, got %v", err)
	}
}

func TestLoadEnv_ReadsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("RECORDFORMS_TEST_ENV_LOAD=ok\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	t.Setenv("RECORDFORMS_TEST_ENV_LOAD", "")
	_ = os.Unsetenv("RECORDFORMS_TEST_ENV_LOAD")

	n, err := LoadEnv([]string{path, filepath.Join(dir, ".env.local")})
	if err != nil {
		t.Fatalf("LoadEnv: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 env file loaded, got %d", n)
	}
	if got := os.Getenv("RECORDFORMS_TEST_ENV_LOAD"); got != "ok" {
		t.Fatalf("expected env var loaded, got %q", got)
	}
}

func TestLoad_UsesProcessEnvironment(t *testing.T) {
	t.Setenv("RECORDFORMS_LISTEN_ADDR", ":9999")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ListenAddr != ":9999" {
		t.Fatalf("expected listen addr from environment, got %q", cfg.ListenAddr)
	}
}
