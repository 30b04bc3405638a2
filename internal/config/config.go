// Package config loads the process configuration from the environment,
// after reading .env files when present.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Prefix is prepended to every environment variable name.
const Prefix = "RECORDFORMS_"

// DefaultEnvFiles are read, in order, by Load when they exist.
var DefaultEnvFiles = []string{".env", ".env.local"}

// Config is the runtime configuration of the CLI.
type Config struct {
	APIBaseURL  string        `env:"API_BASE_URL" envDefault:"http://localhost:8000" validate:"required,url"`
	APIToken    string        `env:"API_TOKEN"`
	HTTPTimeout time.Duration `env:"HTTP_TIMEOUT" envDefault:"10s" validate:"gt=0"`

	ListenAddr  string `env:"LISTEN_ADDR" envDefault:":8080" validate:"required"`
	SessionDB   string `env:"SESSION_DB" envDefault:"recordforms.db" validate:"required"`
	RegistryDir string `env:"REGISTRY_DIR" validate:"omitempty,dir"`

	GlobalRoles       []string `env:"GLOBAL_ROLES" envDefault:"SuperAdmin,Admin,Operations,HR" envSeparator:","`
	OptionConcurrency int      `env:"OPTION_CONCURRENCY" envDefault:"8" validate:"min=1,max=64"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"text" validate:"oneof=text json"`
	MetricsPath string `env:"METRICS_PATH" envDefault:"/metrics" validate:"startswith=/"`
	ListPath    string `env:"LIST_PATH" envDefault:"/app/{type}" validate:"required"`
}

// LoadEnv reads the files that exist and reports how many were read.
// Variables already set in the process environment win.
func LoadEnv(files []string) (int, error) {
	existing := make([]string, 0, len(files))
	for _, file := range files {
		if info, err := os.Stat(file); err == nil && !info.IsDir() {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return 0, fmt.Errorf("config: load env files: %w", err)
	}
	return len(existing), nil
}

// Load reads files (DefaultEnvFiles when none are given) and parses the
// process environment.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = DefaultEnvFiles
	}
	if _, err := LoadEnv(files); err != nil {
		return nil, err
	}
	return parse(env.Options{Prefix: Prefix})
}

// Parse builds a Config from environ only, ignoring the process environment.
func Parse(environ map[string]string) (*Config, error) {
	if environ == nil {
		environ = map[string]string{}
	}
	return parse(env.Options{Prefix: Prefix, Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}
	cfg.normalise()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) normalise() {
	roles := c.GlobalRoles[:0]
	for _, role := range c.GlobalRoles {
		if role = strings.TrimSpace(role); role != "" {
			roles = append(roles, role)
		}
	}
	c.GlobalRoles = roles
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
}

// Validate checks the parsed values.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	err := v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s fails %q", envName(fe.StructField()), fe.Tag()))
	}
	return fmt.Errorf("config: invalid configuration: %s", strings.Join(msgs, "; "))
}

var envNames = map[string]string{
	"APIBaseURL":        "API_BASE_URL",
	"HTTPTimeout":       "HTTP_TIMEOUT",
	"ListenAddr":        "LISTEN_ADDR",
	"SessionDB":         "SESSION_DB",
	"RegistryDir":       "REGISTRY_DIR",
	"OptionConcurrency": "OPTION_CONCURRENCY",
	"LogLevel":          "LOG_LEVEL",
	"LogFormat":         "LOG_FORMAT",
	"MetricsPath":       "METRICS_PATH",
	"ListPath":          "LIST_PATH",
}

func envName(field string) string {
	if name, ok := envNames[field]; ok {
		return Prefix + name
	}
	return field
}
