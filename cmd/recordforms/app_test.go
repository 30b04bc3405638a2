package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-recordforms/internal/config"
	"github.com/goliatone/go-recordforms/internal/logging"
	"github.com/goliatone/go-recordforms/pkg/model"
)

const visitorAPI = `openapi: 3.0.3
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
        visitDate: {type: string, format: date, x-recordforms-order: 2}
`

func TestLoadRegistry_ImportsOpenAPIFromRegistryDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "visitors.openapi.yaml"), []byte(visitorAPI), 0o600))

	a := &app{cfg: &config.Config{RegistryDir: dir}, logger: logging.Discard()}
	reg, err := a.loadRegistry()
	require.NoError(t, err)

	assert.True(t, reg.Has("employee"), "built-in types stay registered")
	require.True(t, reg.Has("visitor"))
	assert.Equal(t, "Visitor", reg.Label("visitor"))

	field, ok := model.FindField(reg.Lookup("visitor"), "visitDate")
	require.True(t, ok)
	assert.Equal(t, model.KindDate, field.Kind)
}

func TestLoadRegistry_WithoutDirUsesBuiltins(t *testing.T) {
	a := &app{cfg: &config.Config{}, logger: logging.Discard()}
	reg, err := a.loadRegistry()
	require.NoError(t, err)
	assert.False(t, reg.Has("visitor"))
	assert.True(t, reg.Has("job-opening"))
}
