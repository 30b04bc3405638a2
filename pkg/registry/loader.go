package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-recordforms/pkg/model"
)

type documentFile struct {
	Doctypes map[string]doctypeFile `json:"doctypes" yaml:"doctypes"`
}

type doctypeFile struct {
	Label  string      `json:"label" yaml:"label"`
	Fields []fieldFile `json:"fields" yaml:"fields"`
}

type fieldFile struct {
	Name        string   `json:"name" yaml:"name"`
	Label       string   `json:"label" yaml:"label"`
	Kind        string   `json:"kind" yaml:"kind"`
	Required    bool     `json:"required" yaml:"required"`
	Default     any      `json:"default" yaml:"default"`
	Options     []string `json:"options" yaml:"options"`
	Link        string   `json:"link" yaml:"link"`
	Placeholder string   `json:"placeholder" yaml:"placeholder"`
	LinkedName  string   `json:"linkedName" yaml:"linkedName"`
	Help        string   `json:"help" yaml:"help"`
	VisibleWhen string   `json:"visibleWhen" yaml:"visibleWhen"`
}

// LoadFS walks fsys and registers every record type declared in JSON/YAML
// documents. Documents with a top-level "openapi" key are imported through
// FromOpenAPI. A record type declared in two files is an error.
func LoadFS(fsys fs.FS) (*Registry, error) {
	reg := New()
	if fsys == nil {
		return reg, nil
	}

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isDoctypeFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("registry: read %s: %w", path, err)
		}
		parse := Parse
		if isOpenAPIDocument(data) {
			parse = parseOpenAPI
		}
		doctypes, err := parse(data, path)
		if err != nil {
			return err
		}
		for _, doc := range doctypes {
			if reg.Has(doc.Name) {
				return fmt.Errorf("registry: duplicate record type %q (file %s)", doc.Name, path)
			}
			if err := reg.RegisterDoctype(doc); err != nil {
				return fmt.Errorf("%w (file %s)", err, path)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// Parse decodes one JSON or YAML document into doctypes without registering
// them.
func Parse(data []byte, source string) ([]Doctype, error) {
	if strings.TrimSpace(string(data)) == "" {
		return nil, fmt.Errorf("registry: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("registry: parse %s: %w", source, err)
		}
	}

	out := make([]Doctype, 0, len(doc.Doctypes))
	for rawName, raw := range doc.Doctypes {
		name := Normalize(rawName)
		if name == "" {
			return nil, fmt.Errorf("registry: file %s declares an empty record type name", source)
		}
		fields := make([]model.FieldDescriptor, 0, len(raw.Fields))
		for idx, f := range raw.Fields {
			kind, err := model.ParseKind(f.Kind)
			if err != nil {
				return nil, fmt.Errorf("registry: %s record type %q field %d: %w", source, name, idx, err)
			}
			if kind == model.KindText && strings.TrimSpace(f.Link) != "" && strings.TrimSpace(f.Kind) == "" {
				kind = model.KindLink
			}
			fields = append(fields, model.FieldDescriptor{
				Name:        strings.TrimSpace(f.Name),
				Label:       strings.TrimSpace(f.Label),
				Kind:        kind,
				Required:    f.Required,
				Default:     f.Default,
				Options:     f.Options,
				Link:        strings.TrimSpace(f.Link),
				Placeholder: f.Placeholder,
				LinkedName:  strings.TrimSpace(f.LinkedName),
				Help:        f.Help,
				VisibleWhen: strings.TrimSpace(f.VisibleWhen),
			})
		}
		out = append(out, Doctype{Name: name, Label: raw.Label, Source: source, Fields: fields})
	}
	return out, nil
}

type openAPIHeader struct {
	OpenAPI string `json:"openapi" yaml:"openapi"`
}

func isOpenAPIDocument(data []byte) bool {
	var header openAPIHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		return false
	}
	return strings.TrimSpace(header.OpenAPI) != ""
}

func parseOpenAPI(data []byte, source string) ([]Doctype, error) {
	imported, err := FromOpenAPI(context.Background(), data)
	if err != nil {
		return nil, fmt.Errorf("%w (file %s)", err, source)
	}
	out := make([]Doctype, 0, len(imported.Names()))
	for _, name := range imported.Names() {
		doc, _ := imported.Doctype(name)
		doc.Source = source + strings.TrimPrefix(doc.Source, "openapi")
		out = append(out, doc)
	}
	return out, nil
}

func isDoctypeFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
