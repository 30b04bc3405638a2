package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/goliatone/go-recordforms/pkg/model"
)

// OpenAPI extensions understood by FromOpenAPI.
const (
	extensionDoctype = "x-recordforms-doctype"
	extensionLink    = "x-recordforms-link"
	extensionKind    = "x-recordforms-kind"
	extensionOrder   = "x-recordforms-order"
	extensionLinked  = "x-recordforms-linked-name"
)

// FromOpenAPI derives record types from the component schemas of an OpenAPI
// 3 document. Only schemas carrying the x-recordforms-doctype extension are
// imported; the extension value names the record type.
func FromOpenAPI(ctx context.Context, data []byte) (*Registry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, errors.New("registry: openapi document is empty")
	}

	loader := &openapi3.Loader{Context: ctx}
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("registry: load openapi document: %w", err)
	}

	reg := New()
	if doc.Components == nil {
		return reg, nil
	}

	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, schemaName := range names {
		ref := doc.Components.Schemas[schemaName]
		if ref == nil || ref.Value == nil {
			continue
		}
		doctype, ok := stringExtension(ref.Value.Extensions, extensionDoctype)
		if !ok {
			continue
		}
		fields, err := fieldsFromSchema(ref.Value)
		if err != nil {
			return nil, fmt.Errorf("registry: schema %q: %w", schemaName, err)
		}
		label := strings.TrimSpace(ref.Value.Title)
		if err := reg.RegisterDoctype(Doctype{Name: doctype, Label: label, Source: "openapi#/components/schemas/" + schemaName, Fields: fields}); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

type orderedProperty struct {
	name   string
	order  int
	schema *openapi3.Schema
}

func fieldsFromSchema(schema *openapi3.Schema) ([]model.FieldDescriptor, error) {
	props := make([]orderedProperty, 0, len(schema.Properties))
	for name, ref := range schema.Properties {
		if ref == nil || ref.Value == nil || ref.Value.ReadOnly {
			continue
		}
		order := len(schema.Properties) + 1
		if raw, ok := ref.Value.Extensions[extensionOrder]; ok {
			if n, ok := raw.(float64); ok {
				order = int(n)
			}
		}
		props = append(props, orderedProperty{name: name, order: order, schema: ref.Value})
	}
	sort.SliceStable(props, func(i, j int) bool {
		if props[i].order != props[j].order {
			return props[i].order < props[j].order
		}
		return props[i].name < props[j].name
	})

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	fields := make([]model.FieldDescriptor, 0, len(props))
	for _, prop := range props {
		kind, err := kindFromSchema(prop.schema)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop.name, err)
		}
		field := model.FieldDescriptor{
			Name:     prop.name,
			Label:    strings.TrimSpace(prop.schema.Title),
			Kind:     kind,
			Required: required[prop.name],
			Default:  prop.schema.Default,
			Help:     strings.TrimSpace(prop.schema.Description),
		}
		if link, ok := stringExtension(prop.schema.Extensions, extensionLink); ok {
			field.Link = link
			if field.Kind != model.KindSelect {
				field.Kind = model.KindLink
			}
		}
		if linked, ok := stringExtension(prop.schema.Extensions, extensionLinked); ok {
			field.LinkedName = linked
		}
		for _, value := range prop.schema.Enum {
			field.Options = append(field.Options, model.Stringify(value))
		}
		if example, ok := prop.schema.Example.(string); ok {
			field.Placeholder = example
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func kindFromSchema(schema *openapi3.Schema) (model.Kind, error) {
	if raw, ok := stringExtension(schema.Extensions, extensionKind); ok {
		return model.ParseKind(raw)
	}
	if len(schema.Enum) > 0 {
		return model.KindSelect, nil
	}
	switch {
	case schema.Type.Is(openapi3.TypeBoolean):
		return model.KindCheckbox, nil
	case schema.Type.Is(openapi3.TypeInteger), schema.Type.Is(openapi3.TypeNumber):
		return model.KindNumeric, nil
	}
	switch schema.Format {
	case "date":
		return model.KindDate, nil
	case "date-time":
		return model.KindDatetime, nil
	case "password":
		return model.KindPassword, nil
	}
	if schema.MaxLength != nil && *schema.MaxLength > 255 {
		return model.KindTextarea, nil
	}
	return model.KindText, nil
}

func stringExtension(extensions map[string]any, key string) (string, bool) {
	raw, ok := extensions[key]
	if !ok {
		return "", false
	}
	value, ok := raw.(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}
