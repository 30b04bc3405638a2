package registry

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-recordforms/pkg/model"
)

// FallbackField is the single field returned for unknown record types.
const FallbackField = "name"

//go:embed doctypes/*.yaml
var builtinFiles embed.FS

// Doctype groups the descriptors of one record type with its metadata.
type Doctype struct {
	Name   string
	Label  string
	Source string
	Fields []model.FieldDescriptor
}

// Registry stores descriptor lists keyed by normalised record type name.
// Lookups hand out copies so callers cannot mutate the configuration.
type Registry struct {
	mu       sync.RWMutex
	doctypes map[string]Doctype
}

// New returns an empty registry. Lookups against it always yield the
// fallback schema.
func New() *Registry {
	return &Registry{doctypes: make(map[string]Doctype)}
}

var builtin = sync.OnceValues(func() (*Registry, error) {
	sub, err := fs.Sub(builtinFiles, "doctypes")
	if err != nil {
		return nil, err
	}
	return LoadFS(sub)
})

// Builtin returns a fresh registry seeded with the embedded record types.
func Builtin() *Registry {
	reg, err := builtin()
	if err != nil {
		// The embedded documents are validated by tests.
		panic(fmt.Errorf("registry: load builtin doctypes: %w", err))
	}
	return reg.Clone()
}

// Fallback returns the schema used for unknown record types.
func Fallback() []model.FieldDescriptor {
	return []model.FieldDescriptor{{Name: FallbackField, Label: "Name", Kind: model.KindText}}
}

// Normalize canonicalises a record type name.
func Normalize(recordType string) string {
	return strings.ToLower(strings.TrimSpace(recordType))
}

// Register validates and stores fields under recordType, replacing any
// previous registration.
func (r *Registry) Register(recordType string, fields []model.FieldDescriptor) error {
	return r.RegisterDoctype(Doctype{Name: recordType, Fields: fields})
}

// RegisterDoctype validates and stores a full doctype definition.
func (r *Registry) RegisterDoctype(doc Doctype) error {
	if r == nil {
		return fmt.Errorf("registry: nil registry")
	}
	key := Normalize(doc.Name)
	if key == "" {
		return fmt.Errorf("registry: record type name is required")
	}
	if err := Validate(key, doc.Fields); err != nil {
		return err
	}
	doc.Name = key
	if strings.TrimSpace(doc.Label) == "" {
		doc.Label = humanize(key)
	}
	doc.Fields = model.CloneFields(doc.Fields)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.doctypes == nil {
		r.doctypes = make(map[string]Doctype)
	}
	r.doctypes[key] = doc
	return nil
}

// Lookup returns the ordered descriptors for recordType, or the fallback
// schema when the type is unknown. The result is never empty.
func (r *Registry) Lookup(recordType string) []model.FieldDescriptor {
	if doc, ok := r.Doctype(recordType); ok && len(doc.Fields) > 0 {
		return doc.Fields
	}
	return Fallback()
}

// Doctype returns a copy of the registered definition.
func (r *Registry) Doctype(recordType string) (Doctype, bool) {
	if r == nil {
		return Doctype{}, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	doc, ok := r.doctypes[Normalize(recordType)]
	if !ok {
		return Doctype{}, false
	}
	doc.Fields = model.CloneFields(doc.Fields)
	return doc, true
}

// Label returns the display label of recordType.
func (r *Registry) Label(recordType string) string {
	if doc, ok := r.Doctype(recordType); ok {
		return doc.Label
	}
	return humanize(Normalize(recordType))
}

// Has reports whether recordType is registered.
func (r *Registry) Has(recordType string) bool {
	_, ok := r.Doctype(recordType)
	return ok
}

// Names lists registered record types in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.doctypes))
	for name := range r.doctypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge copies every doctype from other into r; other wins on conflicts.
func (r *Registry) Merge(other *Registry) {
	if r == nil || other == nil {
		return
	}
	for _, name := range other.Names() {
		doc, _ := other.Doctype(name)
		r.mu.Lock()
		if r.doctypes == nil {
			r.doctypes = make(map[string]Doctype)
		}
		r.doctypes[name] = doc
		r.mu.Unlock()
	}
}

// Clone returns an independent copy of the registry.
func (r *Registry) Clone() *Registry {
	out := New()
	out.Merge(r)
	return out
}

func humanize(key string) string {
	parts := strings.FieldsFunc(key, func(r rune) bool { return r == '-' || r == '_' })
	for i, part := range parts {
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
