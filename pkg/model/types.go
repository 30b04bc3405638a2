package model

import (
	"fmt"
	"strings"
)

// Kind enumerates the input kinds a field descriptor can declare.
type Kind string

const (
	KindText        Kind = "text"
	KindTextarea    Kind = "textarea"
	KindSelect      Kind = "select"
	KindDate        Kind = "date"
	KindDatetime    Kind = "datetime"
	KindCheckbox    Kind = "checkbox"
	KindNumeric     Kind = "numeric"
	KindPassword    Kind = "password"
	KindLink        Kind = "link"
	KindPollOptions Kind = "poll-options"
)

var knownKinds = []Kind{
	KindText, KindTextarea, KindSelect, KindDate, KindDatetime,
	KindCheckbox, KindNumeric, KindPassword, KindLink, KindPollOptions,
}

// Kinds returns every supported kind in declaration order.
func Kinds() []Kind {
	return append([]Kind(nil), knownKinds...)
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	for _, known := range knownKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ParseKind normalises raw (case and surrounding whitespace) and returns the
// matching kind. "link-reference" is accepted as an alias of KindLink.
func ParseKind(raw string) (Kind, error) {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	switch normalized {
	case "":
		return KindText, nil
	case "link-reference", "link_reference":
		return KindLink, nil
	case "number", "integer", "float":
		return KindNumeric, nil
	case "bool", "boolean":
		return KindCheckbox, nil
	}
	kind := Kind(normalized)
	if !kind.Valid() {
		return "", fmt.Errorf("model: unknown field kind %q", raw)
	}
	return kind, nil
}

// FieldDescriptor describes one editable attribute of a record type.
type FieldDescriptor struct {
	Name        string   `json:"name" yaml:"name" validate:"required"`
	Label       string   `json:"label,omitempty" yaml:"label,omitempty"`
	Kind        Kind     `json:"kind" yaml:"kind" validate:"required,fieldkind"`
	Required    bool     `json:"required,omitempty" yaml:"required,omitempty"`
	Default     any      `json:"default,omitempty" yaml:"default,omitempty"`
	Options     []string `json:"options,omitempty" yaml:"options,omitempty"`
	Link        string   `json:"link,omitempty" yaml:"link,omitempty"`
	Placeholder string   `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	// LinkedName names the display field written together with this field
	// whenever an option is selected (e.g. departmentId -> departmentName).
	LinkedName string `json:"linkedName,omitempty" yaml:"linkedName,omitempty" validate:"omitempty,nefield=Name"`
	Help       string `json:"help,omitempty" yaml:"help,omitempty"`
	// VisibleWhen is an optional expression evaluated against the draft.
	VisibleWhen string `json:"visibleWhen,omitempty" yaml:"visibleWhen,omitempty"`
}

// DisplayLabel returns the label, falling back to the field name.
func (f FieldDescriptor) DisplayLabel() string {
	if label := strings.TrimSpace(f.Label); label != "" {
		return label
	}
	return f.Name
}

// IsLink reports whether the field draws its options from another record type.
func (f FieldDescriptor) IsLink() bool {
	return strings.TrimSpace(f.Link) != ""
}

// Clone returns a deep copy of the descriptor.
func (f FieldDescriptor) Clone() FieldDescriptor {
	out := f
	if f.Options != nil {
		out.Options = append([]string(nil), f.Options...)
	}
	return out
}

// CloneFields deep-copies a descriptor list.
func CloneFields(fields []FieldDescriptor) []FieldDescriptor {
	if fields == nil {
		return nil
	}
	out := make([]FieldDescriptor, len(fields))
	for i, field := range fields {
		out[i] = field.Clone()
	}
	return out
}

// FindField returns the descriptor named name.
func FindField(fields []FieldDescriptor, name string) (FieldDescriptor, bool) {
	for _, field := range fields {
		if field.Name == name {
			return field, true
		}
	}
	return FieldDescriptor{}, false
}

// Sentinel option values. They are display-only and never persisted as a
// real linkage.
const (
	SentinelAll  = "All"
	SentinelNone = "None"
)

// IsSentinel reports whether value is one of the sentinel option values.
func IsSentinel(value any) bool {
	str, ok := value.(string)
	if !ok {
		return false
	}
	switch strings.TrimSpace(str) {
	case SentinelAll, SentinelNone:
		return true
	}
	return false
}

// Option is a selectable label/value pair.
type Option struct {
	Label    string `json:"label"`
	Value    string `json:"value"`
	Sentinel bool   `json:"sentinel,omitempty"`
}

// OptionSet is the ordered option list resolved for one link field.
type OptionSet struct {
	Field   string   `json:"field"`
	Link    string   `json:"link,omitempty"`
	Options []Option `json:"options"`
}

// Find returns the option whose value equals value.
func (s OptionSet) Find(value string) (Option, bool) {
	for _, opt := range s.Options {
		if opt.Value == value {
			return opt, true
		}
	}
	return Option{}, false
}

// Clone deep-copies the option set.
func (s OptionSet) Clone() OptionSet {
	out := s
	if s.Options != nil {
		out.Options = append([]Option(nil), s.Options...)
	}
	return out
}
