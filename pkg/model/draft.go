package model

import (
	"reflect"
	"sort"
)

// Origin records which layer wrote a draft value. Higher origins win; a
// layer only writes fields whose current origin is not higher than its own.
type Origin int

const (
	OriginUnset Origin = iota
	OriginDefault
	OriginSession
	OriginURL
	OriginRecord
	OriginUser
)

func (o Origin) String() string {
	switch o {
	case OriginDefault:
		return "default"
	case OriginSession:
		return "session"
	case OriginURL:
		return "url"
	case OriginRecord:
		return "record"
	case OriginUser:
		return "user"
	}
	return "unset"
}

// Draft is the in-progress record. It is not safe for concurrent use; the
// form engine guards it.
type Draft struct {
	values  Values
	origins map[string]Origin
}

// NewDraft returns an empty draft.
func NewDraft() *Draft {
	return &Draft{
		values:  Values{},
		origins: make(map[string]Origin),
	}
}

// Apply writes value under field when origin outranks or equals the current
// origin of that field. Non-user layers never write empty values. It reports
// whether the draft changed.
func (d *Draft) Apply(origin Origin, field string, value any) bool {
	if d == nil || field == "" {
		return false
	}
	if origin != OriginUser && IsEmpty(value) {
		return false
	}
	if current := d.origins[field]; current > origin {
		return false
	}
	previous, existed := d.values[field]
	d.values[field] = value
	d.origins[field] = origin
	return !existed || !reflect.DeepEqual(previous, value)
}

// ApplyAll applies every entry of values with the given origin in key order.
func (d *Draft) ApplyAll(origin Origin, values Values) bool {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	changed := false
	for _, key := range keys {
		if d.Apply(origin, key, values[key]) {
			changed = true
		}
	}
	return changed
}

// Get returns the raw value stored under field.
func (d *Draft) Get(field string) any {
	if d == nil {
		return nil
	}
	return d.values[field]
}

// String returns the value stored under field as a string.
func (d *Draft) String(field string) string {
	if d == nil {
		return ""
	}
	return d.values.String(field)
}

// Origin returns the layer that last wrote field.
func (d *Draft) Origin(field string) Origin {
	if d == nil {
		return OriginUnset
	}
	return d.origins[field]
}

// Values returns a copy of the draft values.
func (d *Draft) Values() Values {
	if d == nil {
		return Values{}
	}
	return d.values.Clone()
}

// Clone deep-copies the draft including provenance.
func (d *Draft) Clone() *Draft {
	out := NewDraft()
	if d == nil {
		return out
	}
	out.values = d.values.Clone()
	for key, origin := range d.origins {
		out.origins[key] = origin
	}
	return out
}
