package widgets

import (
	"sort"
	"strings"
	"sync"

	"github.com/goliatone/go-recordforms/pkg/model"
)

// Built-in widget identifiers exposed by the registry.
const (
	WidgetText       = "text"
	WidgetTextarea   = "textarea"
	WidgetSelect     = "select"
	WidgetDate       = "date"
	WidgetDateTime   = "datetime"
	WidgetToggle     = "toggle"
	WidgetNumber     = "number"
	WidgetPassword   = "password"
	WidgetPollEditor = "poll-editor"
)

// Matcher decides whether a widget renderer should handle the supplied field.
type Matcher func(field model.FieldDescriptor) bool

type rule struct {
	name     string
	priority int
	match    Matcher
	order    int
}

// Registry selects widgets for descriptors based on registered matchers.
// Higher priority wins; ties fall back to registration order. Fields no
// matcher claims render as single-line text.
type Registry struct {
	mu    sync.RWMutex
	rules []rule
}

// NewRegistry constructs a registry with the built-in widget matchers
// registered.
func NewRegistry() *Registry {
	reg := &Registry{}
	reg.registerBuiltins()
	return reg
}

// Register adds a widget matcher with the provided name and priority. The
// latest registration wins ties on equal priority only through order.
func (r *Registry) Register(name string, priority int, matcher Matcher) {
	if r == nil || matcher == nil {
		return
	}
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rules = append(r.rules, rule{
		name:     trimmed,
		priority: priority,
		match:    matcher,
		order:    len(r.rules),
	})
}

// Resolve returns the widget name for a field.
func (r *Registry) Resolve(field model.FieldDescriptor) string {
	if r == nil {
		return WidgetText
	}
	r.mu.RLock()
	rules := append([]rule(nil), r.rules...)
	r.mu.RUnlock()

	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].priority == rules[j].priority {
			return rules[i].order < rules[j].order
		}
		return rules[i].priority > rules[j].priority
	})
	for _, entry := range rules {
		if entry.match(field) {
			return entry.name
		}
	}
	return WidgetText
}

func kindIs(kinds ...model.Kind) Matcher {
	return func(field model.FieldDescriptor) bool {
		for _, kind := range kinds {
			if field.Kind == kind {
				return true
			}
		}
		return false
	}
}

func (r *Registry) registerBuiltins() {
	r.Register(WidgetPollEditor, 100, kindIs(model.KindPollOptions))
	r.Register(WidgetToggle, 90, kindIs(model.KindCheckbox))

	// Any field with a closed value set is a select, including text fields
	// that carry static options.
	r.Register(WidgetSelect, 80, func(field model.FieldDescriptor) bool {
		return field.Kind == model.KindSelect || field.IsLink() || len(field.Options) > 0
	})

	r.Register(WidgetDate, 70, kindIs(model.KindDate))
	r.Register(WidgetDateTime, 70, kindIs(model.KindDatetime))
	r.Register(WidgetTextarea, 60, kindIs(model.KindTextarea))
	r.Register(WidgetNumber, 50, kindIs(model.KindNumeric))
	r.Register(WidgetPassword, 50, kindIs(model.KindPassword))
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the shared registry with the built-in matchers.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}
