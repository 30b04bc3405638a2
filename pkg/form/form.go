// Package form holds the editor state of one record: the draft with its
// provenance, the resolved link options, conditional visibility, linked
// field groups and the repeating poll editor. A Form is safe for concurrent
// use so option refreshes can land while a handler edits the draft.
package form

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/goliatone/go-recordforms/internal/logging"
	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/options"
	"github.com/goliatone/go-recordforms/pkg/prefill"
	"github.com/goliatone/go-recordforms/pkg/registry"
	"github.com/goliatone/go-recordforms/pkg/session"
	"github.com/goliatone/go-recordforms/pkg/visibility"
	"github.com/goliatone/go-recordforms/pkg/widgets"
)

const (
	// TenantField is the organization linkage every record carries.
	TenantField = prefill.FieldOrganizationID
	// DesignationField is filtered by the department whitelist.
	DesignationField = "designation"
	// MinPollOptions is the smallest poll the editor allows.
	MinPollOptions = 2
)

// Mode distinguishes new records from edits of existing ones.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// Option configures a Form.
type Option func(*Form)

// WithVisibility replaces the rule table (visibility.Builtin by default).
func WithVisibility(evaluator visibility.Evaluator) Option {
	return func(f *Form) {
		if evaluator != nil {
			f.visibility = evaluator
		}
	}
}

// WithWidgets replaces the widget registry used by Fields.
func WithWidgets(reg *widgets.Registry) Option {
	return func(f *Form) {
		if reg != nil {
			f.widgets = reg
		}
	}
}

// WithRecord opens the form in edit mode on an existing record. Record
// values outrank every prefill layer.
func WithRecord(id string, values model.Values) Option {
	return func(f *Form) {
		f.mode = ModeEdit
		f.recordID = strings.TrimSpace(id)
		f.record = values.Clone()
	}
}

// WithLogger sets the logger used for discarded option results.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(f *Form) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// Form is the editor state for one record.
type Form struct {
	mu sync.Mutex

	recordType string
	fields     []model.FieldDescriptor
	sess       session.Context
	mode       Mode
	recordID   string
	record     model.Values

	draft      *model.Draft
	polls      map[string][]string
	options    options.Result
	generation uint64
	closed     bool

	visibility visibility.Evaluator
	widgets    *widgets.Registry
	logger     logrus.FieldLogger
}

// New builds a form for recordType. An empty descriptor list is replaced
// with the registry fallback so the form always has something to render.
func New(recordType string, fields []model.FieldDescriptor, sess session.Context, opts ...Option) *Form {
	f := &Form{
		recordType: registry.Normalize(recordType),
		fields:     model.CloneFields(fields),
		sess:       sess,
		draft:      model.NewDraft(),
		polls:      make(map[string][]string),
		visibility: visibility.Builtin(),
		widgets:    widgets.Default(),
		logger:     logging.Discard(),
	}
	if len(f.fields) == 0 {
		f.fields = registry.Fallback()
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}

	f.draft.ApplyAll(model.OriginRecord, f.record)
	prefill.Apply(f.draft, f.recordType, f.fields, f.sess)

	for _, field := range f.fields {
		if field.Kind == model.KindPollOptions {
			f.polls[field.Name] = splitPoll(f.draft.String(field.Name))
		}
	}
	return f
}

// RecordType returns the normalised record type.
func (f *Form) RecordType() string { return f.recordType }

// Mode reports whether the form creates or edits a record.
func (f *Form) Mode() Mode { return f.mode }

// RecordID returns the id of the edited record (empty in create mode).
func (f *Form) RecordID() string { return f.recordID }

// Descriptors returns a copy of every descriptor, visible or not.
func (f *Form) Descriptors() []model.FieldDescriptor {
	return model.CloneFields(f.fields)
}

// Session returns the session the form was last seeded from.
func (f *Form) Session() session.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sess
}

// SetSession re-applies the prefill layers for sess. Values the user typed
// are never overwritten. It reports whether the draft changed.
func (f *Form) SetSession(sess session.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sess = sess
	return prefill.Apply(f.draft, f.recordType, f.fields, sess)
}

// Get returns the draft value of field.
func (f *Form) Get(field string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Get(field)
}

// Origin returns which layer last wrote field.
func (f *Form) Origin(field string) model.Origin {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Origin(field)
}

// Payload returns a copy of the draft values.
func (f *Form) Payload() model.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft.Values()
}

// Set records a user edit. Linked fields go through Select so the id and
// display name never diverge; poll fields accept newline separated entries.
func (f *Form) Set(field string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	desc, ok := model.FindField(f.fields, field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	switch {
	case desc.Kind == model.KindPollOptions:
		f.polls[field] = splitPoll(model.Stringify(value))
		f.storePollLocked(field)
		return nil
	case desc.LinkedName != "":
		return f.selectLocked(desc, model.Stringify(value))
	case desc.Kind == model.KindCheckbox:
		value = toBool(value)
	}
	f.draft.Apply(model.OriginUser, field, value)
	return nil
}

// Select picks the option with value on field. When the descriptor declares
// a LinkedName both fields change in the same update: the id gets the option
// value and the name gets its label, or the sentinel itself for sentinel
// options. An empty value clears both.
func (f *Form) Select(field, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	desc, ok := model.FindField(f.fields, field)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return f.selectLocked(desc, value)
}

func (f *Form) selectLocked(desc model.FieldDescriptor, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		f.draft.Apply(model.OriginUser, desc.Name, "")
		if desc.LinkedName != "" {
			f.draft.Apply(model.OriginUser, desc.LinkedName, "")
		}
		return nil
	}

	var (
		opt   model.Option
		found bool
	)
	for _, candidate := range f.optionsLocked(desc) {
		if candidate.Value == value {
			opt, found = candidate, true
			break
		}
	}
	if !found {
		return f.keepUnlistedLocked(desc, value)
	}

	f.draft.Apply(model.OriginUser, desc.Name, opt.Value)
	if desc.LinkedName != "" {
		name := opt.Label
		if opt.Sentinel {
			name = opt.Value
		}
		f.draft.Apply(model.OriginUser, desc.LinkedName, name)
	}
	return nil
}

// keepUnlistedLocked accepts a value missing from the option list when it
// is the value the draft already holds (a prefilled or stored link the
// current list does not carry) or when the field's option fetch failed.
// Re-posting the held value keeps its display name; a new free value clears
// it since no label is known for it.
func (f *Form) keepUnlistedLocked(desc model.FieldDescriptor, value string) error {
	if f.draft.String(desc.Name) == value {
		f.draft.Apply(model.OriginUser, desc.Name, value)
		if name := f.draft.String(desc.LinkedName); desc.LinkedName != "" && name != "" {
			f.draft.Apply(model.OriginUser, desc.LinkedName, name)
		}
		return nil
	}
	if !slices.Contains(f.options.Failed, desc.Name) {
		return fmt.Errorf("%w: %q for %s", ErrUnknownOption, value, desc.Name)
	}
	f.draft.Apply(model.OriginUser, desc.Name, value)
	if desc.LinkedName != "" {
		f.draft.Apply(model.OriginUser, desc.LinkedName, "")
	}
	return nil
}

// NextGeneration starts a new option resolution and returns its token.
// Results carrying an older token are discarded by ApplyOptions.
func (f *Form) NextGeneration() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generation++
	return f.generation
}

// ApplyOptions installs a resolution result. Results from a superseded
// generation or arriving after Close are dropped silently; it reports
// whether the result was applied.
func (f *Form) ApplyOptions(generation uint64, result options.Result) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || generation != f.generation {
		f.logger.WithFields(logrus.Fields{
			"record_type": f.recordType,
			"generation":  generation,
			"current":     f.generation,
			"closed":      f.closed,
		}).Debug("discarding option result")
		return false
	}
	f.options = result
	return true
}

// Close marks the form as gone; later option results are ignored.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

// Closed reports whether Close was called.
func (f *Form) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Visible reports whether field is shown for the current draft and session.
func (f *Form) Visible(field string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	desc, ok := model.FindField(f.fields, field)
	if !ok {
		return false
	}
	return f.visibleLocked(f.visibilityContext(), desc)
}

func (f *Form) visibilityContext() visibility.Context {
	return visibility.Context{
		RecordType: f.recordType,
		Values:     f.draft.Values(),
		Session:    f.sess,
	}
}

func (f *Form) visibleLocked(ctx visibility.Context, desc model.FieldDescriptor) bool {
	return f.visibility.Visible(ctx, desc)
}

// Options returns the select options of field in render order.
func (f *Form) Options(field string) []model.Option {
	f.mu.Lock()
	defer f.mu.Unlock()
	desc, ok := model.FindField(f.fields, field)
	if !ok {
		return nil
	}
	return f.optionsLocked(desc)
}

// optionsLocked orders synthetic, static then dynamic options. The blank
// placeholder is added by the view.
func (f *Form) optionsLocked(desc model.FieldDescriptor) []model.Option {
	out := options.Synthetic(f.recordType, desc.Name)

	var choices []model.Option
	for _, value := range desc.Options {
		choices = append(choices, model.Option{Label: value, Value: value})
	}
	for _, opt := range f.options.Set(desc.Name).Options {
		if !opt.Sentinel {
			choices = append(choices, opt)
		}
	}
	if desc.Name == DesignationField {
		choices = options.FilterByWhitelist(choices, f.options.DesignationWhitelist)
	}
	return append(out, choices...)
}

// Validate checks the draft before any request is made: the tenant linkage
// first, then every visible required field in descriptor order.
func (f *Form) Validate() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if model.IsEmpty(f.draft.Get(TenantField)) {
		return ErrMissingTenant
	}
	ctx := f.visibilityContext()
	for _, desc := range f.fields {
		if !desc.Required || !f.visibleLocked(ctx, desc) {
			continue
		}
		if model.IsEmpty(f.draft.Get(desc.Name)) {
			return &MissingFieldError{Field: desc.Name, Label: desc.DisplayLabel()}
		}
	}
	return nil
}

func toBool(value any) any {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "on", "yes", "checked":
			return true
		case "", "off", "no":
			return false
		}
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	case nil:
		return false
	}
	return value
}
