package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-recordforms/pkg/form"
	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/render"
	"github.com/goliatone/go-recordforms/pkg/widgets"
)

// Name identifies the terminal renderer in a render.Registry.
const Name = "tui"

// Date layouts accepted by the date and datetime prompts.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04"
)

// Renderer fills a form interactively, one prompt per visible field, and
// serializes the resulting payload.
type Renderer struct {
	driver            PromptDriver
	stdio             Stdio
	outputFormat      OutputFormat
	submitTransformer SubmitTransformer
	theme             Theme
}

// New constructs a TUI renderer. Without WithPromptDriver it prompts through
// survey on the process streams, or those given by WithStdio.
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{outputFormat: OutputFormatJSON}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = newSurveyDriver(r.stdio)
	}
	return r, nil
}

var _ render.Renderer = (*Renderer)(nil)

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return Name
}

// ContentType reports the serialization format used by Render.
func (r *Renderer) ContentType() string {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return "application/x-www-form-urlencoded"
	case OutputFormatPrettyText:
		return "text/plain"
	default:
		return "application/json"
	}
}

// Render prompts for every visible field in descriptor order and returns the
// serialized payload. Visibility is re-evaluated after each answer, so a
// field revealed by an earlier choice is still asked. Display fields written
// through a linked select are never prompted on their own.
func (r *Renderer) Render(ctx context.Context, f *form.Form, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNilForm
	}
	if r.driver == nil {
		return nil, errors.New("tui: prompt driver is nil")
	}

	if err := r.announce(ctx, f, opts); err != nil {
		return nil, err
	}

	descriptors := f.Descriptors()
	linked := linkedNames(descriptors)
	for _, desc := range descriptors {
		if _, ok := linked[desc.Name]; ok {
			continue
		}
		view, ok := fieldView(f, desc.Name)
		if !ok {
			continue
		}
		if err := r.promptField(ctx, f, view, opts.Errors[desc.Name]); err != nil {
			return nil, err
		}
	}

	values := f.Payload()
	if r.submitTransformer != nil {
		var err error
		values, err = r.submitTransformer(values)
		if err != nil {
			return nil, fmt.Errorf("tui: submit transformer: %w", err)
		}
	}
	return r.serialize(values)
}

func (r *Renderer) announce(ctx context.Context, f *form.Form, opts render.RenderOptions) error {
	view := render.BuildView(f, opts)
	if err := r.driver.Info(ctx, r.theme.InfoPrefix+view.Title); err != nil {
		return err
	}
	for _, notice := range view.Notices {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+notice); err != nil {
			return err
		}
	}
	return nil
}

func (r *Renderer) promptField(ctx context.Context, f *form.Form, view form.FieldView, errs []string) error {
	for _, msg := range errs {
		if err := r.driver.Info(ctx, r.theme.ErrorPrefix+msg); err != nil {
			return err
		}
	}
	switch view.Widget {
	case widgets.WidgetSelect:
		return r.promptSelect(ctx, f, view)
	case widgets.WidgetToggle:
		return r.promptToggle(ctx, f, view)
	case widgets.WidgetPollEditor:
		return r.promptPoll(ctx, f, view)
	case widgets.WidgetNumber:
		return r.promptNumber(ctx, f, view)
	case widgets.WidgetDate:
		return r.promptText(ctx, f, view, dateValidator(DateLayout))
	case widgets.WidgetDateTime:
		return r.promptText(ctx, f, view, dateValidator(DateTimeLayout))
	default:
		return r.promptText(ctx, f, view, nil)
	}
}

func (r *Renderer) promptText(ctx context.Context, f *form.Form, view form.FieldView, validate func(string) error) error {
	label := displayLabel(view)
	for {
		var (
			response string
			err      error
		)
		switch view.Widget {
		case widgets.WidgetPassword:
			response, err = r.driver.Password(ctx, InputConfig{Message: label, Help: view.Help})
		case widgets.WidgetTextarea:
			response, err = r.driver.TextArea(ctx, TextAreaConfig{Message: label, Default: view.Text, Help: view.Help})
		default:
			response, err = r.driver.Input(ctx, InputConfig{
				Message:     label,
				Default:     view.Text,
				Help:        view.Help,
				Placeholder: view.Placeholder,
			})
		}
		if err != nil {
			return err
		}

		response = strings.TrimSpace(response)
		if response == "" {
			if view.Required {
				r.invalid(ctx, view, "required")
				continue
			}
			return f.Set(view.Name, "")
		}
		if validate != nil {
			if err := validate(response); err != nil {
				r.invalid(ctx, view, err.Error())
				continue
			}
		}
		return f.Set(view.Name, response)
	}
}

func (r *Renderer) promptNumber(ctx context.Context, f *form.Form, view form.FieldView) error {
	label := displayLabel(view)
	for {
		input, err := r.driver.Input(ctx, InputConfig{
			Message: label,
			Default: view.Text,
			Help:    view.Help,
		})
		if err != nil {
			return err
		}

		input = strings.TrimSpace(input)
		if input == "" {
			if view.Required {
				r.invalid(ctx, view, "required")
				continue
			}
			return f.Set(view.Name, nil)
		}
		if i, err := strconv.ParseInt(input, 10, 64); err == nil {
			return f.Set(view.Name, i)
		}
		parsed, err := strconv.ParseFloat(input, 64)
		if err != nil {
			r.invalid(ctx, view, "not a number")
			continue
		}
		return f.Set(view.Name, parsed)
	}
}

func (r *Renderer) promptToggle(ctx context.Context, f *form.Form, view form.FieldView) error {
	resp, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: displayLabel(view),
		Default: view.Checked(),
		Help:    view.Help,
	})
	if err != nil {
		return err
	}
	return f.Set(view.Name, resp)
}

// promptSelect offers the view options; the first entry is the blank
// placeholder and clears the field.
func (r *Renderer) promptSelect(ctx context.Context, f *form.Form, view form.FieldView) error {
	labels := make([]string, len(view.Options))
	defaultIdx := 0
	for i, opt := range view.Options {
		labels[i] = opt.Label
		if i > 0 && view.Selected(opt) {
			defaultIdx = i
		}
	}

	for {
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message:      displayLabel(view),
			Options:      labels,
			DefaultIndex: defaultIdx,
			Help:         view.Help,
		})
		if err != nil {
			return err
		}
		if idx < 0 || idx >= len(view.Options) {
			r.invalid(ctx, view, "unknown selection")
			continue
		}
		if idx == 0 && view.Required {
			r.invalid(ctx, view, "required")
			continue
		}
		if idx == 0 {
			return f.Select(view.Name, "")
		}
		return f.Select(view.Name, view.Options[idx].Value)
	}
}

// promptPoll edits the existing entries in place, then keeps offering new
// entries until the user declines.
func (r *Renderer) promptPoll(ctx context.Context, f *form.Form, view form.FieldView) error {
	label := displayLabel(view)
	for idx, entry := range view.PollEntries {
		if err := r.promptPollEntry(ctx, f, view, label, idx, entry); err != nil {
			return err
		}
	}

	count := len(view.PollEntries)
	for {
		more, err := r.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("Add another %s entry?", label)})
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if err := f.AddPollOption(view.Name); err != nil {
			return err
		}
		if err := r.promptPollEntry(ctx, f, view, label, count, ""); err != nil {
			return err
		}
		count++
	}
}

func (r *Renderer) promptPollEntry(ctx context.Context, f *form.Form, view form.FieldView, label string, idx int, current string) error {
	for {
		resp, err := r.driver.Input(ctx, InputConfig{
			Message: fmt.Sprintf("%s #%d", label, idx+1),
			Default: current,
		})
		if err != nil {
			return err
		}
		resp = strings.TrimSpace(resp)
		if resp == "" && idx < form.MinPollOptions {
			r.invalid(ctx, view, fmt.Sprintf("at least %d options are required", form.MinPollOptions))
			continue
		}
		return f.SetPollOption(view.Name, idx, resp)
	}
}

func (r *Renderer) invalid(ctx context.Context, view form.FieldView, reason string) {
	_ = r.driver.Info(ctx, fmt.Sprintf("%sInvalid %s: %s", r.theme.ErrorPrefix, displayLabel(view), reason))
}

func (r *Renderer) serialize(values model.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(encodeForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func fieldView(f *form.Form, name string) (form.FieldView, bool) {
	for _, view := range f.Fields() {
		if view.Name == name {
			return view, true
		}
	}
	return form.FieldView{}, false
}

func linkedNames(descriptors []model.FieldDescriptor) map[string]struct{} {
	out := make(map[string]struct{})
	for _, desc := range descriptors {
		if desc.LinkedName != "" {
			out[desc.LinkedName] = struct{}{}
		}
	}
	return out
}

func displayLabel(view form.FieldView) string {
	label := view.DisplayLabel()
	if view.Required {
		label += " *"
	}
	return label
}

func dateValidator(layout string) func(string) error {
	return func(raw string) error {
		if _, err := time.Parse(layout, raw); err != nil {
			return fmt.Errorf("expected %s", layout)
		}
		return nil
	}
}

func encodeForm(values model.Values) string {
	out := url.Values{}
	for key, value := range values {
		out.Set(key, model.Stringify(value))
	}
	return out.Encode()
}

func prettyPrint(values model.Values) string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, key := range keys {
		fmt.Fprintf(&b, "%s=%s\n", key, strings.ReplaceAll(model.Stringify(values[key]), "\n", `\n`))
	}
	return b.String()
}
