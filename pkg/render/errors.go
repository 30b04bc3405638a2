package render

import (
	"errors"
	"strings"

	"github.com/goliatone/go-recordforms/pkg/form"
)

// ErrorMapping splits a submission failure into field-level and form-level
// messages.
type ErrorMapping struct {
	Fields map[string][]string
	Form   []string
}

// userMessager is implemented by submission errors that carry the text
// meant for the user.
type userMessager interface {
	UserMessage() string
}

// MapSubmitError converts the errors returned by the submission pipeline
// into messages. A missing required field is reported both inline and as
// the blocking notice; every other failure is form-level.
func MapSubmitError(err error) ErrorMapping {
	var mapping ErrorMapping
	if err == nil {
		return mapping
	}

	var missing *form.MissingFieldError
	var messager userMessager
	switch {
	case errors.As(err, &missing):
		message := missing.Error()
		mapping.Fields = map[string][]string{missing.Field: {message}}
		mapping.Form = []string{message}
	case errors.Is(err, form.ErrMissingTenant):
		mapping.Form = []string{"Organization context is missing. Sign in again before saving."}
	case errors.As(err, &messager):
		mapping.Form = normalizeMessages([]string{messager.UserMessage()})
	default:
		mapping.Form = normalizeMessages([]string{err.Error()})
	}
	return mapping
}

// MergeFormErrors concatenates and normalises form-level messages, trimming
// whitespace and removing duplicates while preserving order.
func MergeFormErrors(existing []string, extras ...string) []string {
	combined := make([]string, 0, len(existing)+len(extras))
	combined = append(combined, existing...)
	combined = append(combined, extras...)
	return normalizeMessages(combined)
}

func normalizeMessages(messages []string) []string {
	if len(messages) == 0 {
		return nil
	}

	out := make([]string, 0, len(messages))
	seen := make(map[string]struct{}, len(messages))

	for _, message := range messages {
		trimmed := strings.TrimSpace(message)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		out = append(out, trimmed)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}
