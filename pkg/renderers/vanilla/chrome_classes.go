package vanilla

// ChromeClass is a typed identifier for semantic chrome CSS classes.
type ChromeClass string

const (
	ClassForm    ChromeClass = "rf-form"
	ClassHeader  ChromeClass = "rf-header"
	ClassField   ChromeClass = "rf-field"
	ClassPoll    ChromeClass = "rf-poll"
	ClassActions ChromeClass = "rf-actions"
	ClassErrors  ChromeClass = "rf-errors"
	ClassHelp    ChromeClass = "rf-help"
)

// Classes maps chrome slots to the CSS classes emitted for them.
type Classes struct {
	Form    string `json:"form"`
	Header  string `json:"header"`
	Field   string `json:"field"`
	Poll    string `json:"poll"`
	Actions string `json:"actions"`
	Errors  string `json:"errors"`
	Help    string `json:"help"`
}

// DefaultClasses returns the built-in chrome classes.
func DefaultClasses() Classes {
	return Classes{
		Form:    string(ClassForm),
		Header:  string(ClassHeader),
		Field:   string(ClassField),
		Poll:    string(ClassPoll),
		Actions: string(ClassActions),
		Errors:  string(ClassErrors),
		Help:    string(ClassHelp),
	}
}

// merge keeps the defaults for empty overrides.
func (c Classes) merge(override Classes) Classes {
	pick := func(base, next string) string {
		if next = sanitizeClassList(next); next != "" {
			return next
		}
		return base
	}
	return Classes{
		Form:    pick(c.Form, override.Form),
		Header:  pick(c.Header, override.Header),
		Field:   pick(c.Field, override.Field),
		Poll:    pick(c.Poll, override.Poll),
		Actions: pick(c.Actions, override.Actions),
		Errors:  pick(c.Errors, override.Errors),
		Help:    pick(c.Help, override.Help),
	}
}
