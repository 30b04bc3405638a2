package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/goliatone/go-recordforms/pkg/model"
	"github.com/goliatone/go-recordforms/pkg/visibility/expr"
)

var descriptorValidator = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("fieldkind", func(fl validator.FieldLevel) bool {
		return model.Kind(fl.Field().String()).Valid()
	})
	return v
})

// Validate checks a descriptor list: every descriptor must pass its struct
// rules and names must be unique. Link kinds must name a target and
// visibleWhen expressions must compile.
func Validate(recordType string, fields []model.FieldDescriptor) error {
	if len(fields) == 0 {
		return fmt.Errorf("registry: record type %q declares no fields", recordType)
	}

	seen := make(map[string]int, len(fields))
	for idx, field := range fields {
		if err := descriptorValidator().Struct(field); err != nil {
			return fmt.Errorf("registry: record type %q field %d (%q): %w", recordType, idx, field.Name, describeValidation(err))
		}
		name := strings.TrimSpace(field.Name)
		if name != field.Name {
			return fmt.Errorf("registry: record type %q field %d has surrounding whitespace in name %q", recordType, idx, field.Name)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("registry: record type %q defines field %q twice (positions %d and %d)", recordType, name, prev, idx)
		}
		seen[name] = idx

		if field.Kind == model.KindLink && !field.IsLink() {
			return fmt.Errorf("registry: record type %q link field %q has no link target", recordType, name)
		}
		if field.VisibleWhen != "" {
			if _, err := expr.Compile(field.VisibleWhen); err != nil {
				return fmt.Errorf("registry: record type %q field %q visibleWhen: %w", recordType, name, err)
			}
		}
		if field.IsLink() && field.Kind != model.KindLink && field.Kind != model.KindSelect {
			return fmt.Errorf("registry: record type %q field %q of kind %s cannot declare a link", recordType, name, field.Kind)
		}
	}
	return nil
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "fieldkind":
			parts = append(parts, fmt.Sprintf("unknown kind %q", fe.Value()))
		case "nefield":
			parts = append(parts, "linkedName must differ from name")
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return errors.New(strings.Join(parts, "; "))
}
