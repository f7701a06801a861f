package harness

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/jokebox/internal/ir"
)

var (
	validatorOnce   sync.Once
	sharedValidator *validator.Validate
)

// scenarioValidator returns the shared validator, configured to report
// YAML field names and to understand intent kinds.
func scenarioValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				return strings.ToLower(fld.Name)
			}
			return name
		})

		// Registration only fails for an empty tag or nil func.
		_ = v.RegisterValidation("intentkind", func(fl validator.FieldLevel) bool {
			return ir.IntentKind(fl.Field().String()).Valid()
		})

		sharedValidator = v
	})
	return sharedValidator
}

// validate runs struct tag validation and reports every failed field.
func validate(s *Scenario) error {
	err := scenarioValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Errorf("%s: %s", fieldPath(fe), describe(fe)))
	}
	return errors.Join(msgs...)
}

// fieldPath drops the root struct name: "Scenario.steps[0].do" → "steps[0].do".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "intentkind":
		return fmt.Sprintf("unknown intent %q", fe.Value())
	case "excludesall":
		return fmt.Sprintf("must not contain any of %q", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
