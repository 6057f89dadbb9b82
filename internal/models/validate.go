package models

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/dmitrymomot/foundation/core/validator"

	"github.com/isdelr/tasker-be/internal/apperr"
)

func init() {
	validator.RegisterValidator("username", usernameValidator)
	validator.RegisterValidator("password", passwordValidator)
	validator.RegisterValidator("task_state", enumValidator("validation.task_state",
		TaskStateToDo, TaskStateInProgress, TaskStateDone))
	validator.RegisterValidator("task_priority", enumValidator("validation.task_priority",
		TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh))
}

// validate runs the struct tag rules on v (a pointer to a DTO) and reports
// the first failing field as "<json name>: <message>".
func validate(v any) error {
	err := validator.ValidateStruct(v)
	if err == nil {
		return nil
	}
	errs := validator.ExtractValidationErrors(err)
	if len(errs) == 0 {
		return apperr.Validation("%s", err.Error())
	}
	return apperr.Validation("%s: %s", jsonName(v, errs[0].Field), errs[0].Message)
}

func jsonName(v any, field string) string {
	t := reflect.TypeOf(v)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if f, ok := t.FieldByName(field); ok {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name != "" && name != "-" {
			return name
		}
	}
	return strings.ToLower(field)
}

// Nil optional fields reach custom validators as pointer values and pass.

func usernameValidator(field string, value reflect.Value, _ []string) validator.Rule {
	return validator.Rule{
		Check: func() bool {
			if value.Kind() != reflect.String {
				return true
			}
			for _, r := range value.String() {
				if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
					return false
				}
			}
			return true
		},
		Error: validator.ValidationError{
			Field:          field,
			Message:        "only lowercase letters, digits and underscore are allowed",
			TranslationKey: "validation.username",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

func passwordValidator(field string, value reflect.Value, _ []string) validator.Rule {
	return validator.Rule{
		Check: func() bool {
			if value.Kind() != reflect.String {
				return true
			}
			var lower, upper, digit bool
			for _, r := range value.String() {
				switch {
				case unicode.IsLower(r):
					lower = true
				case unicode.IsUpper(r):
					upper = true
				case unicode.IsDigit(r):
					digit = true
				}
			}
			return lower && upper && digit
		},
		Error: validator.ValidationError{
			Field:          field,
			Message:        "must contain a lowercase letter, an uppercase letter and a digit",
			TranslationKey: "validation.password",
			TranslationValues: map[string]any{
				"field": field,
			},
		},
	}
}

func enumValidator(key string, allowed ...string) validator.ValidatorFunc {
	quoted := make([]string, len(allowed))
	for i, a := range allowed {
		quoted[i] = "'" + a + "'"
	}
	message := "must be one of (" + strings.Join(quoted, ", ") + ")"

	return func(field string, value reflect.Value, _ []string) validator.Rule {
		return validator.Rule{
			Check: func() bool {
				if value.Kind() != reflect.String {
					return true
				}
				for _, a := range allowed {
					if value.String() == a {
						return true
					}
				}
				return false
			},
			Error: validator.ValidationError{
				Field:          field,
				Message:        message,
				TranslationKey: key,
				TranslationValues: map[string]any{
					"field":  field,
					"values": allowed,
				},
			},
		}
	}
}
