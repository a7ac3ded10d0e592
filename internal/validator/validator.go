package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New creates a new validator instance with custom validations registered.
// Field errors are reported under their JSON names so handlers can echo them to clients.
func New() *validator.Validate {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	// notblank rejects whitespace-only strings
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		str, ok := fl.Field().Interface().(string)
		if !ok {
			return true
		}
		return strings.TrimSpace(str) != ""
	})

	return v
}
