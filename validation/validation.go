// Package validation wraps go-playground/validator for configuration and
// request parameter structs.
//
// Field names in messages come from the `query` tag, then the `koanf` tag,
// then the Go field name, so errors read the way the user wrote the input.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/stsysd/selfgraph/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// GetValidator returns the shared validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"query", "koanf"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// ValidateStruct validates s and returns a *model.ValidationError listing every failed field.
func ValidateStruct(s any) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return model.NewValidationError(err.Error())
	}

	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, message(fe))
	}
	return model.NewValidationError(strings.Join(messages, "; "))
}

func message(fe validator.FieldError) string {
	field := fe.Namespace()
	// drop the top-level struct name
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "gte", "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte", "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "hexcolor":
		return fmt.Sprintf("%s must be a hex color", field)
	case "url", "http_url":
		return fmt.Sprintf("%s must be a valid URL", field)
	case "timezone":
		return fmt.Sprintf("%s must be a valid IANA time zone", field)
	case "datetime":
		return fmt.Sprintf("%s must match %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed on %s", field, fe.Tag())
}
