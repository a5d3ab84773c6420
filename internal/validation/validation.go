// file: internal/validation/validation.go
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Struct validates a struct using go-playground/validator tags
func Struct(s interface{}) error {
	return validate.Struct(s)
}

// Details converts a validation error into a per-field message map
// suitable for API error responses. Non-validator errors produce a
// single generic entry.
func Details(err error) map[string]interface{} {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return map[string]interface{}{"error": err.Error()}
	}
	details := make(map[string]interface{}, len(ve))
	for _, fe := range ve {
		field := strings.ToLower(fe.Field())
		if fe.Param() != "" {
			details[field] = fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		} else {
			details[field] = fmt.Sprintf("failed %s validation", fe.Tag())
		}
	}
	return details
}
