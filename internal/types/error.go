package types

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Maps validator failures onto the offending field names, nil for any other error
func FieldErrors(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make(map[string]string, len(validationErrors))
	for _, fieldError := range validationErrors {
		fields[fieldError.Field()] = fmt.Sprintf(
			"Failed to validate while checking condition: %s",
			fieldError.Tag(),
		)
	}

	return fields
}
