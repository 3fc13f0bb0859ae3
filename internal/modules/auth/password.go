package auth

import (
	"unicode"

	"github.com/echo88/core/internal/pkg/response"
)

const minPasswordLength = 8

// ValidatePassword checks password strength and returns one entry per
// violated rule so clients can display all of them at once.
func ValidatePassword(password string) []response.FieldError {
	var errs []response.FieldError

	if len(password) < minPasswordLength {
		errs = append(errs, response.FieldError{
			Field:   "password",
			Message: "must be at least 8 characters",
		})
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		errs = append(errs, response.FieldError{
			Field:   "password",
			Message: "must contain an uppercase letter",
		})
	}
	if !hasLower {
		errs = append(errs, response.FieldError{
			Field:   "password",
			Message: "must contain a lowercase letter",
		})
	}
	if !hasDigit {
		errs = append(errs, response.FieldError{
			Field:   "password",
			Message: "must contain a digit",
		})
	}

	return errs
}
