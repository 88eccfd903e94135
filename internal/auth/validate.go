package auth

import (
	"regexp"

	"github.com/nimbus-console/nimbus-console/internal/shared"
)

// emailPattern accepts a simple local@domain.tld shape. It intentionally
// mirrors what the console validates client-side, nothing stricter.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const minLoginPasswordLen = 6

// ValidateEmail checks the email shape. Returns nil when valid.
func ValidateEmail(email string) *shared.DomainError {
	if email == "" {
		return shared.EF(shared.CodeValidation, "email", "email is required")
	}
	if !emailPattern.MatchString(email) {
		return shared.EF(shared.CodeValidation, "email", "enter a valid email address")
	}
	return nil
}

// ValidateLoginPassword checks the password against login rules.
func ValidateLoginPassword(password string) *shared.DomainError {
	if password == "" {
		return shared.EF(shared.CodeValidation, "password", "password is required")
	}
	if len(password) < minLoginPasswordLen {
		return shared.EF(shared.CodeValidation, "password", "password must be at least 6 characters")
	}
	return nil
}
