package auth

import (
	"fmt"
	"strings"

	"github.com/mektebapp/go-mekteb-client/users"
)

// Validator checks request payloads before they hit the network, so
// obvious form mistakes surface without a round trip.
type Validator struct{}

// NewValidator creates a new Validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCredentials validates login input
func (v *Validator) ValidateCredentials(creds Credentials) error {
	if strings.TrimSpace(creds.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if creds.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ValidateRegistration validates register input
func (v *Validator) ValidateRegistration(reg Registration) error {
	if strings.TrimSpace(reg.FirstName) == "" {
		return fmt.Errorf("first name is required")
	}
	if strings.TrimSpace(reg.LastName) == "" {
		return fmt.Errorf("last name is required")
	}
	if strings.TrimSpace(reg.Username) == "" {
		return fmt.Errorf("username is required")
	}

	email := strings.TrimSpace(reg.Email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if !strings.Contains(email, "@") || !strings.Contains(email, ".") {
		return fmt.Errorf("invalid email format")
	}

	if len(reg.Password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	switch reg.Role {
	case users.RoleStudent, users.RoleTeacher, users.RoleAdmin, users.RoleParent:
	default:
		return fmt.Errorf("role must be one of student, teacher, admin, parent")
	}

	return nil
}
