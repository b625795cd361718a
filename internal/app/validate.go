package app

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	minNameLength     = 3
	minPasswordLength = 6
	maxBioLength      = 500
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func validateName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) < minNameLength {
		return invalid("name must be at least %d characters", minNameLength)
	}
	return nil
}

func validateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email is not a valid address")
	}
	return nil
}

// validatePassword checks length and confirmation. An empty password is
// accepted only when optional is set (profile edits keep the old one).
func validatePassword(password, confirm string, optional bool) error {
	if password == "" && optional {
		if confirm != "" {
			return invalid("passwords do not match")
		}
		return nil
	}
	if utf8.RuneCountInString(password) < minPasswordLength {
		return invalid("password must be at least %d characters", minPasswordLength)
	}
	if password != confirm {
		return invalid("passwords do not match")
	}
	return nil
}

func validateBio(bio string) error {
	if utf8.RuneCountInString(bio) > maxBioLength {
		return invalid("bio must be at most %d characters", maxBioLength)
	}
	return nil
}
