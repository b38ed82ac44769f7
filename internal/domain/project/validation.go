package project

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var codePattern = regexp.MustCompile(`^[가-힣a-zA-Z0-9]+$`)

// ValidateCode checks that code is 2-4 letters or digits.
func ValidateCode(code string) error {
	n := utf8.RuneCountInString(code)
	if n < 2 || n > 4 || !codePattern.MatchString(code) {
		return fmt.Errorf("%w: code must be 2-4 letters or digits", ErrInvalidInput)
	}
	return nil
}

// ValidateStatus checks a status value.
func ValidateStatus(status Status) error {
	switch status {
	case StatusActive, StatusCompleted, StatusHold:
		return nil
	}
	return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	return nil
}
