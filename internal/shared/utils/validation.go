package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// String length limits
const (
	MaxIDLength          = 128
	MaxNameLength        = 256
	MaxFileNameLength    = 1024
	MaxDescriptionLength = 4096
	MaxKeywordLength     = 256
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string) error {
	return ValidateString(id, fieldName, 1, MaxIDLength, true)
}

// ValidateName validates a display name
func ValidateName(name, fieldName string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return ValidateString(name, fieldName, 1, MaxNameLength, true)
}

// ValidateDescription validates a free-text description
func ValidateDescription(description, fieldName string) error {
	return ValidateString(description, fieldName, 0, MaxDescriptionLength, false)
}

// ValidateFileName validates a name that becomes a single path element
// below a base directory.
func ValidateFileName(name, fieldName string) error {
	if err := ValidateString(name, fieldName, 1, MaxFileNameLength, true); err != nil {
		return err
	}
	if name == "." || name == ".." || strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%s must be a plain file name", fieldName)
	}
	return nil
}
