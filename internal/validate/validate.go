// Package validate checks user-supplied input before any network activity.
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/example/app-builder/internal/failure"
)

const (
	MinDescriptionLen = 5
	MaxDescriptionLen = 2000
	MinCredentialLen  = 10
)

// Description returns the trimmed description or a validation failure.
// Length is counted in characters, not bytes.
func Description(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	n := utf8.RuneCountInString(trimmed)
	switch {
	case n == 0:
		return "", failure.New(failure.EmptyInput, "Description is required")
	case n < MinDescriptionLen:
		return "", failure.Newf(failure.TooShort, "Description is too short. Please provide at least %d characters.", MinDescriptionLen)
	case n > MaxDescriptionLen:
		return "", failure.Newf(failure.TooLong, "Description is too long. Please keep it under %d characters.", MaxDescriptionLen)
	}
	return trimmed, nil
}

// Credential returns the trimmed API key or a validation failure. It only
// checks shape; the vendor decides whether the key is valid.
func Credential(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	switch {
	case trimmed == "":
		return "", failure.New(failure.MissingCredential, "API key is required")
	case utf8.RuneCountInString(trimmed) < MinCredentialLen:
		return "", failure.New(failure.InvalidCredentialFormat, "API key appears to be invalid")
	}
	return trimmed, nil
}
