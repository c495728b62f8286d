package middleware

import (
	"errors"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxTextLength is the Send API limit for a text message, in characters.
const MaxTextLength = 2000

// ValidateID validates a resource id taken from a path or query.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return errors.New("invalid id format")
	}
	return nil
}

// ValidateText validates an outgoing message or reply text.
func ValidateText(text string) error {
	if len(text) == 0 {
		return errors.New("text cannot be empty")
	}
	if !utf8.ValidString(text) {
		return errors.New("text must be valid UTF-8")
	}
	if utf8.RuneCountInString(text) > MaxTextLength {
		return errors.New("text exceeds maximum length")
	}
	return nil
}

// ValidateTag validates a contact tag.
func ValidateTag(tag string) error {
	if len(tag) == 0 {
		return errors.New("tag cannot be empty")
	}
	if len(tag) > 64 {
		return errors.New("tag exceeds maximum length")
	}
	return nil
}
