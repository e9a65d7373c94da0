package model

import (
	"errors"
	"unicode/utf8"
)

const (
	MaxCommentLength = 255
	MaxTitleLength   = 64
)

var (
	ErrContentEmpty   = errors.New("you must write something in order to comment")
	ErrContentTooLong = errors.New("comment must be at most 255 characters")
	ErrTitleLength    = errors.New("title must be between 1 and 64 characters")
)

// ValidateCommentContent checks the comment length in characters, not bytes.
func ValidateCommentContent(content string) error {
	n := utf8.RuneCountInString(content)
	if n == 0 {
		return ErrContentEmpty
	}
	if n > MaxCommentLength {
		return ErrContentTooLong
	}
	return nil
}

func ValidatePostTitle(title string) error {
	n := utf8.RuneCountInString(title)
	if n == 0 || n > MaxTitleLength {
		return ErrTitleLength
	}
	return nil
}

// IsValidationError reports whether err is a field-level validation failure.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrContentEmpty) || errors.Is(err, ErrContentTooLong) || errors.Is(err, ErrTitleLength)
}

// ValidationField names the request field a validation error refers to.
func ValidationField(err error) string {
	switch {
	case errors.Is(err, ErrContentEmpty), errors.Is(err, ErrContentTooLong):
		return "content"
	case errors.Is(err, ErrTitleLength):
		return "title"
	}
	return ""
}
