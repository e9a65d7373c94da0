package composer

import (
	"errors"

	"github.com/BloggingApp/journal-service/internal/model"
)

const (
	GenericFailureMessage = "Something went wrong, please try again."
	ConflictMessage       = "This comment was changed elsewhere. Reload it and try again."
)

// Errors a Store returns for rejected requests.
var (
	ErrUnauthenticated = errors.New("sign in to continue")
	ErrForbidden       = errors.New("only the author can change this comment")
	ErrNotFound        = errors.New("comment not found")
	ErrConflict        = errors.New("comment was changed by someone else")
	ErrUnknownComment  = errors.New("comment is not part of the loaded thread")
)

// ValidationError is a field-level rejection. Its message is shown next to
// the field instead of the generic failure message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

type Outcome int

const (
	OutcomeSuccess Outcome = iota
	OutcomeLoginRedirect
	OutcomeInvalid
	OutcomeConflict
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeLoginRedirect:
		return "login-redirect"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeConflict:
		return "conflict"
	default:
		return "failed"
	}
}

// OutcomeOf classifies the error returned by a submit call.
func OutcomeOf(err error) Outcome {
	var validationErr *ValidationError
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, ErrUnauthenticated):
		return OutcomeLoginRedirect
	case model.IsValidationError(err), errors.As(err, &validationErr):
		return OutcomeInvalid
	case errors.Is(err, ErrConflict):
		return OutcomeConflict
	default:
		return OutcomeFailed
	}
}

// userMessage is the text shown in a slot after err.
func userMessage(err error) string {
	switch OutcomeOf(err) {
	case OutcomeInvalid:
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			return validationErr.Message
		}
		return err.Error()
	case OutcomeConflict:
		return ConflictMessage
	case OutcomeLoginRedirect:
		return ""
	default:
		return GenericFailureMessage
	}
}

var errAlreadySubmitting = errors.New("a request for this form is already in flight")
