package handler

import (
	"errors"
	"net/http"

	"github.com/BloggingApp/journal-service/internal/model"
	"github.com/BloggingApp/journal-service/internal/repository/postgres"
	"github.com/BloggingApp/journal-service/internal/service"
)

var (
	errNotAuthorized   = errors.New("user is not authorized")
	errInvalidPostID   = errors.New("invalid post ID")
	errInvalidID       = errors.New("invalid ID")
	errInvalidUserID   = errors.New("invalid user ID")
	errAmountMustBeInt = errors.New("amount must be int")
)

// errorStatus maps service errors to the HTTP status returned to clients.
func errorStatus(err error) int {
	switch {
	case model.IsValidationError(err),
		errors.Is(err, service.ErrFileMustBeImage),
		errors.Is(err, service.ErrFileMustHaveAValidExtension),
		errors.Is(err, postgres.ErrFieldsNotAllowedToUpdate):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotPostAuthor), errors.Is(err, service.ErrNotCommentAuthor):
		return http.StatusForbidden
	case errors.Is(err, service.ErrPostNotFound),
		errors.Is(err, service.ErrCommentNotFound),
		errors.Is(err, service.ErrReplyTargetNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCommentConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrFailedToUploadPostImageToCDN):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
