package credapi

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/credhouse/credhouse/lifecycle"
	"github.com/credhouse/credhouse/storage/model"
	"github.com/credhouse/credhouse/validate"
)

// Error codes used in error responses
const (
	ErrorInvalidRequest = "invalid_request"
	ErrorNotFound       = "not_found"
	ErrorAlreadyExists  = "already_exists"
	ErrorNotPending     = "not_pending"
	ErrorUnauthorized   = "unauthorized"
	ErrorForbidden      = "forbidden"
	ErrorServerError    = "server_error"
	ErrorUnavailable    = "temporarily_unavailable"
)

// Error is the body of all error responses
type Error struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func errorBody(code, description string) Error {
	return Error{
		Error:            code,
		ErrorDescription: description,
	}
}

// StatusForError maps an error returned by the lifecycle engine or the
// stores to the http status and error code of the response
func StatusForError(err error) (int, string) {
	var (
		validation    model.ValidationError
		notFound      model.NotFoundError
		alreadyExists model.AlreadyExistsError
		notPending    model.NotPendingError
		permission    model.PermissionError
	)
	switch {
	case errors.Is(err, validate.ErrMissingField),
		errors.Is(err, validate.ErrInvalidEmail),
		errors.Is(err, validate.ErrInvalidWalletAddress),
		errors.Is(err, validate.ErrInvalidCredentialID),
		errors.As(err, &validation):
		return fiber.StatusBadRequest, ErrorInvalidRequest
	case errors.As(err, &notFound):
		return fiber.StatusNotFound, ErrorNotFound
	case errors.As(err, &alreadyExists):
		return fiber.StatusConflict, ErrorAlreadyExists
	case errors.As(err, &notPending):
		return fiber.StatusConflict, ErrorNotPending
	case errors.Is(err, lifecycle.ErrNoSession), errors.Is(err, lifecycle.ErrSignInFailed):
		return fiber.StatusUnauthorized, ErrorUnauthorized
	case errors.As(err, &permission):
		return fiber.StatusForbidden, ErrorForbidden
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusServiceUnavailable, ErrorUnavailable
	default:
		return fiber.StatusInternalServerError, ErrorServerError
	}
}

// writeError writes the error response for err
func writeError(c *fiber.Ctx, err error) error {
	status, code := StatusForError(err)
	if status == fiber.StatusInternalServerError {
		log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}
	return c.Status(status).JSON(errorBody(code, err.Error()))
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(errorBody(ErrorInvalidRequest, "invalid body"))
}
