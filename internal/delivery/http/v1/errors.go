package v1

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/adanyl0v/go-todo-tenants/internal/services"
	"github.com/adanyl0v/go-todo-tenants/internal/validation"
)

var (
	errInvalidRequestBody      = errors.New("invalid request body")
	errMandatoryCookieNotFound = errors.New("mandatory cookie not found")
	errValidationFailed        = errors.New("validation failed")
	errMissingImageKey         = errors.New("missing image key")
	errInvalidCredentials      = errors.New("invalid credentials")
	errInvalidSession          = errors.New("invalid session")
)

type apiError struct {
	Code    int               `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func newAPIError(code int, message string) apiError {
	return apiError{
		Code:    code,
		Message: message,
	}
}

func (e apiError) Error() string {
	return e.Message
}

func abort(c *gin.Context, err apiError) {
	body := gin.H{"error": err.Message}
	if len(err.Fields) > 0 {
		body["fields"] = err.Fields
	}
	c.AbortWithStatusJSON(err.Code, body)
}

func newStatusTextError(status int) apiError {
	return newAPIError(status, http.StatusText(status))
}

func newBadRequestError(message string) apiError {
	return newAPIError(http.StatusBadRequest, message)
}

func newValidationError(errs validation.Errors) apiError {
	err := newBadRequestError(errValidationFailed.Error())
	err.Fields = errs.Fields()
	return err
}

func newUnauthorizedError(message string) apiError {
	return newAPIError(http.StatusUnauthorized, message)
}

func newForbiddenError(message string) apiError {
	return newAPIError(http.StatusForbidden, message)
}

func newNotFoundError(message string) apiError {
	return newAPIError(http.StatusNotFound, message)
}

func newConflictError(message string) apiError {
	return newAPIError(http.StatusConflict, message)
}

// fromServiceError maps service failures to API errors. Store failures
// are never described to the client, and a login never tells an unknown
// email apart from a wrong password.
func fromServiceError(err error) apiError {
	var validationErrs validation.Errors
	switch {
	case errors.As(err, &validationErrs):
		return newValidationError(validationErrs)
	case errors.Is(err, services.ErrInvalidMedia):
		return newBadRequestError(err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		return newUnauthorizedError(services.ErrUnauthorized.Error())
	case errors.Is(err, services.ErrForbidden):
		return newForbiddenError(services.ErrForbidden.Error())
	case errors.Is(err, services.ErrTaskNotFound):
		return newNotFoundError(services.ErrTaskNotFound.Error())
	case errors.Is(err, services.ErrProfileNotFound):
		return newNotFoundError(services.ErrProfileNotFound.Error())
	case errors.Is(err, services.ErrMediaNotFound):
		return newNotFoundError(services.ErrMediaNotFound.Error())
	case errors.Is(err, services.ErrNoMediaToDelete):
		return newConflictError(services.ErrNoMediaToDelete.Error())
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrUserPasswordMismatch):
		return newUnauthorizedError(errInvalidCredentials.Error())
	case errors.Is(err, services.ErrSessionNotFound),
		errors.Is(err, services.ErrSessionExpired):
		return newUnauthorizedError(errInvalidSession.Error())
	case errors.Is(err, services.ErrUserAlreadyExists):
		return newConflictError(services.ErrUserAlreadyExists.Error())
	default:
		return newStatusTextError(http.StatusInternalServerError)
	}
}

// failureEvent logs client-caused failures at debug level and everything
// else at error level.
func (h *handlerImpl) failureEvent(err error) *zerolog.Event {
	event := h.logger.Error()
	if fromServiceError(err).Code < http.StatusInternalServerError {
		event = h.logger.Debug()
	}
	return event.Err(err)
}
