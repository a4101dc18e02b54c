package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ayhamallaham/testapp/pkg/api"
	"github.com/ayhamallaham/testapp/pkg/auth/password"
	"github.com/ayhamallaham/testapp/pkg/auth/token"
	"github.com/ayhamallaham/testapp/pkg/users"
)

// HTTPStatusFromError maps an error to an HTTP status code and the
// APIError written to the client. An *api.APIError is used as is.
// Unrecognized errors map to 500 with a generic message so internals do
// not leak.
func HTTPStatusFromError(err error) (int, *api.APIError) {
	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return statusFromType(apiErr.Type), apiErr
	}

	switch {
	case errors.Is(err, users.ErrMissingRequiredData):
		return http.StatusBadRequest, &api.APIError{
			Type: api.ErrorTypeInvalidRequest, Code: "missing_required_data", Message: users.ErrMissingRequiredData.Error(),
		}
	case errors.Is(err, password.ErrPasswordTooLong):
		return http.StatusBadRequest, &api.APIError{
			Type: api.ErrorTypeInvalidRequest, Code: "password_too_long", Param: "password", Message: password.ErrPasswordTooLong.Error(),
		}
	case errors.Is(err, users.ErrUsernameAlreadyUsed):
		return http.StatusConflict, &api.APIError{
			Type: api.ErrorTypeConflict, Code: "username_already_used", Param: "username", Message: users.ErrUsernameAlreadyUsed.Error(),
		}
	case errors.Is(err, users.ErrUserDoesNotExist):
		return http.StatusNotFound, &api.APIError{
			Type: api.ErrorTypeNotFound, Code: "user_does_not_exist", Message: users.ErrUserDoesNotExist.Error(),
		}
	case errors.Is(err, users.ErrInvalidPassword):
		return http.StatusUnauthorized, api.NewUnauthorizedError("invalid_password", users.ErrInvalidPassword.Error())
	case errors.Is(err, token.ErrMalformedToken):
		return http.StatusUnauthorized, api.NewUnauthorizedError("malformed_token", token.ErrMalformedToken.Error())
	case errors.Is(err, users.ErrInvalidToken):
		return http.StatusUnauthorized, api.NewUnauthorizedError("invalid_token", users.ErrInvalidToken.Error())
	default:
		return http.StatusInternalServerError, api.NewServerError("internal server error")
	}
}

func statusFromType(t api.ErrorType) int {
	switch t {
	case api.ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case api.ErrorTypeNotFound:
		return http.StatusNotFound
	case api.ErrorTypeConflict:
		return http.StatusConflict
	case api.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case api.ErrorTypeForbidden:
		return http.StatusForbidden
	case api.ErrorTypeTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// WriteErrorResponse writes a JSON error response using the ErrorResponse
// wrapper format from pkg/api. It sets the Content-Type header and writes
// the HTTP status code.
func WriteErrorResponse(w http.ResponseWriter, apiErr *api.APIError, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(api.ErrorResponse{Error: apiErr})
}

// WriteError maps err with HTTPStatusFromError and writes it. Errors that
// map to 500 are logged with their full text.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, apiErr := HTTPStatusFromError(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", RequestIDFromContext(r.Context()),
			"error", err.Error(),
		)
	}
	WriteErrorResponse(w, apiErr, status)
}
