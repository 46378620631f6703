package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

const errCodeInternal = "internal_error"

// StatusForError maps an error's category to its HTTP status and wire code.
// Errors without a category are reported as 500 internal_error.
func StatusForError(err error) (int, string) {
	switch code := apperrors.GetCode(err); code {
	case apperrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized, string(code)
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden, string(code)
	case apperrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest, string(code)
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound, string(code)
	case apperrors.ErrCodeInvalidState:
		return http.StatusConflict, string(code)
	case apperrors.ErrCodeNoActiveConfiguration:
		return http.StatusServiceUnavailable, string(code)
	case apperrors.ErrCodeStoreFailure:
		return http.StatusInternalServerError, string(code)
	default:
		return http.StatusInternalServerError, errCodeInternal
	}
}

// errorMessage returns the detail of the outermost categorized error, which
// keeps the underlying cause but drops service-level "op:" prefixes.
func errorMessage(err error) string {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.Error()
	}
	return err.Error()
}

// writeServiceError renders a service error with its mapped status.
// Server-side failures are logged.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, code := StatusForError(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "code", code, "error", err)
	}
	WriteJSON(w, status, map[string]string{"error": code, "message": errorMessage(err)})
}
