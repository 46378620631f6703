package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{apperrors.Unauthorized("who"), http.StatusUnauthorized, "unauthorized"},
		{apperrors.Forbidden("admins only"), http.StatusForbidden, "insufficient_permissions"},
		{apperrors.InvalidField("type", "bad"), http.StatusBadRequest, "invalid_request"},
		{apperrors.NotFound("gone"), http.StatusNotFound, "not_found"},
		{apperrors.InvalidState("nope"), http.StatusConflict, "invalid_state"},
		{apperrors.NoActiveConfiguration(), http.StatusServiceUnavailable, "no_active_configuration"},
		{apperrors.StoreFailure(errors.New("conn reset"), "insert"), http.StatusInternalServerError, "store_failure"},
		{fmt.Errorf("retry job: %w", apperrors.InvalidState("nope")), http.StatusConflict, "invalid_state"},
		{errors.New("plain"), http.StatusInternalServerError, errCodeInternal},
	}
	for _, tt := range tests {
		status, code := StatusForError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}

func TestWriteServiceError_KeepsStoreMessage(t *testing.T) {
	err := fmt.Errorf("create job: %w",
		apperrors.StoreFailure(errors.New("connection refused"), "insert job"))
	rec := httptest.NewRecorder()
	writeServiceError(rec, httptest.NewRequest(http.MethodPost, "/api/jobs", nil), quietLogger(), err)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := errorBody(t, rec)
	assert.Equal(t, "store_failure", body["error"])
	assert.Equal(t, "insert job: connection refused", body["message"])
}
