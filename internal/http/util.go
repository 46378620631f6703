package httpx

import (
	"net/http"
	"strconv"

	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
)

// parseIntQuery returns the integer value of a query param, or def when absent.
// A present but malformed value is an InvalidRequest error.
func parseIntQuery(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.InvalidField(key, "must be an integer")
	}
	return i, nil
}
