package httpx

import (
	"log/slog"
	"net/http"

	apperrors "github.com/neighborcast/neighborcast-api/internal/errors"
	"github.com/neighborcast/neighborcast-api/internal/service"
)

// ConfigHandlers provides HTTP handlers for the active weight configuration.
type ConfigHandlers struct {
	Svc    *service.CutoverService
	Logger *slog.Logger
}

// Active returns the active configuration id. With nothing active it answers
// 404 carrying the no_active_configuration code.
func (h *ConfigHandlers) Active(w http.ResponseWriter, r *http.Request) {
	id, err := h.Svc.Active(r.Context())
	if apperrors.IsNoActiveConfiguration(err) {
		WriteError(w, ErrorParams{
			Code:    http.StatusNotFound,
			ErrCode: string(apperrors.ErrCodeNoActiveConfiguration),
			Err:     err,
		})
		return
	}
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]string{"config_id": id})
}

// List returns every weight configuration with the active one marked.
func (h *ConfigHandlers) List(w http.ResponseWriter, r *http.Request) {
	configs, err := h.Svc.List(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"configs": configs, "count": len(configs)})
}

// Activate cuts the active configuration over to the path's config id.
func (h *ConfigHandlers) Activate(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.Activate(r.Context(), r.PathValue("id"), actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
