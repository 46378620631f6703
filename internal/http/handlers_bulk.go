package httpx

import (
	"log/slog"
	"net/http"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	"github.com/neighborcast/neighborcast-api/internal/service"
)

// BulkHandlers provides HTTP handlers for bulk post operations.
type BulkHandlers struct {
	Svc    *service.BulkService
	Logger *slog.Logger
}

type bulkQueryRequest struct {
	Query  model.BulkQuerySpec `json:"query"`
	Sample int                 `json:"sample,omitempty"`
}

type bulkApplyRequest struct {
	Query  model.BulkQuerySpec `json:"query"`
	Action model.BulkAction    `json:"action"`
}

type bulkApplyIDsRequest struct {
	IDs    []string         `json:"ids"`
	Action model.BulkAction `json:"action"`
}

// Count handles requests for the number of posts a query matches.
func (h *BulkHandlers) Count(w http.ResponseWriter, r *http.Request) {
	var req bulkQueryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.Count(r.Context(), req.Query)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Preview handles requests for a count plus a sample of matching ids.
func (h *BulkHandlers) Preview(w http.ResponseWriter, r *http.Request) {
	var req bulkQueryRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.Preview(r.Context(), req.Query, req.Sample)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Apply handles requests to run an action on every post a query matches.
func (h *BulkHandlers) Apply(w http.ResponseWriter, r *http.Request) {
	var req bulkApplyRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.Apply(r.Context(), req.Query, req.Action, actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// ApplyIDs handles requests to run an action on an explicit id selection.
func (h *BulkHandlers) ApplyIDs(w http.ResponseWriter, r *http.Request) {
	var req bulkApplyIDsRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	res, err := h.Svc.ApplyToIDs(r.Context(), req.IDs, req.Action, actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}
