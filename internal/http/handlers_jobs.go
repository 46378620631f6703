// Package httpx provides the HTTP API of the neighborcast job queue and configuration cache.
package httpx

import (
	"log/slog"
	"net/http"

	"github.com/neighborcast/neighborcast-api/internal/domain/model"
	"github.com/neighborcast/neighborcast-api/internal/service"
)

// JobHandlers provides HTTP handlers for job-related operations.
type JobHandlers struct {
	Svc    *service.JobService
	Logger *slog.Logger
}

// Submit handles HTTP requests to create a new job.
func (h *JobHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Submit(r.Context(), req, submitterFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// List handles HTTP requests to list recent jobs.
func (h *JobHandlers) List(w http.ResponseWriter, r *http.Request) {
	limit, err := parseIntQuery(r, "limit", 0)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	q := r.URL.Query()
	jobs, err := h.Svc.List(r.Context(), service.ListJobsParams{
		Type:   q.Get("type"),
		Status: q.Get("status"),
		Limit:  limit,
	})
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"jobs": jobs, "count": len(jobs)})
}

// Stats handles HTTP requests to retrieve aggregate job statistics.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Svc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}

// Get handles HTTP requests to retrieve a single job.
func (h *JobHandlers) Get(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Delete handles HTTP requests to delete a pending or running job.
func (h *JobHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Retry handles HTTP requests to retry a failed or cancelled job.
func (h *JobHandlers) Retry(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Retry(r.Context(), r.PathValue("id"), actorFromContext(r.Context()))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// Claim handles executor requests for the next pending job of a type.
// It answers 204 when the queue is empty.
func (h *JobHandlers) Claim(w http.ResponseWriter, r *http.Request) {
	job, ok, err := h.Svc.Claim(r.Context(), r.PathValue("type"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Progress handles executor progress reports for a running job.
func (h *JobHandlers) Progress(w http.ResponseWriter, r *http.Request) {
	var body model.ProgressJobRequest
	if !DecodeJSON(w, r, &body) {
		return
	}
	body.JobID = r.PathValue("id")

	job, err := h.Svc.Progress(r.Context(), &body)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Complete handles executor requests to mark a job as completed. A failed
// job-driven cutover still answers 200; the body carries cutover_error.
func (h *JobHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	res, err := h.Svc.Complete(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, res)
}

// Fail handles executor requests to record a job failure.
func (h *JobHandlers) Fail(w http.ResponseWriter, r *http.Request) {
	var body model.FailJobRequest
	if !DecodeJSON(w, r, &body) {
		return
	}
	body.JobID = r.PathValue("id")

	job, err := h.Svc.Fail(r.Context(), &body)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// Cancel handles the external cancellation signal for a job.
func (h *JobHandlers) Cancel(w http.ResponseWriter, r *http.Request) {
	job, err := h.Svc.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}
