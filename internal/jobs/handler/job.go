package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"fixly/internal/jobs/service"
	"fixly/internal/jobs/validator"
	httputil "fixly/pkg/http"
	"fixly/pkg/logger"
	"fixly/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type JobHandler struct {
	jobs      service.JobService
	feeds     service.FeedService
	validator *validator.JobValidator
	log       *logger.Logger
}

func NewJobHandler(jobs service.JobService, feeds service.FeedService, v *validator.JobValidator, log *logger.Logger) *JobHandler {
	return &JobHandler{
		jobs:      jobs,
		feeds:     feeds,
		validator: v,
		log:       log,
	}
}

func (h *JobHandler) GetNew(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	providerID, err := httputil.ExtractProviderID(r)
	if err != nil {
		h.writeError(w, "GetNew", err)
		return
	}

	jobs, err := h.jobs.GetNewJobs(r.Context(), providerID)
	if err != nil {
		h.writeError(w, "GetNew", err)
		return
	}

	if err := httputil.WriteSuccess(w, jobs); err != nil {
		h.log.Error("failed to write success response", "handler", "GetNew", "operation", "WriteSuccess", "error", err)
	}
}

func (h *JobHandler) GetOngoing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	providerID, err := httputil.ExtractProviderID(r)
	if err != nil {
		h.writeError(w, "GetOngoing", err)
		return
	}

	jobs, err := h.jobs.GetOngoingJobs(r.Context(), providerID)
	if err != nil {
		h.writeError(w, "GetOngoing", err)
		return
	}

	if err := httputil.WriteSuccess(w, jobs); err != nil {
		h.log.Error("failed to write success response", "handler", "GetOngoing", "operation", "WriteSuccess", "error", err)
	}
}

func (h *JobHandler) GetCompleted(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	providerID, err := httputil.ExtractProviderID(r)
	if err != nil {
		h.writeError(w, "GetCompleted", err)
		return
	}

	limit, err := httputil.ExtractLimit(r)
	if err != nil {
		h.writeError(w, "GetCompleted", err)
		return
	}

	pageToken := r.URL.Query().Get("page_token")

	jobs, nextToken, err := h.jobs.GetCompletedJobs(r.Context(), providerID, limit, pageToken)
	if err != nil {
		h.writeError(w, "GetCompleted", err)
		return
	}

	if err := httputil.WritePage(w, jobs, nextToken); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetCompleted", "operation", "WritePage", "error", err)
	}
}

func (h *JobHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	job, err := h.jobs.GetJob(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, job); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *JobHandler) Accept(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req validator.AcceptRequest
	if !h.decodeBody(w, r, "Accept", &req) {
		return
	}
	if err := h.validator.ValidateAccept(&req); err != nil {
		h.writeError(w, "Accept", err)
		return
	}

	job, err := h.jobs.AcceptJob(r.Context(), ps.ByName("id"), req.ProviderID)
	if err != nil {
		h.writeError(w, "Accept", err)
		return
	}

	if err := httputil.WriteSuccess(w, job); err != nil {
		h.log.Error("failed to write success response", "handler", "Accept", "operation", "WriteSuccess", "error", err)
	}
}

func (h *JobHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req validator.StatusRequest
	if !h.decodeBody(w, r, "AdvanceStatus", &req) {
		return
	}
	if err := h.validator.ValidateStatus(&req); err != nil {
		h.writeError(w, "AdvanceStatus", err)
		return
	}

	job, err := h.jobs.AdvanceStatus(r.Context(), ps.ByName("id"), req.ProviderID, model.JobStatus(req.Target))
	if err != nil {
		h.writeError(w, "AdvanceStatus", err)
		return
	}

	if err := httputil.WriteSuccess(w, job); err != nil {
		h.log.Error("failed to write success response", "handler", "AdvanceStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *JobHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req validator.CompleteRequest
	if !h.decodeBody(w, r, "Complete", &req) {
		return
	}
	if err := h.validator.ValidateComplete(&req); err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	job, err := h.jobs.CompleteJob(r.Context(), ps.ByName("id"), req.ProviderID, req.OTP)
	if err != nil {
		h.writeError(w, "Complete", err)
		return
	}

	if err := httputil.WriteSuccess(w, job); err != nil {
		h.log.Error("failed to write success response", "handler", "Complete", "operation", "WriteSuccess", "error", err)
	}
}

func (h *JobHandler) RegenerateOTP(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req validator.AcceptRequest
	if !h.decodeBody(w, r, "RegenerateOTP", &req) {
		return
	}
	if err := h.validator.ValidateAccept(&req); err != nil {
		h.writeError(w, "RegenerateOTP", err)
		return
	}

	job, err := h.jobs.RegenerateOTP(r.Context(), ps.ByName("id"), req.ProviderID)
	if err != nil {
		h.writeError(w, "RegenerateOTP", err)
		return
	}

	if err := httputil.WriteSuccess(w, job); err != nil {
		h.log.Error("failed to write success response", "handler", "RegenerateOTP", "operation", "WriteSuccess", "error", err)
	}
}

func (h *JobHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req validator.AcceptRequest
	if !h.decodeBody(w, r, "Reject", &req) {
		return
	}
	if err := h.validator.ValidateAccept(&req); err != nil {
		h.writeError(w, "Reject", err)
		return
	}

	if err := h.jobs.RejectJob(r.Context(), ps.ByName("id"), req.ProviderID); err != nil {
		h.writeError(w, "Reject", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *JobHandler) StreamNew(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.stream(w, r, "StreamNew", h.feeds.SubscribeNewJobs)
}

func (h *JobHandler) StreamOngoing(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	h.stream(w, r, "StreamOngoing", h.feeds.SubscribeOngoingJobs)
}

func (h *JobHandler) stream(w http.ResponseWriter, r *http.Request, name string, subscribe func(ctx context.Context, providerID string) <-chan service.FeedUpdate) {
	providerID, err := httputil.ExtractProviderID(r)
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.log.Error("response writer does not support streaming", "handler", name)
		if writeErr := httputil.WriteJSON(w, http.StatusInternalServerError, httputil.ErrorResponse{
			Error: "Streaming not supported",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", name, "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	updates := subscribe(r.Context(), providerID)
	for update := range updates {
		data, err := json.Marshal(update)
		if err != nil {
			h.log.Error("failed to marshal feed update", "handler", name, "provider_id", providerID, "error", err)
			continue
		}
		if _, err := fmt.Fprintf(w, "event: update\ndata: %s\n\n", data); err != nil {
			// Client went away; the subscription closes with the
			// request context.
			h.log.Debug("stream write failed", "handler", name, "provider_id", providerID, "error", err)
			return
		}
		flusher.Flush()
	}
}

func (h *JobHandler) decodeBody(w http.ResponseWriter, r *http.Request, name string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", name, "operation", "WriteJSON", "error", writeErr)
		}
		return false
	}
	return true
}

func (h *JobHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *JobHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/jobs/new", h.GetNew)
	router.GET("/api/v1/jobs/new/stream", h.StreamNew)
	router.GET("/api/v1/jobs/ongoing", h.GetOngoing)
	router.GET("/api/v1/jobs/ongoing/stream", h.StreamOngoing)
	router.GET("/api/v1/jobs/completed", h.GetCompleted)
	router.GET("/api/v1/jobs/id/:id", h.GetByID)
	router.POST("/api/v1/jobs/id/:id/accept", h.Accept)
	router.POST("/api/v1/jobs/id/:id/status", h.AdvanceStatus)
	router.POST("/api/v1/jobs/id/:id/complete", h.Complete)
	router.POST("/api/v1/jobs/id/:id/otp", h.RegenerateOTP)
	router.POST("/api/v1/jobs/id/:id/reject", h.Reject)
}
