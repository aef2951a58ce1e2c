package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"fixly/internal/jobs/service"
	"fixly/internal/jobs/validator"
	apperrors "fixly/pkg/errors"
	httputil "fixly/pkg/http"
	"fixly/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// TokenIssuer fetches RTC tokens for the in-app call between provider and
// customer. Backed by the functions gateway in production.
type TokenIssuer interface {
	GenerateAgoraToken(ctx context.Context, channelName, uid, role string) (string, error)
}

// CallHandler issues voice-call tokens. The booking is re-read before every
// issue so a provider can only open a channel for a job actually assigned to
// them.
type CallHandler struct {
	jobs      service.JobService
	tokens    TokenIssuer
	validator *validator.JobValidator
	log       *logger.Logger
}

func NewCallHandler(jobs service.JobService, tokens TokenIssuer, v *validator.JobValidator, log *logger.Logger) *CallHandler {
	return &CallHandler{
		jobs:      jobs,
		tokens:    tokens,
		validator: v,
		log:       log,
	}
}

type callTokenResponse struct {
	Token   string `json:"token"`
	Channel string `json:"channel"`
}

func (h *CallHandler) IssueToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req validator.CallTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "IssueToken", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}
	if err := h.validator.ValidateCallToken(&req); err != nil {
		h.writeError(w, "IssueToken", err)
		return
	}

	job, err := h.jobs.GetJob(r.Context(), req.BookingID)
	if err != nil {
		h.writeError(w, "IssueToken", err)
		return
	}
	if job.ProviderID != req.ProviderID {
		h.writeError(w, "IssueToken", apperrors.NotEligible(req.BookingID, req.ProviderID))
		return
	}

	token, err := h.tokens.GenerateAgoraToken(r.Context(), req.BookingID, req.ProviderID, req.Role)
	if err != nil {
		h.log.Error("Token generation failed", "booking_id", req.BookingID, "error", err)
		h.writeError(w, "IssueToken", apperrors.Unavailable("call signaling"))
		return
	}

	if err := httputil.WriteSuccess(w, callTokenResponse{Token: token, Channel: req.BookingID}); err != nil {
		h.log.Error("failed to write success response", "handler", "IssueToken", "operation", "WriteSuccess", "error", err)
	}
}

func (h *CallHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *CallHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/calls/token", h.IssueToken)
}
