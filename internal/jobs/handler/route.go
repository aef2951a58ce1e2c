package handler

import (
	"encoding/json"
	"net/http"

	"fixly/internal/jobs/service"
	"fixly/internal/jobs/validator"
	"fixly/internal/routing"
	apperrors "fixly/pkg/errors"
	httputil "fixly/pkg/http"
	"fixly/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// RouteHandler computes ephemeral visit orders. When the request carries no
// explicit job list it optimizes over the provider's ongoing jobs.
type RouteHandler struct {
	jobs      service.JobService
	optimizer *routing.Optimizer
	validator *validator.JobValidator
	log       *logger.Logger
}

func NewRouteHandler(jobs service.JobService, optimizer *routing.Optimizer, v *validator.JobValidator, log *logger.Logger) *RouteHandler {
	return &RouteHandler{
		jobs:      jobs,
		optimizer: optimizer,
		validator: v,
		log:       log,
	}
}

func (h *RouteHandler) Optimize(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req validator.OptimizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Optimize", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	if err := h.validator.ValidateOptimize(&req); err != nil {
		h.writeError(w, "Optimize", err)
		return
	}

	stops, err := h.resolveStops(r, &req)
	if err != nil {
		h.writeError(w, "Optimize", err)
		return
	}

	route := h.optimizer.Optimize(req.CurrentPosition, stops)

	if err := httputil.WriteSuccess(w, route); err != nil {
		h.log.Error("failed to write success response", "handler", "Optimize", "operation", "WriteSuccess", "error", err)
	}
}

func (h *RouteHandler) resolveStops(r *http.Request, req *validator.OptimizeRequest) ([]routing.Stop, error) {
	if len(req.Jobs) > 0 {
		stops := make([]routing.Stop, 0, len(req.Jobs))
		for _, j := range req.Jobs {
			stops = append(stops, routing.Stop{
				BookingID:   j.BookingID,
				ServiceName: j.ServiceName,
				Coordinates: j.Coordinates,
			})
		}
		return stops, nil
	}

	if req.ProviderID == "" {
		return nil, apperrors.InvalidInput("either jobs or provider_id is required")
	}

	jobs, err := h.jobs.GetOngoingJobs(r.Context(), req.ProviderID)
	if err != nil {
		return nil, err
	}

	stops := make([]routing.Stop, 0, len(jobs))
	for _, j := range jobs {
		stops = append(stops, routing.Stop{
			BookingID:   j.BookingID,
			ServiceName: j.ServiceName,
			Coordinates: j.Coordinates,
		})
	}
	return stops, nil
}

func (h *RouteHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *RouteHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/routes/optimize", h.Optimize)
}
