package projector

import (
	"net/http"

	"fixly/internal/jobs/repository"
	httputil "fixly/pkg/http"
	"fixly/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// InboxHandler serves the materialized per-provider inbox. It is a fast
// bootstrap read for provider apps; the jobs service remains the
// authoritative source and every accept re-validates against it.
type InboxHandler struct {
	inbox repository.InboxRepository
	log   *logger.Logger
}

func NewInboxHandler(inbox repository.InboxRepository, log *logger.Logger) *InboxHandler {
	return &InboxHandler{
		inbox: inbox,
		log:   log,
	}
}

func (h *InboxHandler) GetInbox(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	providerID, err := httputil.ExtractProviderID(r)
	if err != nil {
		h.writeError(w, "GetInbox", err)
		return
	}

	entries, err := h.inbox.FindForProvider(r.Context(), providerID)
	if err != nil {
		h.writeError(w, "GetInbox", err)
		return
	}

	if err := httputil.WriteSuccess(w, entries); err != nil {
		h.log.Error("failed to write success response", "handler", "GetInbox", "operation", "WriteSuccess", "error", err)
	}
}

func (h *InboxHandler) writeError(w http.ResponseWriter, name string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", name, "operation", "WriteError", "error", writeErr)
	}
}

func (h *InboxHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/inbox", h.GetInbox)
}
