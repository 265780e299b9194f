// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"

	"github.com/bymedia/echoboard/internal/domain/model"
)

// PollDependencies defines the interface for triggering a polling cycle.
type PollDependencies interface {
	RunOnce(ctx context.Context) (model.PollSummary, error)
}

// PollHandler handles on-demand polling requests.
type PollHandler struct {
	deps PollDependencies
}

// NewPollHandler creates a new poll handler.
func NewPollHandler(deps PollDependencies) *PollHandler {
	return &PollHandler{deps: deps}
}

// HandlePoll handles POST /poll requests.
func (h *PollHandler) HandlePoll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	summary, err := h.deps.RunOnce(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
