// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/bymedia/echoboard/internal/adapters/feeds"
)

// Platforms accepted by the search endpoint.
const (
	platformSpotify = "spotify"
	platformYouTube = "youtube"
)

// SearchDependencies defines the interface for cached platform searches.
type SearchDependencies interface {
	Search(ctx context.Context, platform, query string) (json.RawMessage, error)
}

// SearchHandler handles external platform search requests.
type SearchHandler struct {
	deps SearchDependencies
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(deps SearchDependencies) *SearchHandler {
	return &SearchHandler{deps: deps}
}

// HandleSearch handles GET /search?platform=P&keyword=K requests. The
// shorter q parameter is accepted as an alias for keyword.
func (h *SearchHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	platform := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("platform")))
	if platform != platformSpotify && platform != platformYouTube {
		writeError(w, http.StatusBadRequest, "unsupported_platform", ErrUnsupportedPlatform)
		return
	}
	query := strings.TrimSpace(r.URL.Query().Get("keyword"))
	if query == "" {
		query = strings.TrimSpace(r.URL.Query().Get("q"))
	}
	if query == "" {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	payload, err := h.deps.Search(r.Context(), platform, query)
	switch {
	case errors.Is(err, feeds.ErrMissingCredential):
		writeError(w, http.StatusServiceUnavailable, "missing_credential", err)
		return
	case errors.Is(err, feeds.ErrSourceUnavailable):
		writeError(w, http.StatusBadGateway, "source_unavailable", err)
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
