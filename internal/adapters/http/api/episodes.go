// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/bymedia/echoboard/internal/domain/model"
)

// EpisodesDependencies defines the interface for episode reads.
type EpisodesDependencies interface {
	Episodes(ctx context.Context) ([]model.Episode, error)
}

// EpisodesHandler handles episode listing requests.
type EpisodesHandler struct {
	deps EpisodesDependencies
}

// NewEpisodesHandler creates a new episodes handler.
func NewEpisodesHandler(deps EpisodesDependencies) *EpisodesHandler {
	return &EpisodesHandler{deps: deps}
}

// episodeResponse is the wire shape of one stored episode.
type episodeResponse struct {
	Identity  string `json:"identity"`
	Title     string `json:"title"`
	Published string `json:"published,omitempty"`
	Link      string `json:"link,omitempty"`
	Duration  string `json:"duration"`
	Summary   string `json:"summary,omitempty"`
	Source    string `json:"source"`
}

// HandleGetEpisodes handles GET /episodes requests.
func (h *EpisodesHandler) HandleGetEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	episodes, err := h.deps.Episodes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	out := make([]episodeResponse, 0, len(episodes))
	for _, ep := range episodes {
		resp := episodeResponse{
			Identity: ep.Identity,
			Title:    ep.Title,
			Link:     ep.Link,
			Duration: ep.Duration,
			Summary:  ep.Summary,
			Source:   ep.Source,
		}
		if !ep.Published.IsZero() {
			resp.Published = ep.Published.UTC().Format(time.RFC3339)
		}
		out = append(out, resp)
	}
	writeJSON(w, http.StatusOK, out)
}
