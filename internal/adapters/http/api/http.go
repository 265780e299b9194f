// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bymedia/echoboard/internal/domain/model"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	// TopN returns the top n leaderboard entries from the latest snapshot.
	TopN(ctx context.Context, n int) ([]Entry, error)

	// Episodes lists every stored episode, newest first.
	Episodes(ctx context.Context) ([]model.Episode, error)

	// SubmitFeedback records a manual rating and returns the resolved
	// identity it was filed under.
	SubmitFeedback(ctx context.Context, fb Feedback) (string, error)

	// Search queries an external platform through the content cache and
	// returns the cached JSON payload verbatim.
	Search(ctx context.Context, platform, query string) (json.RawMessage, error)

	// RunOnce executes a full fetch-score-recompute cycle.
	RunOnce(ctx context.Context) (model.PollSummary, error)
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = model.LeaderboardEntry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	leaderboardHandler *LeaderboardHandler
	episodesHandler    *EpisodesHandler
	feedbackHandler    *FeedbackHandler
	searchHandler      *SearchHandler
	pollHandler        *PollHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLimit),
		episodesHandler:    NewEpisodesHandler(deps),
		feedbackHandler:    NewFeedbackHandler(deps),
		searchHandler:      NewSearchHandler(deps),
		pollHandler:        NewPollHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/episodes", MetricsMiddleware(s.episodesHandler.HandleGetEpisodes, "episodes"))
	mux.HandleFunc("/feedback", MetricsMiddleware(s.feedbackHandler.HandlePostFeedback, "feedback"))
	mux.HandleFunc("/search", MetricsMiddleware(s.searchHandler.HandleSearch, "search"))
	mux.HandleFunc("/poll", MetricsMiddleware(s.pollHandler.HandlePoll, "poll"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
