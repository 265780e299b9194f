// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bymedia/echoboard/internal/domain/model"
)

// Rated score bounds for manual feedback submissions.
const (
	minRatedScore = 1
	maxRatedScore = 5
)

// Feedback is a validated manual rating, ready to be filed against an
// episode identity.
type Feedback struct {
	Identity     string
	Link         string
	Title        string
	Guest        string
	Show         string
	Release      time.Time
	Scores       map[model.Metric]float64
	Improvements map[model.Metric]float64
	Comment      string
}

// FeedbackDependencies defines the interface for recording manual ratings.
type FeedbackDependencies interface {
	SubmitFeedback(ctx context.Context, fb Feedback) (string, error)
}

// FeedbackHandler handles manual rating submissions.
type FeedbackHandler struct {
	deps FeedbackDependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps FeedbackDependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

// feedbackRequest mirrors the JSON schema for POST /feedback.
type feedbackRequest struct {
	Identity     string             `json:"identity"`
	Link         string             `json:"link"`
	Title        string             `json:"title"`
	Guest        string             `json:"guest"`
	Show         string             `json:"show"`
	Release      string             `json:"release_date"`
	Scores       map[string]float64 `json:"scores"`
	Improvements map[string]float64 `json:"improvements"`
	Comment      string             `json:"comment"`
}

func (f feedbackRequest) validate() error {
	if strings.TrimSpace(f.Identity) == "" && strings.TrimSpace(f.Link) == "" {
		return errors.New("missing identity; provide identity or link")
	}
	if len(f.Scores) == 0 && len(f.Improvements) == 0 {
		return errors.New("missing scores; provide at least one metric")
	}
	for name, v := range f.Scores {
		if !isRatedMetric(name) {
			return fmt.Errorf("unknown metric %q", name)
		}
		if v < minRatedScore || v > maxRatedScore {
			return fmt.Errorf("metric %q out of range [%d, %d]", name, minRatedScore, maxRatedScore)
		}
	}
	for name := range f.Improvements {
		if !isRatedMetric(name) {
			return fmt.Errorf("unknown metric %q", name)
		}
	}
	if f.Release != "" {
		if _, err := parseReleaseDate(f.Release); err != nil {
			return errors.New("invalid release_date; use YYYY-MM-DD or RFC3339")
		}
	}
	return nil
}

func isRatedMetric(name string) bool {
	for _, m := range model.RatedMetrics() {
		if string(m) == name {
			return true
		}
	}
	return false
}

func parseReleaseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}

func (f feedbackRequest) toFeedback() Feedback {
	fb := Feedback{
		Identity:     strings.TrimSpace(f.Identity),
		Link:         strings.TrimSpace(f.Link),
		Title:        strings.TrimSpace(f.Title),
		Guest:        strings.TrimSpace(f.Guest),
		Show:         strings.TrimSpace(f.Show),
		Comment:      strings.TrimSpace(f.Comment),
		Scores:       make(map[model.Metric]float64, len(f.Scores)),
		Improvements: make(map[model.Metric]float64, len(f.Improvements)),
	}
	if f.Release != "" {
		fb.Release, _ = parseReleaseDate(f.Release)
	}
	for name, v := range f.Scores {
		fb.Scores[model.Metric(name)] = v
	}
	for name, v := range f.Improvements {
		fb.Improvements[model.Metric(name)] = v
	}
	return fb
}

type feedbackResponse struct {
	Status   string `json:"status"`
	Identity string `json:"identity"`
}

// HandlePostFeedback handles POST /feedback requests.
func (h *FeedbackHandler) HandlePostFeedback(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	identity, err := h.deps.SubmitFeedback(r.Context(), req.toFeedback())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, feedbackResponse{Status: "recorded", Identity: identity})
}
