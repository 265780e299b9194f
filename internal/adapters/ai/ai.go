// Package ai scores episodes and writes coaching feedback through the OpenAI
// chat completion API.
package ai

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/logger"
	"github.com/bymedia/echoboard/pkg/metrics"
)

const (
	defaultModel      = "gpt-4o-mini"
	scoreMaxTokens    = 5
	feedbackMaxTokens = 600
)

// completionAPI is the slice of the OpenAI client the evaluator needs.
// Narrowed for tests.
type completionAPI interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Evaluator rates episodes and generates coaching feedback.
type Evaluator struct {
	client completionAPI
	model  string
	log    logger.Logger
}

// New creates an Evaluator backed by the OpenAI API.
func New(apiKey string, opts ...Option) (*Evaluator, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	e := &Evaluator{
		client: openai.NewClient(apiKey),
		model:  defaultModel,
		log:    logger.Get().Named("ai"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// ScoreEpisode rates an episode from 1 to 10 using its title and summary.
// The returned record carries the relevance metric for the episode identity.
func (e *Evaluator) ScoreEpisode(ctx context.Context, ep model.Episode) (model.ScoreRecord, error) {
	prompt := fmt.Sprintf(
		"Rate this podcast on a scale from 1 to 10 based on the title and description.\n\n"+
			"Title: %s\nDescription: %s\n\nScore:",
		ep.Title, ep.Summary)

	start := time.Now()
	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a podcast ranking assistant."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   scoreMaxTokens,
		Temperature: 0,
	})
	metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.RecordScoringError()
		return model.ScoreRecord{}, fmt.Errorf("%w: %w", ErrComputeFailure, err)
	}

	if len(resp.Choices) == 0 {
		metrics.RecordScoringError()
		return model.ScoreRecord{}, fmt.Errorf("%w: empty completion choices", ErrComputeFailure)
	}
	score, err := parseScore(resp.Choices[0].Message.Content)
	if err != nil {
		metrics.RecordScoringError()
		return model.ScoreRecord{}, err
	}

	return model.ScoreRecord{
		Identity:  ep.Identity,
		Metric:    model.MetricRelevance,
		Raw:       score,
		Present:   true,
		Show:      ep.Title,
		Release:   ep.Published,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Feedback generates coaching feedback from a transcript and listener
// comments.
func (e *Evaluator) Feedback(ctx context.Context, transcript string, comments []string) (string, error) {
	prompt := fmt.Sprintf(
		"You are an expert podcast coach.\n"+
			"Given the following podcast transcript and listener comments, give constructive, "+
			"clear, helpful feedback with a coaching tone.\n"+
			"Focus on:\n- Content quality\n- Delivery & tone\n- Engagement\n- Structure\n"+
			"- Suggestions for improvement\n\n"+
			"Transcript:\n%s\n\nListener Comments:\n%s\n\nRespond with your feedback:",
		transcript, strings.Join(comments, "\n"))

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a professional podcast coach."},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: feedbackMaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrComputeFailure, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion choices", ErrComputeFailure)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// parseScore extracts the numeric rating from a completion. Model output
// occasionally carries a label or trailing punctuation.
func parseScore(raw string) (float64, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "Score:")
	text = strings.TrimSpace(strings.Trim(text, ".!"))
	if idx := strings.IndexAny(text, " \n"); idx > 0 {
		text = text[:idx]
	}

	score, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: unparseable score %q", ErrComputeFailure, raw)
	}
	if score < 0 {
		return 0, fmt.Errorf("%w: negative score %q", ErrComputeFailure, raw)
	}
	return score, nil
}
