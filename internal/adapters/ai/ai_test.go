package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/smartystreets/goconvey/convey"

	"github.com/bymedia/echoboard/internal/adapters/ai"
	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/logger"
)

type fakeCompletion struct {
	content string
	empty   bool // respond with no choices at all
	err     error
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompletion) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if f.empty {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: f.content}},
		},
	}, nil
}

func newEvaluator(t *testing.T, fake *fakeCompletion) *ai.Evaluator {
	t.Helper()
	_ = logger.Init()
	eval, err := ai.New("test-key", ai.WithClient(fake))
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	return eval
}

func TestScoreEpisode(t *testing.T) {
	convey.Convey("Given an evaluator with a fake completion backend", t, func() {
		episode := model.Episode{
			Identity:  "ep-1",
			Title:     "Deep Dive",
			Summary:   "a show about systems",
			Published: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		}

		convey.Convey("When the model returns a plain number", func() {
			fake := &fakeCompletion{content: "8"}
			eval := newEvaluator(t, fake)

			rec, err := eval.ScoreEpisode(context.Background(), episode)

			convey.Convey("Then a relevance score record should be produced", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Identity, convey.ShouldEqual, "ep-1")
				convey.So(rec.Metric, convey.ShouldEqual, model.MetricRelevance)
				convey.So(rec.Raw, convey.ShouldEqual, 8)
				convey.So(rec.Present, convey.ShouldBeTrue)
			})

			convey.Convey("Then the request should pin temperature to zero", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(fake.lastReq.Temperature, convey.ShouldEqual, 0)
				convey.So(fake.lastReq.MaxTokens, convey.ShouldEqual, 5)
			})
		})

		convey.Convey("When the model decorates the number", func() {
			fake := &fakeCompletion{content: "Score: 7.5."}
			eval := newEvaluator(t, fake)

			rec, err := eval.ScoreEpisode(context.Background(), episode)

			convey.Convey("Then the score should still parse", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(rec.Raw, convey.ShouldEqual, 7.5)
			})
		})

		convey.Convey("When the model returns prose", func() {
			fake := &fakeCompletion{content: "I cannot rate this."}
			eval := newEvaluator(t, fake)

			_, err := eval.ScoreEpisode(context.Background(), episode)

			convey.Convey("Then a compute failure should be returned", func() {
				convey.So(err, convey.ShouldWrap, ai.ErrComputeFailure)
			})
		})

		convey.Convey("When the API call fails", func() {
			fake := &fakeCompletion{err: errors.New("rate limited")}
			eval := newEvaluator(t, fake)

			_, err := eval.ScoreEpisode(context.Background(), episode)

			convey.Convey("Then the error should wrap the compute failure kind", func() {
				convey.So(err, convey.ShouldWrap, ai.ErrComputeFailure)
			})
		})

		convey.Convey("When the response carries no choices", func() {
			fake := &fakeCompletion{empty: true}
			eval := newEvaluator(t, fake)

			_, err := eval.ScoreEpisode(context.Background(), episode)

			convey.Convey("Then a compute failure should be returned, not a panic", func() {
				convey.So(err, convey.ShouldWrap, ai.ErrComputeFailure)
			})
		})
	})

	convey.Convey("Given an empty API key", t, func() {
		_ = logger.Init()
		_, err := ai.New("  ")

		convey.Convey("Then construction should fail", func() {
			convey.So(err, convey.ShouldWrap, ai.ErrMissingAPIKey)
		})
	})
}

func TestFeedback(t *testing.T) {
	convey.Convey("Given an evaluator with a fake completion backend", t, func() {
		fake := &fakeCompletion{content: "  Tighten the intro segment.  "}
		eval := newEvaluator(t, fake)

		convey.Convey("When generating feedback", func() {
			feedback, err := eval.Feedback(context.Background(),
				"welcome to the show", []string{"great episode", "too long"})

			convey.Convey("Then the trimmed completion should be returned", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(feedback, convey.ShouldEqual, "Tighten the intro segment.")
			})
		})

		convey.Convey("When the response carries no choices", func() {
			fake.empty = true

			_, err := eval.Feedback(context.Background(), "welcome", nil)

			convey.Convey("Then a compute failure should be returned", func() {
				convey.So(err, convey.ShouldWrap, ai.ErrComputeFailure)
			})
		})
	})
}
