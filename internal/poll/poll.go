// Package poll drives recurring polling cycles on a fixed delay.
package poll

import (
	"context"
	"time"

	"github.com/bymedia/echoboard/internal/domain/model"
	"github.com/bymedia/echoboard/pkg/logger"
)

const defaultInterval = 15 * time.Minute

// Runner executes one polling cycle.
type Runner interface {
	RunOnce(ctx context.Context) (model.PollSummary, error)
}

// Poller runs cycles sequentially: the delay starts after a cycle finishes,
// so a slow cycle never overlaps the next one.
type Poller struct {
	runner   Runner
	interval time.Duration
	logger   logger.Logger
}

// Option applies a configuration option to the Poller.
type Option func(*Poller)

// WithInterval sets the delay between cycle completions.
func WithInterval(interval time.Duration) Option {
	return func(p *Poller) {
		if interval > 0 {
			p.interval = interval
		}
	}
}

// WithLogger sets a custom logger for the poller.
func WithLogger(log logger.Logger) Option {
	return func(p *Poller) {
		if log != nil {
			p.logger = log
		}
	}
}

// New creates a Poller around runner.
func New(runner Runner, opts ...Option) *Poller {
	p := &Poller{
		runner:   runner,
		interval: defaultInterval,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = logger.Named("poll")
	}
	return p
}

// Run executes cycles until ctx is canceled, starting with an immediate one.
// Cycle failures are logged and do not stop the loop.
func (p *Poller) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		summary, err := p.runner.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.logger.Error(ctx, "poll cycle failed", logger.Error(err))
		} else {
			p.logger.Debug(ctx, "poll cycle finished",
				logger.String("runID", summary.RunID),
				logger.Int("new", summary.NewEpisodes),
			)
		}

		timer.Reset(p.interval)
	}
}
