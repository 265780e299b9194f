package worker

import (
	"github.com/bymedia/echoboard/pkg/logger"
)

// Option applies a configuration option to the ScoringWorker.
type Option func(*ScoringWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *ScoringWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(log logger.Logger) Option {
	return func(w *ScoringWorker) {
		if log != nil {
			w.logger = log
		}
	}
}
