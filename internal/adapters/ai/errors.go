package ai

import "errors"

// Sentinel kinds for evaluator errors.
var (
	ErrMissingAPIKey  = errors.New("missing openai api key")
	ErrComputeFailure = errors.New("ai evaluation failed")
)
