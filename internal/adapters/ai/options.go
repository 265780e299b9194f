package ai

// Option applies a configuration option to the Evaluator.
type Option func(*Evaluator)

// WithModel overrides the completion model.
func WithModel(model string) Option {
	return func(e *Evaluator) {
		if model != "" {
			e.model = model
		}
	}
}

// WithClient overrides the completion client. Used by tests.
func WithClient(client completionAPI) Option {
	return func(e *Evaluator) {
		if client != nil {
			e.client = client
		}
	}
}
