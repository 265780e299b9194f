package rank

// Option applies a configuration option to the Ranker.
type Option func(*Ranker)

// WithTopThreshold sets the normalized score at or above which the top
// performer badge is assigned.
func WithTopThreshold(threshold float64) Option {
	return func(r *Ranker) {
		if threshold > 0 {
			r.topThreshold = threshold
		}
	}
}

// WithImprovedThreshold sets the improvement delta above which the most
// improved badge is assigned.
func WithImprovedThreshold(threshold float64) Option {
	return func(r *Ranker) {
		if threshold > 0 {
			r.improvedThreshold = threshold
		}
	}
}
