package api

const defaultMaxLimit = 100

type options struct {
	maxLimit   int
	awardRate  float64
	awardBurst int
}

// Option configures the Server.
type Option func(*options)

// WithMaxLimit caps GET /leaderboard?limit.
func WithMaxLimit(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxLimit = n
		}
	}
}

// WithAwardRateLimit limits POST /awards per client IP. A non-positive
// rate disables limiting.
func WithAwardRateLimit(perSecond float64, burst int) Option {
	return func(o *options) {
		o.awardRate = perSecond
		o.awardBurst = burst
	}
}
