package bus

import "github.com/okian/prscore/pkg/logger"

// Option configures the Bus.
type Option func(*Bus)

// WithBufferSize sets the per-subscriber output buffer.
func WithBufferSize(n int64) Option {
	return func(b *Bus) {
		if n > 0 {
			b.buffer = n
		}
	}
}

// WithLogger overrides the bus logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Bus) {
		if l != nil {
			b.log = l
		}
	}
}
