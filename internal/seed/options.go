package seed

import "github.com/okian/prscore/internal/domain/rules"

// Option configures the Generator.
type Option func(*Generator)

// WithContingents sets how many contingents to generate.
func WithContingents(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.contingents = n
		}
	}
}

// WithMembers sets the roster size of each contingent.
func WithMembers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.members = n
		}
	}
}

// WithEvents sets how many events to generate.
func WithEvents(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.events = n
		}
	}
}

// WithSeed makes the output reproducible.
func WithSeed(seed int64) Option {
	return func(g *Generator) {
		g.seed = seed
	}
}

// WithCatalog resolves fact points against c.
func WithCatalog(c *rules.Catalog) Option {
	return func(g *Generator) {
		if c != nil {
			g.catalog = c
		}
	}
}
