package schema

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/erraggy/dtoapi/meta"
)

// Option configures a Factory or Registry.
type Option func(*config)

type config struct {
	namer      *Namer
	logger     meta.Logger
	registerer prometheus.Registerer
}

func newConfig(opts []Option) *config {
	cfg := &config{namer: NewNamer(NamingTypeOnly), logger: meta.NopLogger{}}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithNaming sets a built-in naming strategy. The default is NamingTypeOnly.
func WithNaming(strategy NamingStrategy) Option {
	return func(cfg *config) {
		cfg.namer = NewNamer(strategy)
	}
}

// WithNamer sets a namer, such as one built by NewTemplateNamer.
func WithNamer(n *Namer) Option {
	return func(cfg *config) {
		if n != nil {
			cfg.namer = n
		}
	}
}

// WithLogger sets the logger for skipped references and derivations.
func WithLogger(l meta.Logger) Option {
	return func(cfg *config) {
		cfg.logger = meta.OrNop(l)
	}
}

// WithRegisterer registers the derivation counters with reg. A nil
// registerer leaves the counters unregistered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(cfg *config) {
		cfg.registerer = reg
	}
}
