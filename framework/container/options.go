package container

import (
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxSelectorDepth bounds how many selectors may expand into one
// another before a module is reached. A selector that re-enters itself is a
// cycle, not a depth failure.
const DefaultMaxSelectorDepth = 16

// Option configures a Resolver.
type Option func(r *Resolver)

// WithPolicy selects the conflict policy applied to every pass.
func WithPolicy(p Policy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithMaxSelectorDepth bounds nested selector expansion. Values below 1 are
// ignored.
func WithMaxSelectorDepth(n int) Option {
	return func(r *Resolver) {
		if n > 0 {
			r.maxSelectorDepth = n
		}
	}
}

// WithProperties sets the configuration snapshot plugins can read. The map
// is copied.
func WithProperties(p Properties) Option {
	return func(r *Resolver) { r.props = p.Clone() }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Resolver) { r.logger = l }
}

// WithObserver adds an observer notified after every pass.
func WithObserver(o Observer) Option {
	return func(r *Resolver) {
		if o != nil {
			r.observers = append(r.observers, o)
		}
	}
}

// Report summarises one finished resolution pass.
type Report struct {
	Root        string
	PassID      string
	Policy      Policy
	Duration    time.Duration
	Definitions int
	Diagnostics int
	Err         error
}

// Observer is notified once per pass, successful or not.
type Observer interface {
	ObserveResolution(r Report)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(r Report)

func (f ObserverFunc) ObserveResolution(r Report) { f(r) }
