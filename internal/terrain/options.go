package terrain

import (
	"io"
	"log/slog"
)

// Observer receives stream and pool events, e.g. for metrics. Calls happen
// synchronously on the goroutine driving the stream.
type Observer interface {
	SegmentSpawned(id TemplateID, reused bool)
	SegmentRecycled(id TemplateID)
	InvariantViolated(err error)
}

type nopObserver struct{}

func (nopObserver) SegmentSpawned(TemplateID, bool) {}
func (nopObserver) SegmentRecycled(TemplateID)      {}
func (nopObserver) InvariantViolated(error)         {}

type options struct {
	log      *slog.Logger
	selector Selector
	observer Observer
	strict   bool
}

// Option configures a Stream or Pool.
type Option func(*options)

// WithLogger sets the logger used for invariant violations and debug tracing.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithSelector replaces the default uniform random template selection.
func WithSelector(s Selector) Option {
	return func(o *options) {
		if s != nil {
			o.selector = s
		}
	}
}

// WithObserver registers an event sink.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithStrict makes invariant violations panic instead of degrading. Meant for
// tests and debug builds.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

func buildOptions(opts []Option) options {
	o := options{
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		selector: globalSelector{},
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// violation reports an invariant violation and panics in strict mode.
func (o options) violation(err error, attrs ...any) {
	o.log.Error("terrain invariant violated", append([]any{slog.String("error", err.Error())}, attrs...)...)
	o.observer.InvariantViolated(err)
	if o.strict {
		panic(err)
	}
}
