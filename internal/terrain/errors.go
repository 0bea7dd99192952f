package terrain

import "errors"

var (
	// ErrInvalidWidth is returned when the segment width is not a positive finite number.
	ErrInvalidWidth = errors.New("segment width must be positive and finite")

	// ErrInvalidMargin is returned when a window margin is NaN or infinite.
	ErrInvalidMargin = errors.New("window margin must be finite")

	// ErrNoTemplates is returned when neither templates nor forced templates are configured.
	ErrNoTemplates = errors.New("template set is empty")

	// ErrDuplicateTemplate is returned when two templates share an identity.
	ErrDuplicateTemplate = errors.New("duplicate template id")

	// ErrNilFactory is returned when a stream or pool is built without an instance factory.
	ErrNilFactory = errors.New("instance factory is nil")

	// ErrInvalidViewport is returned when viewport bounds are NaN or infinite or
	// the left edge is past the right edge.
	ErrInvalidViewport = errors.New("viewport bounds must be finite and ordered")

	// ErrAlreadyStarted is returned by Start on a stream that has already been initialized.
	ErrAlreadyStarted = errors.New("stream already started")

	// ErrTemplatesExhausted is returned when the forced queue is drained and there are
	// no templates left to choose from.
	ErrTemplatesExhausted = errors.New("no templates available for selection")

	// ErrSelectorRange is returned when a Selector picks an index outside the template list.
	ErrSelectorRange = errors.New("selector returned out-of-range index")
)

// Invariant violations. These indicate a programming or integration error rather
// than a runtime condition; they are logged, reported to the Observer and, in
// strict mode, panic.
var (
	// ErrUnregisteredTemplate is returned when an instance is released for a template
	// identity the pool has never seen through Acquire.
	ErrUnregisteredTemplate = errors.New("release of unregistered template")

	// ErrDoubleRelease is returned when an already inactive instance is released again.
	ErrDoubleRelease = errors.New("instance already released")

	// ErrEvictionMismatch is returned when no active instance sits at the position
	// being evicted.
	ErrEvictionMismatch = errors.New("no active segment at eviction position")
)
