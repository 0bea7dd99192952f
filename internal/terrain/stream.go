package terrain

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/gammazero/deque"
)

// Config holds the stream parameters. All templates share SegmentWidth;
// heterogeneous widths are not supported.
type Config struct {
	SegmentWidth float64 `json:"segment_width"`
	StartMargin  float64 `json:"start_margin"`
	EndMargin    float64 `json:"end_margin"`
}

// Validate rejects configurations under which the stream cannot establish its
// initial coverage.
func (c Config) Validate() error {
	if !finite(c.SegmentWidth) || c.SegmentWidth <= 0 {
		return fmt.Errorf("%w: %g", ErrInvalidWidth, c.SegmentWidth)
	}
	if !finite(c.StartMargin) || !finite(c.EndMargin) {
		return ErrInvalidMargin
	}
	return nil
}

// Cursors are the append and evict positions of a stream.
type Cursors struct {
	// LastGenerated is where the next segment will be appended.
	LastGenerated float64 `json:"last_generated_x"`
	// LastRemoved is the position up to which segments have been evicted.
	LastRemoved float64 `json:"last_removed_x"`
}

// StreamStats counts stream activity since construction.
type StreamStats struct {
	Ticks      int `json:"ticks"`
	Spawned    int `json:"spawned"`
	Evicted    int `json:"evicted"`
	Mismatches int `json:"mismatches"`
}

// Stream keeps the target window covered by contiguous, non-overlapping
// segments. Segments are appended at the leading cursor and evicted from the
// trailing one; evicted segments go back to the pool.
//
// Positions are derived from integer slot numbers (x = origin + slot*width) so
// that the evict cursor lands exactly on the x an instance was placed at.
//
// A Stream is owned by a single driver and is not safe for concurrent use.
type Stream struct {
	cfg       Config
	tracker   Tracker
	templates []Template
	byID      map[TemplateID]Template
	forced    []Template
	pool      *Pool
	opts      options

	active deque.Deque[Instance]

	started   bool
	origin    float64
	nextSlot  int64 // slot of the next append
	evictSlot int64 // slot of the last eviction, -1 before any
	window    Window
	stats     StreamStats
}

// NewStream validates cfg and set and returns an unstarted stream. Configuration
// errors are returned here; a stream that constructs successfully can always
// cover its window.
func NewStream(cfg Config, set TemplateSet, factory Factory, opts ...Option) (*Stream, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if factory == nil {
		return nil, ErrNilFactory
	}

	o := buildOptions(opts)
	return &Stream{
		cfg:       cfg,
		tracker:   Tracker{StartMargin: cfg.StartMargin, EndMargin: cfg.EndMargin},
		templates: append([]Template(nil), set.Templates...),
		byID:      set.index(),
		forced:    append([]Template(nil), set.Forced...),
		pool:      newPool(factory, o),
		opts:      o,
		evictSlot: -1,
	}, nil
}

// Start anchors the stream at the window start of v, appends every forced
// template regardless of the window end and then fills the window.
func (s *Stream) Start(v Viewport) error {
	if s.started {
		return ErrAlreadyStarted
	}
	w, err := s.windowFor(v)
	if err != nil {
		return err
	}

	s.window = w
	s.origin = s.window.Start
	s.nextSlot = 0
	s.evictSlot = -1
	s.started = true

	for len(s.forced) > 0 {
		t := s.forced[0]
		s.forced = s.forced[1:]
		s.spawn(t)
	}

	s.opts.log.Debug("stream started",
		slog.Float64("origin", s.origin),
		slog.Float64("window_end", s.window.End))
	return s.fill(s.window.End)
}

// Tick runs one step for viewport v: append until the leading cursor reaches
// the window end, then evict segments that fell behind the window start. The
// first Tick of an unstarted stream performs Start instead.
//
// Invariant violations found while evicting are returned joined; the stream
// keeps going, so the caller may log and continue.
func (s *Stream) Tick(v Viewport) error {
	if !s.started {
		return s.Start(v)
	}
	w, err := s.windowFor(v)
	if err != nil {
		return err
	}

	s.stats.Ticks++
	s.window = w

	var errs []error
	if err := s.fill(s.window.End); err != nil {
		errs = append(errs, err)
	}
	errs = append(errs, s.evict(s.window.Start)...)
	return errors.Join(errs...)
}

// windowFor validates v and the window it maps to.
func (s *Stream) windowFor(v Viewport) (Window, error) {
	if err := v.Validate(); err != nil {
		return Window{}, err
	}
	w := s.tracker.Window(v)
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

// fill appends segments while the append cursor is before end.
func (s *Stream) fill(end float64) error {
	for s.slotX(s.nextSlot) < end {
		t, err := s.next()
		if err != nil {
			return err
		}
		s.spawn(t)
	}
	return nil
}

// evict releases segments whose trailing edge is more than one segment width
// behind start. The cursor never passes the append cursor.
func (s *Stream) evict(start float64) []error {
	var errs []error
	for s.evictSlot+1 < s.nextSlot && s.slotX(s.evictSlot)+s.cfg.SegmentWidth < start {
		s.evictSlot++
		if err := s.remove(s.slotX(s.evictSlot)); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// remove evicts the active instance placed at x. The oldest active instance is
// expected there; if something moved it, fall back to the first instance at x
// in insertion order. When none is found the eviction is skipped and reported.
func (s *Stream) remove(x float64) error {
	at := 0
	if s.active.Len() == 0 || s.active.Front().X() != x {
		at = s.active.Index(func(inst Instance) bool { return inst.X() == x })
	}

	if at < 0 {
		s.stats.Mismatches++
		err := fmt.Errorf("%w: x=%g", ErrEvictionMismatch, x)
		s.opts.violation(err, slog.Float64("x", x), slog.Int("active", s.active.Len()))
		return err
	}
	if at > 0 {
		s.stats.Mismatches++
		s.opts.log.Warn("evicted segment out of order",
			slog.Float64("x", x),
			slog.Int("index", at))
	}

	// On a rejected release the instance stays in the active sequence; it is
	// always either active or pooled.
	inst := s.active.At(at)
	if err := s.pool.Release(inst); err != nil {
		return err
	}
	s.active.Remove(at)
	s.stats.Evicted++
	s.opts.log.Debug("segment evicted",
		slog.Float64("x", x),
		slog.Int("template_id", int(inst.TemplateID())))
	return nil
}

// next returns the next template: queued forced templates first, then the
// selector's choice.
func (s *Stream) next() (Template, error) {
	if len(s.forced) > 0 {
		t := s.forced[0]
		s.forced = s.forced[1:]
		return t, nil
	}
	if len(s.templates) == 0 {
		return Template{}, ErrTemplatesExhausted
	}

	i := s.opts.selector.Pick(len(s.templates))
	if i < 0 || i >= len(s.templates) {
		return Template{}, fmt.Errorf("%w: %d of %d", ErrSelectorRange, i, len(s.templates))
	}
	return s.templates[i], nil
}

func (s *Stream) spawn(t Template) {
	x := s.slotX(s.nextSlot)
	inst := s.pool.Acquire(t)
	inst.SetX(x)
	s.active.PushBack(inst)
	s.nextSlot++
	s.stats.Spawned++
	s.opts.log.Debug("segment spawned",
		slog.Float64("x", x),
		slog.String("template", t.String()))
}

func (s *Stream) slotX(slot int64) float64 {
	return s.origin + float64(slot)*s.cfg.SegmentWidth
}

// Pending returns how many segments a Tick (or Start) for v would append.
// Drivers fed by untrusted input use it to reject viewport jumps that would
// allocate without bound. Counts too large for an int32 saturate at
// math.MaxInt. An invalid viewport yields 0; Tick rejects it.
func (s *Stream) Pending(v Viewport) int {
	w, err := s.windowFor(v)
	if err != nil {
		return 0
	}
	from, forced := s.slotX(s.nextSlot), 0
	if !s.started {
		forced = len(s.forced)
		from = w.Start + float64(forced)*s.cfg.SegmentWidth
	}
	if from >= w.End {
		return forced
	}
	c := math.Ceil((w.End - from) / s.cfg.SegmentWidth)
	if c > math.MaxInt32 {
		return math.MaxInt
	}
	return forced + int(c)
}

// Started reports whether Start has run.
func (s *Stream) Started() bool {
	return s.started
}

// Config returns the stream configuration.
func (s *Stream) Config() Config {
	return s.cfg
}

// Cursors returns the append and evict cursors.
func (s *Stream) Cursors() Cursors {
	return Cursors{
		LastGenerated: s.slotX(s.nextSlot),
		LastRemoved:   s.slotX(s.evictSlot),
	}
}

// Window returns the window computed by the last Start or Tick.
func (s *Stream) Window() Window {
	return s.window
}

// Active returns the active instances ordered by x.
func (s *Stream) Active() []Instance {
	out := make([]Instance, 0, s.active.Len())
	for i := 0; i < s.active.Len(); i++ {
		out = append(out, s.active.At(i))
	}
	return out
}

// ActiveCount returns the number of active instances.
func (s *Stream) ActiveCount() int {
	return s.active.Len()
}

// PendingForced returns how many forced templates have not been placed yet.
func (s *Stream) PendingForced() int {
	return len(s.forced)
}

// Template looks up a configured template by identity.
func (s *Stream) Template(id TemplateID) (Template, bool) {
	t, ok := s.byID[id]
	return t, ok
}

// Pool returns the stream's pool.
func (s *Stream) Pool() *Pool {
	return s.pool
}

// Stats returns the stream counters.
func (s *Stream) Stats() StreamStats {
	return s.stats
}

// CheckInvariants verifies that the active sequence is contiguous and ends at
// the append cursor, that every active instance is flagged active and not
// pooled, and that the evict cursor trails the append cursor.
func (s *Stream) CheckInvariants() error {
	if !s.started {
		return nil
	}

	c := s.Cursors()
	if c.LastRemoved > c.LastGenerated {
		return fmt.Errorf("evict cursor %g passed append cursor %g", c.LastRemoved, c.LastGenerated)
	}

	n := s.active.Len()
	if first := s.nextSlot - int64(n); first <= s.evictSlot {
		return fmt.Errorf("%d active segments but only %d slots since the evict cursor", n, s.nextSlot-s.evictSlot-1)
	}
	for i := 0; i < n; i++ {
		inst := s.active.At(i)
		if !inst.Active() {
			return fmt.Errorf("inactive instance in active sequence at x=%g", inst.X())
		}
		if s.pool.Contains(inst) {
			return fmt.Errorf("instance at x=%g is both active and pooled", inst.X())
		}
		// Slot of the i-th active segment when the sequence ends at the append cursor.
		if want := s.slotX(s.nextSlot - int64(n-i)); inst.X() != want {
			return fmt.Errorf("gap or overlap at index %d: x=%g, want %g", i, inst.X(), want)
		}
	}
	return nil
}
