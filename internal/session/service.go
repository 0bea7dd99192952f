package session

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"terrain-streamer/internal/terrain"
)

const (
	// DefaultMaxSessions is used when Defaults.MaxSessions is not positive.
	DefaultMaxSessions = 64

	// DefaultMaxAppendPerTick is used when Defaults.MaxAppendPerTick is not positive.
	DefaultMaxAppendPerTick = 1024
)

// ErrInvalidRequest wraps configuration and input errors caused by the caller.
var ErrInvalidRequest = errors.New("invalid request")

// Defaults are applied to every session the service creates.
type Defaults struct {
	Config      terrain.Config
	Templates   terrain.TemplateSet
	MaxSessions int
	Strict      bool

	MaxAppendPerTick int
}

// Service builds sessions from the catalog defaults and delegates storage and
// locking to Repository.
type Service struct {
	repo     Repository
	defaults Defaults
	log      *slog.Logger
	observer terrain.Observer
	seq      atomic.Uint64
}

// NewService returns a Service. observer may be nil.
func NewService(repo Repository, d Defaults, log *slog.Logger, observer terrain.Observer) *Service {
	if d.MaxSessions <= 0 {
		d.MaxSessions = DefaultMaxSessions
	}
	if d.MaxAppendPerTick <= 0 {
		d.MaxAppendPerTick = DefaultMaxAppendPerTick
	}
	return &Service{repo: repo, defaults: d, log: log, observer: observer}
}

// Create builds a stream for req and registers the session. When req carries a
// viewport the stream is started right away and any start error is returned
// with the snapshot.
func (s *Service) Create(req CreateRequest) (Snapshot, error) {
	if req.Viewport != nil {
		if err := req.Viewport.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
	}

	id := req.ID
	if id == "" {
		id = SessionID(fmt.Sprintf("s%d", s.seq.Add(1)))
	}

	cfg := s.defaults.Config
	if req.StartMargin != nil {
		cfg.StartMargin = *req.StartMargin
	}
	if req.EndMargin != nil {
		cfg.EndMargin = *req.EndMargin
	}

	opts := []terrain.Option{
		terrain.WithLogger(s.log.With(slog.String("session_id", string(id)))),
		terrain.WithStrict(s.defaults.Strict),
		terrain.WithObserver(s.observer),
	}
	if req.Seed != nil {
		opts = append(opts, terrain.WithSelector(terrain.NewRandomSelector(*req.Seed)))
	}

	factory := &terrain.SegmentFactory{}
	stream, err := terrain.NewStream(cfg, s.defaults.Templates, factory, opts...)
	if err != nil {
		return Snapshot{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	st := &SessionState{ID: id, Stream: stream, Factory: factory, MaxAppend: s.defaults.MaxAppendPerTick}
	if err := s.repo.Create(st, s.defaults.MaxSessions); err != nil {
		return Snapshot{}, err
	}
	s.log.Info("session created",
		slog.String("session_id", string(id)),
		slog.Float64("segment_width", cfg.SegmentWidth),
		slog.Float64("start_margin", cfg.StartMargin),
		slog.Float64("end_margin", cfg.EndMargin))

	if req.Viewport != nil {
		return s.Tick(id, *req.Viewport)
	}
	snap, _ := s.repo.Snapshot(id)
	return snap, nil
}

// Tick advances a session by one frame.
func (s *Service) Tick(id SessionID, v terrain.Viewport) (Snapshot, error) {
	snap, err := s.repo.Tick(id, v)
	if errors.Is(err, terrain.ErrInvalidViewport) || errors.Is(err, ErrViewportJump) {
		return snap, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return snap, err
}

// Snapshot returns the current state of a session.
func (s *Service) Snapshot(id SessionID) (Snapshot, bool) {
	return s.repo.Snapshot(id)
}

// End stops a session; the stream is frozen as is.
func (s *Service) End(id SessionID) error {
	if err := s.repo.End(id); err != nil {
		return err
	}
	s.log.Info("session ended", slog.String("session_id", string(id)))
	return nil
}

// ActiveSessionCount returns the number of sessions still accepting ticks.
func (s *Service) ActiveSessionCount() int {
	return s.repo.ActiveSessionCount()
}

// List returns all session ids.
func (s *Service) List() []SessionID {
	return s.repo.List()
}

// IsInvariantViolation reports whether err only carries invariant violations,
// after which the stream keeps running in a degraded state.
func IsInvariantViolation(err error) bool {
	if err == nil {
		return false
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			if !IsInvariantViolation(e) {
				return false
			}
		}
		return true
	}
	return errors.Is(err, terrain.ErrEvictionMismatch) ||
		errors.Is(err, terrain.ErrUnregisteredTemplate) ||
		errors.Is(err, terrain.ErrDoubleRelease)
}
