package session

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"terrain-streamer/internal/terrain"
)

// Repository defines the concurrency-safe contract for accessing and mutating
// sessions. A terrain.Stream is single-owner; the repository is that owner and
// serializes every call that touches one.
type Repository interface {
	// Create stores a new session. It fails with ErrSessionExists if the id is
	// taken and with ErrTooManySessions if maxActive (> 0) sessions are already
	// active.
	Create(st *SessionState, maxActive int) error

	// Tick advances the session's stream for viewport v and returns the
	// resulting snapshot. Stream errors are returned alongside the snapshot.
	Tick(id SessionID, v terrain.Viewport) (Snapshot, error)

	// Snapshot returns a copy of the session state. ok is false if the session
	// does not exist.
	Snapshot(id SessionID) (snap Snapshot, ok bool)

	// End marks a session as ended. Later ticks are rejected with ErrSessionEnded.
	End(id SessionID) error

	// ActiveSessionCount returns the number of sessions that are not ended.
	ActiveSessionCount() int

	// List returns the ids of all sessions, sorted.
	List() []SessionID
}

var (
	// ErrSessionNotFound is returned for an unknown session id.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExists is returned when creating a session with a taken id.
	ErrSessionExists = errors.New("session already exists")

	// ErrSessionEnded is returned when ticking a session that has been ended.
	ErrSessionEnded = errors.New("session has ended")

	// ErrTooManySessions is returned when the active session limit is reached.
	ErrTooManySessions = errors.New("too many active sessions")

	// ErrViewportJump is returned when a tick would append more segments than
	// the session allows in one step.
	ErrViewportJump = errors.New("viewport advanced too far in one tick")
)

// InMemoryRepository is a concurrency-safe implementation of Repository.
// It uses a Store for persistence; by default that is an InMemoryStore.
type InMemoryRepository struct {
	mu    sync.RWMutex
	store Store
	now   func() time.Time
}

// NewInMemoryRepository constructs a new repository with a default in-memory store.
func NewInMemoryRepository() *InMemoryRepository {
	return NewInMemoryRepositoryWithStore(NewInMemoryStore())
}

// NewInMemoryRepositoryWithStore constructs a repository that uses the given Store.
func NewInMemoryRepositoryWithStore(store Store) *InMemoryRepository {
	return &InMemoryRepository{store: store, now: time.Now}
}

// Create implements Repository.Create.
func (r *InMemoryRepository) Create(st *SessionState, maxActive int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.store.GetSession(st.ID); exists {
		return ErrSessionExists
	}
	if maxActive > 0 && r.activeCountLocked() >= maxActive {
		return ErrTooManySessions
	}

	if st.CreatedAt.IsZero() {
		st.CreatedAt = r.now().UTC()
	}
	r.store.SetSession(st)
	return nil
}

// Tick implements Repository.Tick.
func (r *InMemoryRepository) Tick(id SessionID, v terrain.Viewport) (Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, exists := r.store.GetSession(id)
	if !exists {
		return Snapshot{}, ErrSessionNotFound
	}
	if st.Ended {
		return BuildSnapshot(st), ErrSessionEnded
	}
	if st.MaxAppend > 0 {
		if n := st.Stream.Pending(v); n > st.MaxAppend {
			return BuildSnapshot(st), fmt.Errorf("%w: %d segments, limit %d", ErrViewportJump, n, st.MaxAppend)
		}
	}

	err := st.Stream.Tick(v)
	st.LastTickAt = r.now().UTC()
	return BuildSnapshot(st), err
}

// Snapshot implements Repository.Snapshot.
func (r *InMemoryRepository) Snapshot(id SessionID) (Snapshot, bool) {
	// Reading a stream never mutates it, so a read lock is enough.
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, exists := r.store.GetSession(id)
	if !exists {
		return Snapshot{}, false
	}
	return BuildSnapshot(st), true
}

// End implements Repository.End.
func (r *InMemoryRepository) End(id SessionID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, exists := r.store.GetSession(id)
	if !exists {
		return ErrSessionNotFound
	}
	st.Ended = true
	return nil
}

// ActiveSessionCount implements Repository.ActiveSessionCount.
func (r *InMemoryRepository) ActiveSessionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.activeCountLocked()
}

// List implements Repository.List.
func (r *InMemoryRepository) List() []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.store.ListSessionIDs()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// activeCountLocked counts sessions that are not ended.
// Caller must hold r.mu.
func (r *InMemoryRepository) activeCountLocked() int {
	n := 0
	for _, id := range r.store.ListSessionIDs() {
		if st, ok := r.store.GetSession(id); ok && !st.Ended {
			n++
		}
	}
	return n
}
