package session

import (
	"time"

	"terrain-streamer/internal/terrain"
)

// SessionID uniquely identifies a terrain session (one runner, one viewport).
type SessionID string

// SessionState is the in-memory representation of a session. The Stream is
// owned by the repository and only touched under its lock.
type SessionState struct {
	ID         SessionID
	Stream     *terrain.Stream
	Factory    *terrain.SegmentFactory
	Ended      bool
	CreatedAt  time.Time
	LastTickAt time.Time

	// MaxAppend caps the segments a single tick may append; 0 disables it.
	MaxAppend int
}

// CreateRequest is the JSON body of POST /sessions. Nil fields fall back to
// the service defaults.
type CreateRequest struct {
	ID          SessionID         `json:"id,omitempty"`
	Seed        *uint64           `json:"seed,omitempty"`
	StartMargin *float64          `json:"start_margin,omitempty"`
	EndMargin   *float64          `json:"end_margin,omitempty"`
	Viewport    *terrain.Viewport `json:"viewport,omitempty"`
}

// SegmentView is the API representation of one active segment.
type SegmentView struct {
	X          float64            `json:"x"`
	Width      float64            `json:"width"`
	TemplateID terrain.TemplateID `json:"template_id"`
	Template   string             `json:"template"`
	Serial     uint64             `json:"serial"`
}

// PoolView is the API representation of a session's pool.
type PoolView struct {
	Buckets []BucketView      `json:"buckets"`
	Stats   terrain.PoolStats `json:"stats"`
}

// BucketView is one pool bucket.
type BucketView struct {
	TemplateID terrain.TemplateID `json:"template_id"`
	Template   string             `json:"template"`
	Idle       int                `json:"idle"`
}

// Snapshot is a consistent copy of a session taken under the repository lock.
type Snapshot struct {
	ID            SessionID           `json:"id"`
	Ended         bool                `json:"ended"`
	Started       bool                `json:"started"`
	Window        terrain.Window      `json:"window"`
	Cursors       terrain.Cursors     `json:"cursors"`
	Segments      []SegmentView       `json:"segments"`
	Pool          PoolView            `json:"pool"`
	Stats         terrain.StreamStats `json:"stats"`
	PendingForced int                 `json:"pending_forced"`
	CreatedAt     time.Time           `json:"created_at"`
	LastTickAt    time.Time           `json:"last_tick_at,omitempty"`
}
