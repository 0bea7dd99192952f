package terrain

import (
	"fmt"
	"math"
)

// Viewport is the horizontal world-space extent of the visible area.
type Viewport struct {
	Left  float64 `json:"left"`
	Right float64 `json:"right"`
}

// Validate rejects NaN and infinite bounds, which would stall or run away the
// append and evict loops, and a left edge past the right one. An empty window
// can still come from the margins.
func (v Viewport) Validate() error {
	if !finite(v.Left) || !finite(v.Right) {
		return ErrInvalidViewport
	}
	if v.Left > v.Right {
		return fmt.Errorf("%w: left %g > right %g", ErrInvalidViewport, v.Left, v.Right)
	}
	return nil
}

// Window is the world-space interval that must be covered by active segments.
type Window struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

// Empty reports a degenerate window (Start past End). It is not an error: an empty
// window simply asks for no new segments.
func (w Window) Empty() bool {
	return w.Start > w.End
}

// Validate rejects a window whose edges overflowed to infinity, which finite
// viewport edges plus finite margins can still produce.
func (w Window) Validate() error {
	if !finite(w.Start) || !finite(w.End) {
		return fmt.Errorf("%w: window [%g, %g] is not finite", ErrInvalidViewport, w.Start, w.End)
	}
	return nil
}

// Length returns the covered length, or 0 for an empty window.
func (w Window) Length() float64 {
	if w.Empty() {
		return 0
	}
	return w.End - w.Start
}

// Tracker derives the target window from the viewport and two signed margins.
// It holds no mutable state.
type Tracker struct {
	StartMargin float64
	EndMargin   float64
}

// Window returns [v.Left+StartMargin, v.Right+EndMargin].
func (t Tracker) Window(v Viewport) Window {
	return Window{
		Start: v.Left + t.StartMargin,
		End:   v.Right + t.EndMargin,
	}
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
