package terrain

import (
	"errors"
	"math"
	"testing"
)

func TestTracker_Window(t *testing.T) {
	tests := []struct {
		name    string
		tracker Tracker
		vp      Viewport
		want    Window
	}{
		{"no_margins", Tracker{}, Viewport{Left: 0, Right: 30}, Window{Start: 0, End: 30}},
		{"positive_margins", Tracker{StartMargin: 5, EndMargin: 20}, Viewport{Left: 10, Right: 40}, Window{Start: 15, End: 60}},
		{"negative_start_margin", Tracker{StartMargin: -10, EndMargin: 10}, Viewport{Left: 0, Right: 20}, Window{Start: -10, End: 30}},
		{"inverted", Tracker{StartMargin: 50, EndMargin: -50}, Viewport{Left: 0, Right: 20}, Window{Start: 50, End: -30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.tracker.Window(tt.vp)
			if got != tt.want {
				t.Errorf("Window(%+v) = %+v, want %+v", tt.vp, got, tt.want)
			}
		})
	}
}

func TestTracker_Window_idempotent(t *testing.T) {
	tr := Tracker{StartMargin: -3.5, EndMargin: 12.25}
	vp := Viewport{Left: 101.75, Right: 131.75}

	first := tr.Window(vp)
	second := tr.Window(vp)
	if first != second {
		t.Errorf("repeated Window differs: %+v vs %+v", first, second)
	}
}

func TestWindow_Empty(t *testing.T) {
	if (Window{Start: 0, End: 10}).Empty() {
		t.Error("[0,10] should not be empty")
	}
	if (Window{Start: 5, End: 5}).Empty() {
		t.Error("[5,5] should not be empty")
	}
	w := Window{Start: 10, End: 0}
	if !w.Empty() {
		t.Error("[10,0] should be empty")
	}
	if w.Length() != 0 {
		t.Errorf("empty window length = %g, want 0", w.Length())
	}
	if got := (Window{Start: 2, End: 12}).Length(); got != 10 {
		t.Errorf("Length = %g, want 10", got)
	}
}

func TestViewport_Validate(t *testing.T) {
	if err := (Viewport{Left: -5, Right: 5}).Validate(); err != nil {
		t.Errorf("finite viewport: %v", err)
	}
	for _, vp := range []Viewport{
		{Left: math.NaN(), Right: 0},
		{Left: 0, Right: math.Inf(1)},
		{Left: math.Inf(-1), Right: 0},
		{Left: 10, Right: 0},
	} {
		if err := vp.Validate(); !errors.Is(err, ErrInvalidViewport) {
			t.Errorf("Validate(%+v) = %v, want ErrInvalidViewport", vp, err)
		}
	}
}
