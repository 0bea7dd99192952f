package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gdamore/tcell/v2"

	"terrain-streamer/internal/terrain"
)

const (
	frameInterval = 33 * time.Millisecond
	minSpeed      = 0.0
	maxSpeed      = 120.0
	speedStep     = 5.0
)

var (
	groundStyle = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	raisedStyle = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	markerStyle = tcell.StyleDefault.Foreground(tcell.ColorRed)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// Viewer scrolls a camera over a stream and draws the active segments, one
// terminal column per world unit.
type Viewer struct {
	screen tcell.Screen
	stream *terrain.Stream
	log    *slog.Logger

	camera float64
	speed  float64 // world units per second
	paused bool
	err    error
}

func NewViewer(screen tcell.Screen, stream *terrain.Stream, speed float64, log *slog.Logger) *Viewer {
	return &Viewer{screen: screen, stream: stream, speed: speed, log: log}
}

// viewport is the camera's visible range.
func (v *Viewer) viewport() terrain.Viewport {
	width, _ := v.screen.Size()
	return terrain.Viewport{Left: v.camera, Right: v.camera + float64(width)}
}

// step advances the camera by dt and ticks the stream.
func (v *Viewer) step(dt time.Duration) {
	if !v.paused {
		v.camera += v.speed * dt.Seconds()
	}
	if err := v.stream.Tick(v.viewport()); err != nil {
		v.err = err
		v.log.Error("tick failed", slog.Float64("camera", v.camera), slog.String("error", err.Error()))
	}
}

func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC {
			return false
		}
		if ev.Key() == tcell.KeyRune {
			switch ev.Rune() {
			case 'q':
				return false
			case '+', '=':
				v.speed = min(v.speed+speedStep, maxSpeed)
			case '-':
				v.speed = max(v.speed-speedStep, minSpeed)
			case ' ':
				v.paused = !v.paused
			}
		}

	case *tcell.EventResize:
		v.screen.Sync()
	}
	return true
}

func (v *Viewer) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()
	ground := height - 3

	segWidth := v.stream.Config().SegmentWidth
	for _, inst := range v.stream.Active() {
		profile := []rune(profileOf(v.stream, inst.TemplateID()))
		left := inst.X() - v.camera
		for col := 0; col < int(segWidth); col++ {
			x := int(left) + col
			if x < 0 || x >= width {
				continue
			}
			r := '_'
			if len(profile) > 0 {
				r = profile[col%len(profile)]
			}
			drawTerrain(v.screen, x, ground, r)
		}
		if x := int(left); x >= 0 && x < width {
			v.screen.SetContent(x, ground+1, '\'', nil, tcell.StyleDefault.Foreground(tcell.ColorGray))
		}
	}

	w := v.stream.Window()
	for _, edge := range []float64{w.Start, w.End} {
		if x := int(edge - v.camera); x >= 0 && x < width {
			for y := 1; y < ground; y++ {
				v.screen.SetContent(x, y, '┆', nil, markerStyle)
			}
		}
	}

	v.drawStatus(width, height)
	v.screen.Show()
}

func (v *Viewer) drawStatus(width, height int) {
	c := v.stream.Cursors()
	ps := v.stream.Pool().Stats()
	line := fmt.Sprintf(" x=%.0f speed=%.0f active=%d gen=%.0f rem=%.0f built=%d reused=%d ",
		v.camera, v.speed, v.stream.ActiveCount(), c.LastGenerated, c.LastRemoved, ps.Constructed, ps.Reused)
	if v.paused {
		line += "[paused] "
	}
	if v.err != nil {
		line += "err: " + v.err.Error() + " "
	}
	drawText(v.screen, 0, height-1, width, line, statusStyle)
	drawText(v.screen, 0, 0, width, " q quit  +/- speed  space pause", tcell.StyleDefault)
}

func (v *Viewer) run() {
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	last := time.Now()
	v.step(0)
	v.draw()
	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}

		case now := <-ticker.C:
			v.step(now.Sub(last))
			last = now
			v.draw()
		}
	}
}

// drawTerrain renders one profile column. '-' is a raised block, '|' a pillar
// and ' ' a gap.
func drawTerrain(s tcell.Screen, x, ground int, r rune) {
	switch r {
	case ' ':
	case '-':
		s.SetContent(x, ground-1, '▀', nil, raisedStyle)
		s.SetContent(x, ground, '█', nil, raisedStyle)
	case '|':
		s.SetContent(x, ground-2, '█', nil, raisedStyle)
		s.SetContent(x, ground-1, '█', nil, raisedStyle)
		s.SetContent(x, ground, '█', nil, groundStyle)
	default:
		s.SetContent(x, ground, '█', nil, groundStyle)
	}
}

func drawText(s tcell.Screen, x, y, width int, text string, style tcell.Style) {
	for _, r := range text {
		if x >= width {
			return
		}
		s.SetContent(x, y, r, nil, style)
		x++
	}
}

// profileOf returns the "profile" string of a template payload, or "".
func profileOf(s *terrain.Stream, id terrain.TemplateID) string {
	t, ok := s.Template(id)
	if !ok {
		return ""
	}
	payload, ok := t.Payload.(map[string]any)
	if !ok {
		return ""
	}
	profile, _ := payload["profile"].(string)
	return profile
}
