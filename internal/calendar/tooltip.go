package calendar

import (
	"math"
	"sync"
	"time"

	"github.com/hy4ri/taskgrid/internal/clock"
)

// Tooltip geometry and timing.
const (
	TooltipDelay   = 500 * time.Millisecond
	TooltipOffset  = 10
	TooltipPadding = 8
)

// Point is a position on screen.
type Point struct {
	X, Y float64
}

// Size is the extent of a box on screen.
type Size struct {
	Width, Height float64
}

// PlaceTooltip returns the top-left corner of a tooltip of the given size
// shown for the pointer, kept inside the viewport.
func PlaceTooltip(pointer Point, size Size, viewport Size) Point {
	left := math.Min(viewport.Width-size.Width-TooltipPadding, pointer.X+TooltipOffset)
	top := math.Min(viewport.Height-size.Height-TooltipPadding, pointer.Y+TooltipOffset)
	return Point{
		X: math.Max(TooltipPadding, left),
		Y: math.Max(TooltipPadding, top),
	}
}

// Tooltip shows text for a hovered target after TooltipDelay. Only one
// tooltip exists at a time.
type Tooltip struct {
	clock clock.Clock
	show  func(target string, at Point)

	mu      sync.Mutex
	timer   clock.Timer
	target  string
	pending string
	visible bool
}

// NewTooltip creates a tooltip that calls show when the delay elapses.
func NewTooltip(c clock.Clock, show func(target string, at Point)) *Tooltip {
	return &Tooltip{clock: c, show: show}
}

// Enter starts the delay for target at the pointer position.
func (t *Tooltip) Enter(target string, pointer Point) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()
	t.pending = target
	var timer clock.Timer
	timer = t.clock.AfterFunc(TooltipDelay, func() {
		t.mu.Lock()
		if t.timer != timer || t.pending != target {
			t.mu.Unlock()
			return
		}
		t.timer = nil
		t.target = target
		t.visible = true
		t.mu.Unlock()

		if t.show != nil {
			t.show(target, pointer)
		}
	})
	t.timer = timer
}

// Move reports whether the visible tooltip belongs to target, in which case
// the caller should reposition it.
func (t *Tooltip) Move(target string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible && t.target == target
}

// Leave hides the tooltip and cancels a pending one.
func (t *Tooltip) Leave() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelLocked()
}

// Click behaves like Leave.
func (t *Tooltip) Click() {
	t.Leave()
}

// Visible returns the target of the shown tooltip.
func (t *Tooltip) Visible() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target, t.visible
}

func (t *Tooltip) cancelLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.pending = ""
	t.target = ""
	t.visible = false
}
