package calendar

import (
	"math"
	"time"

	"github.com/hy4ri/taskgrid/internal/model"
)

// Edge is the side of a block being dragged.
type Edge int

const (
	EdgeTop Edge = iota + 1
	EdgeBottom
)

// Drag is an in-progress resize of one task block. The anchors are captured
// when the drag begins and every move is computed from them.
type Drag struct {
	Task model.Task
	Edge Edge
	Day  time.Time

	grid            Grid
	originY         float64
	initialStart    int
	initialDuration int
	initialEnd      int

	previewStart    float64
	previewDuration float64
}

// BeginDrag starts resizing t from edge at pointerY. Tasks without a due
// time cannot be resized.
func BeginDrag(t model.Task, edge Edge, pointerY float64, g Grid) (*Drag, bool) {
	due, ok := t.Due()
	if !ok || (edge != EdgeTop && edge != EdgeBottom) {
		return nil, false
	}
	start := due.Hour()*60 + due.Minute()
	duration := taskDuration(t)
	return &Drag{
		Task:            t,
		Edge:            edge,
		Day:             StartOfDay(due),
		grid:            g,
		originY:         pointerY,
		initialStart:    start,
		initialDuration: duration,
		initialEnd:      min(DayMinutes, start+duration),
		previewStart:    float64(start),
		previewDuration: float64(duration),
	}, true
}

// Move updates the preview for the pointer at pointerY.
func (d *Drag) Move(pointerY float64) {
	delta := d.grid.Minutes(pointerY - d.originY)

	if d.Edge == EdgeBottom {
		snapped := SnapQuarter(float64(d.initialDuration) + delta)
		d.previewDuration = math.Min(float64(DayMinutes-d.initialStart), math.Max(MinDuration, snapped))
		return
	}

	snapped := SnapQuarter(float64(d.initialStart) + delta)
	maxStart := math.Min(float64(d.initialEnd-MinDuration), DayMinutes-MinDuration)
	d.previewStart = math.Min(maxStart, clamp(snapped, 0, DayMinutes-MinDuration))
	d.previewDuration = math.Max(MinDuration, float64(d.initialEnd)-d.previewStart)
}

// Preview is the block as it should be drawn right now.
func (d *Drag) Preview() Block {
	return Block{
		Task:     d.Task,
		Start:    int(roundHalfUp(d.previewStart)),
		Duration: int(roundHalfUp(d.previewDuration)),
		Top:      math.Max(d.grid.Offset(d.previewStart), 0),
		Height:   math.Max(d.grid.Offset(d.previewDuration), d.grid.MinBlockHeight),
	}
}

// Commit returns the patch that applies the drag. A top-edge drag moves the
// due time on the original day as well as the duration.
func (d *Drag) Commit() model.TaskPatch {
	duration := roundHalfUp(d.previewDuration)
	patch := model.TaskPatch{Duration: &duration}
	if d.Edge == EdgeTop {
		due := atMinutes(d.Day, int(roundHalfUp(d.previewStart)))
		patch.DueAt = model.SetTo(model.FormatLocal(due))
	}
	return patch
}

// Controller tracks at most one drag, owned by the pointer that started it.
type Controller struct {
	pointer int
	drag    *Drag
}

// Begin starts a drag for pointer. It fails while another drag is active.
func (c *Controller) Begin(pointer int, t model.Task, edge Edge, pointerY float64, g Grid) bool {
	if c.drag != nil {
		return false
	}
	d, ok := BeginDrag(t, edge, pointerY, g)
	if !ok {
		return false
	}
	c.pointer = pointer
	c.drag = d
	return true
}

// Move forwards a pointer move to the active drag. Moves from other pointers
// are ignored.
func (c *Controller) Move(pointer int, pointerY float64) bool {
	if c.drag == nil || pointer != c.pointer {
		return false
	}
	c.drag.Move(pointerY)
	return true
}

// End finishes the drag owned by pointer and returns the resized task's id
// and patch.
func (c *Controller) End(pointer int) (string, model.TaskPatch, bool) {
	if c.drag == nil || pointer != c.pointer {
		return "", model.TaskPatch{}, false
	}
	d := c.drag
	c.drag = nil
	return d.Task.ID, d.Commit(), true
}

// Cancel drops the active drag without committing it.
func (c *Controller) Cancel() {
	c.drag = nil
}

// Active returns the drag in progress, if any.
func (c *Controller) Active() (*Drag, bool) {
	return c.drag, c.drag != nil
}
