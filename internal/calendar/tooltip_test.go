package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/hy4ri/taskgrid/internal/clock"
)

func TestTooltip_ShowsAfterDelay(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	var shown []string
	tip := NewTooltip(clk, func(target string, _ Point) { shown = append(shown, target) })

	tip.Enter("task-1", Point{X: 5, Y: 5})
	clk.Advance(TooltipDelay - time.Millisecond)
	assert.Empty(t, shown)

	clk.Advance(time.Millisecond)
	assert.Equal(t, []string{"task-1"}, shown)

	target, ok := tip.Visible()
	assert.True(t, ok)
	assert.Equal(t, "task-1", target)
	assert.True(t, tip.Move("task-1"))
	assert.False(t, tip.Move("task-2"))
}

func TestTooltip_CancelledBeforeDelay(t *testing.T) {
	for name, cancel := range map[string]func(*Tooltip){
		"leave": (*Tooltip).Leave,
		"click": (*Tooltip).Click,
	} {
		t.Run(name, func(t *testing.T) {
			clk := clock.NewManual(time.Unix(0, 0))
			calls := 0
			tip := NewTooltip(clk, func(string, Point) { calls++ })

			tip.Enter("task-1", Point{})
			clk.Advance(200 * time.Millisecond)
			cancel(tip)
			clk.Advance(time.Second)

			assert.Zero(t, calls)
			_, ok := tip.Visible()
			assert.False(t, ok)
		})
	}
}

func TestTooltip_EnterAnotherTargetRestarts(t *testing.T) {
	clk := clock.NewManual(time.Unix(0, 0))
	var shown []string
	tip := NewTooltip(clk, func(target string, _ Point) { shown = append(shown, target) })

	tip.Enter("a", Point{})
	clk.Advance(400 * time.Millisecond)
	tip.Enter("b", Point{})
	clk.Advance(400 * time.Millisecond)
	assert.Empty(t, shown)

	clk.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"b"}, shown)
}
