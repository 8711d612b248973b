package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hy4ri/taskgrid/internal/calendar"
	"github.com/hy4ri/taskgrid/internal/router"
	"github.com/hy4ri/taskgrid/internal/tui/components"
)

// calendarHeaderRows are the calendar's title and weekday lines.
const calendarHeaderRows = 2

// handleMouseMsg processes mouse input.
func (a *App) handleMouseMsg(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	// Skip if a dialog is open
	if a.dialogOpen() {
		return a, nil
	}

	if _, active := a.drag.Active(); active {
		return a.handleDrag(msg)
	}

	x, y := msg.X, msg.Y-a.bodyTop()
	if y < 0 || y >= a.bodyHeight() {
		a.hideTooltip()
		return a, nil
	}
	if msg.Button == tea.MouseButtonWheelUp || msg.Button == tea.MouseButtonWheelDown {
		return a.handleWheel(msg)
	}

	if x < a.sidebarWidth() {
		a.leaveCalendar()
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if item, ok := a.sidebar.ItemAt(y); ok {
				a.navigate(item.Route)
				a.focusMain()
			}
		}
		return a, nil
	}

	x -= a.mainX()
	if a.route.Name == router.Calendar {
		return a.handleCalendarMouse(msg, x, y)
	}

	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return a, nil
	}
	if a.route.Name == router.Search {
		if y < searchRows {
			a.startSearch()
			return a, nil
		}
		y -= searchRows
	}
	a.focusMain()
	a.clickList(a.list, x, y)
	return a, nil
}

func (a *App) dialogOpen() bool {
	return a.taskForm != nil || a.projectForm != nil || a.confirm != nil || a.mover != nil || a.showHelp
}

// clickList selects the clicked task; a click on its checkbox toggles it.
func (a *App) clickList(list *components.TaskListModel, x, y int) {
	task, ok := list.TaskAt(y)
	if !ok {
		return
	}
	if x < 4 {
		a.store.ToggleTaskDone(task.ID, nil)
	}
}

func (a *App) handleWheel(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	delta := 1
	if msg.Button == tea.MouseButtonWheelUp {
		delta = -1
	}
	if a.route.Name == router.Calendar {
		a.hideTooltip()
		if a.calendarComp.Nav().Mode == calendar.ModeWeek {
			a.calendarComp.Scroll(delta)
		}
		return a, nil
	}
	a.list.MoveCursor(delta)
	return a, nil
}

func (a *App) handleCalendarMouse(msg tea.MouseMsg, x, y int) (tea.Model, tea.Cmd) {
	calH := a.bodyHeight() - a.dayPanelHeight()
	if y >= calH {
		a.leaveCalendar()
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			a.focusMain()
			a.dayFocused = true
			a.clickList(a.dayList, x, y-calH)
		}
		return a, nil
	}

	hit := a.calendarComp.HitTest(x, y)
	week := a.calendarComp.Nav().Mode == calendar.ModeWeek
	switch msg.Action {
	case tea.MouseActionMotion:
		if week && y < calendarHeaderRows {
			a.leaveCalendar()
			return a, nil
		}
		a.hover(hit, msg.X, msg.Y)
		return a, nil
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return a, nil
		}
	default:
		return a, nil
	}

	a.hideTooltip()
	a.focusMain()
	a.dayFocused = false

	switch hit.Kind {
	case components.HitTaskTop, components.HitTaskBottom:
		if !week {
			a.openEditForm(hit.Task)
			return a, nil
		}
		edge := calendar.EdgeTop
		if hit.Kind == components.HitTaskBottom {
			edge = calendar.EdgeBottom
		}
		if a.drag.Begin(pointerID, hit.Task, edge, hit.RelY, a.calendarComp.Grid()) {
			d, _ := a.drag.Active()
			a.calendarComp.SetDrag(d)
		}
	case components.HitTask:
		a.openEditForm(hit.Task)
	case components.HitDay:
		a.calendarComp.SetNav(a.calendarComp.Nav().Select(hit.Day))
		a.refreshDay()
		if week && y >= calendarHeaderRows {
			if in, ok := calendar.ClickToCreate(hit.Day, hit.RelY, a.calendarComp.Grid().ColumnHeight()); ok {
				a.openNewForm(in)
			}
		}
	}
	return a, nil
}

// handleDrag follows the pointer while a block edge is being dragged.
func (a *App) handleDrag(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	y := msg.Y - a.bodyTop()
	switch msg.Action {
	case tea.MouseActionMotion:
		if a.drag.Move(pointerID, a.calendarComp.GridRow(y)) {
			d, _ := a.drag.Active()
			a.calendarComp.SetDrag(d)
		}
	case tea.MouseActionRelease:
		a.drag.Move(pointerID, a.calendarComp.GridRow(y))
		id, patch, ok := a.drag.End(pointerID)
		a.calendarComp.SetDrag(nil)
		if ok {
			a.updateTask(id, patch)
		}
	}
	return a, nil
}

// hover tracks the slot and block under the pointer.
func (a *App) hover(hit components.Hit, screenX, screenY int) {
	week := a.calendarComp.Nav().Mode == calendar.ModeWeek
	switch hit.Kind {
	case components.HitTask, components.HitTaskTop, components.HitTaskBottom:
		a.calendarComp.ClearHover()
		target := hit.Task.ID
		if target == a.hoverTarget {
			if a.tooltip.Move(target) {
				a.tooltipAt = tooltipPoint(screenX, screenY)
			}
			return
		}
		a.hideTooltip()
		a.hoverTarget = target
		a.tooltip.Enter(target, tooltipPoint(screenX, screenY))
	case components.HitDay:
		a.hideTooltip()
		if week {
			a.calendarComp.SetHover(hit.Day, calendar.HoverSlot(hit.RelY, a.calendarComp.Grid().ColumnHeight()))
		}
	default:
		a.leaveCalendar()
	}
}

func (a *App) leaveCalendar() {
	a.hideTooltip()
	a.calendarComp.ClearHover()
}
