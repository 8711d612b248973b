package tui

import (
	"errors"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/calendar"
	"github.com/hy4ri/taskgrid/internal/cloud"
	"github.com/hy4ri/taskgrid/internal/i18n"
	"github.com/hy4ri/taskgrid/internal/merge"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/router"
	"github.com/hy4ri/taskgrid/internal/store"
	"github.com/hy4ri/taskgrid/internal/tui/components"
)

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case backgroundMsg:
		m, cmd := a.Update(msg.inner)
		return m, tea.Batch(cmd, a.listen())

	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.MouseMsg:
		return a.handleMouseMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.layout()
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case clockTickMsg:
		a.refresh()
		return a, a.tickClock()

	case syncStatusMsg:
		a.sync = msg.status
		return a, nil

	case bannerMsg:
		return a, a.showBanner(msg.task)

	case bannerExpiredMsg:
		if a.banner != nil && a.banner.id == msg.id {
			a.closeBanner()
		}
		return a, nil

	case tooltipMsg:
		if target, ok := a.tooltip.Visible(); ok && target == msg.target {
			a.tooltipTask = msg.target
			a.tooltipAt = msg.at
		}
		return a, nil

	case restoredMsg:
		return a, a.handleRestored(msg)

	case loginDoneMsg:
		if msg.err != nil {
			a.setError(msg.err)
			return a, nil
		}
		return a, a.restoreCmd(false)

	case components.RouteSelectedMsg:
		a.navigate(msg.Route)
		a.focusMain()
		return a, nil

	case components.TaskSelectedMsg:
		a.openEditForm(msg.Task)
		return a, nil

	case components.DaySelectedMsg:
		a.dayFocused = true
		a.dayList.Top()
		return a, nil

	case components.HelpClosedMsg:
		a.showHelp = false
		return a, nil
	}

	return a, nil
}

func (a *App) handleRestored(msg restoredMsg) tea.Cmd {
	if msg.state != nil {
		// Edits made while the backup was downloading win over it.
		a.store.ReplaceState(merge.State(a.store.State(), *msg.state))
		a.setStatus(a.tr.T("StatusRestored"))
	} else if msg.manual && msg.err == nil {
		a.setStatus(a.tr.T("StatusPushed"))
	}
	if msg.err != nil && !errors.Is(msg.err, cloud.ErrDisabled) {
		a.logger.Warn("sync failed", zap.Error(msg.err))
	}
	return nil
}

func (a *App) setStatus(text string) {
	a.statusMsg = text
	a.statusErr = false
}

func (a *App) setError(err error) {
	a.logger.Error("operation failed", zap.Error(err))
	a.statusMsg = a.tr.T("StatusError", i18n.Data{"Error": err.Error()})
	a.statusErr = true
}

// handleKeyMsg routes a key to the open dialog, the search input or the
// keymap, in that order.
func (a *App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}

	switch {
	case a.taskForm != nil:
		return a.handleTaskFormKey(msg)
	case a.projectForm != nil:
		return a.handleProjectFormKey(msg)
	case a.confirm != nil:
		return a.handleConfirmKey(msg)
	case a.mover != nil:
		return a.handleMoverKey(msg)
	case a.showHelp:
		_, cmd := a.helpComp.Update(msg)
		return a, cmd
	case a.searching:
		return a.handleSearchKey(msg)
	}

	if msg.String() == "esc" && a.banner != nil {
		a.closeBanner()
		return a, nil
	}

	action, consumed := a.keyState.HandleKey(msg, a.keymap)
	if !consumed {
		// Keys the keymap does not know, such as the calendar's [ ] and t.
		return a.forwardKey(msg)
	}
	if action == "" {
		return a, nil
	}
	a.statusMsg = ""
	return a.runAction(action, msg)
}

func (a *App) runAction(action string, msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch action {
	case "quit":
		return a, tea.Quit
	case "help":
		a.showHelp = true
		return a, nil
	case "switch_pane":
		if a.focusedPane == components.PaneMain && a.sidebarWidth() > 0 {
			a.focusSidebar()
		} else {
			a.focusMain()
		}
		return a, nil
	case "route_today":
		a.navigate(router.Route{Name: router.Today})
	case "route_upcoming":
		a.navigate(router.Route{Name: router.Upcoming})
	case "route_calendar":
		a.navigate(router.Route{Name: router.Calendar})
	case "route_done":
		a.navigate(router.Route{Name: router.Done})
	case "history_back":
		a.goBack()
	case "search":
		a.startSearch()
	case "calendar_view":
		if a.route.Name == router.Calendar {
			a.calendarComp.ToggleMode()
			a.tooltip.Leave()
			a.tooltipTask = ""
		}
	case "add":
		a.openNewForm(a.newTaskDefaults())
	case "new_project":
		a.projectForm = NewProjectForm(a.tr, nil)
	case "edit_project":
		if p, ok := a.currentProject(); ok {
			a.projectForm = NewProjectForm(a.tr, &p)
		}
	case "delete_project":
		a.confirmDeleteProject()
	case "time_format":
		a.toggleTimeFormat()
	case "sync_now":
		return a, a.syncNow()
	case "sync_login":
		return a, a.toggleLogin()
	case "clear_done":
		n := a.store.ClearCompletedTasks(a.currentScope())
		a.setStatus(a.tr.T("StatusCleared", i18n.Data{"Count": n}))
	case "back":
		switch {
		case a.dayFocused:
			a.dayFocused = false
		case a.focusedPane == components.PaneSidebar:
			a.focusMain()
		default:
			a.statusMsg = ""
		}
	case "top":
		if a.focusedPane == components.PaneSidebar {
			a.sidebar.MoveCursor(-len(a.sidebar.Items()))
		} else {
			a.activeList().Top()
		}
	default:
		if a.focusedPane == components.PaneSidebar {
			_, cmd := a.sidebar.Update(msg)
			return a, cmd
		}
		if cmd, handled := a.taskAction(action); handled {
			return a, cmd
		}
		return a.forwardKey(msg)
	}
	return a, nil
}

// taskAction applies action to the selected task.
func (a *App) taskAction(action string) (tea.Cmd, bool) {
	switch action {
	case "edit", "complete", "delete", "copy", "move_up", "move_down", "move_project",
		"priority1", "priority2", "priority3", "due_today", "due_tomorrow":
	default:
		return nil, false
	}
	task, ok := a.selectedTask()
	if !ok {
		return nil, true
	}

	switch action {
	case "edit":
		a.openEditForm(task)
	case "complete":
		a.store.ToggleTaskDone(task.ID, nil)
	case "delete":
		a.confirm = &confirmDialog{
			message: a.tr.T("ConfirmDeleteTask", i18n.Data{"Name": task.Title}),
			onYes: func() tea.Cmd {
				if a.store.DeleteTask(task.ID) {
					a.setStatus(a.tr.T("StatusDeleted"))
				}
				return nil
			},
		}
	case "copy":
		if err := clipboard.WriteAll(task.Title); err != nil {
			a.setError(err)
		} else {
			a.setStatus(a.tr.T("StatusCopied"))
		}
	case "move_up":
		a.moveTask(task, -1)
	case "move_down":
		a.moveTask(task, 1)
	case "move_project":
		a.mover = &movePicker{taskID: task.ID}
	case "priority1", "priority2", "priority3":
		p := model.Priority(action[len(action)-1] - '0')
		a.updateTask(task.ID, model.TaskPatch{Priority: &p})
	case "due_today":
		a.updateTask(task.ID, shiftDue(task, a.clock.Now(), 0))
	case "due_tomorrow":
		a.updateTask(task.ID, shiftDue(task, a.clock.Now(), 1))
	}
	return nil, true
}

func (a *App) updateTask(id string, patch model.TaskPatch) {
	if _, err := a.store.UpdateTask(id, patch); err != nil {
		a.setError(err)
	}
}

// moveTask swaps t with its neighbour in a project list. Other views are
// not in manual order.
func (a *App) moveTask(t model.Task, delta int) {
	if a.route.Name != router.Project {
		return
	}
	rows := a.list.Rows()
	i := a.list.SelectedIndex() + delta
	visible := make([]model.Task, 0, len(rows))
	for _, r := range rows {
		if r.Task != nil {
			visible = append(visible, *r.Task)
		}
	}
	if i < 0 || i >= len(visible) {
		return
	}

	// The store orders the whole scope, completed tasks included.
	var scoped []model.Task
	for _, other := range a.state.Tasks {
		if other.InProject(t.ProjectID) {
			scoped = append(scoped, other)
		}
	}
	for dest, other := range store.SortByOrder(scoped) {
		if other.ID == visible[i].ID {
			a.store.ReorderTask(t.ID, dest, t.ProjectID)
			a.list.SelectTask(t.ID)
			return
		}
	}
}

// selectedTask returns the task the keyboard is on.
func (a *App) selectedTask() (model.Task, bool) {
	if a.focusedPane != components.PaneMain {
		return model.Task{}, false
	}
	if a.route.Name == router.Calendar && !a.dayFocused {
		return model.Task{}, false
	}
	return a.activeList().SelectedTask()
}

func (a *App) activeList() *components.TaskListModel {
	if a.route.Name == router.Calendar {
		return a.dayList
	}
	return a.list
}

// forwardKey hands a key to the focused component.
func (a *App) forwardKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch {
	case a.focusedPane == components.PaneSidebar:
		_, cmd = a.sidebar.Update(msg)
	case a.route.Name == router.Calendar && a.dayFocused:
		_, cmd = a.dayList.Update(msg)
	case a.route.Name == router.Calendar:
		_, cmd = a.calendarComp.Update(msg)
		a.refreshDay()
	default:
		_, cmd = a.list.Update(msg)
	}
	return a, cmd
}

func (a *App) focusSidebar() {
	a.focusedPane = components.PaneSidebar
	components.FocusOnly(a.sidebar, a.list, a.dayList, a.calendarComp)
}

func (a *App) focusMain() {
	a.focusedPane = components.PaneMain
	a.sidebar.Blur()
	a.list.Focus()
	a.dayList.Focus()
	a.calendarComp.Focus()
}

func (a *App) startSearch() {
	if a.route.Name != router.Search {
		a.navigate(router.Route{Name: router.Search, Param: a.searchInput.Value()})
	}
	a.focusMain()
	a.searching = true
	a.searchInput.Focus()
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if a.searchInput.Value() == "" {
			a.searching = false
			a.searchInput.Blur()
			return a, nil
		}
		a.searchInput.SetValue("")
	case "enter", "down", "tab":
		a.searching = false
		a.searchInput.Blur()
		return a, nil
	default:
		var cmd tea.Cmd
		a.searchInput, cmd = a.searchInput.Update(msg)
		a.applyQuery()
		return a, cmd
	}
	a.applyQuery()
	return a, nil
}

// applyQuery shows the results for the typed query without growing the
// history on every key.
func (a *App) applyQuery() {
	a.route = router.Route{Name: router.Search, Param: a.searchInput.Value()}
	a.refresh()
}

func (a *App) openNewForm(defaults model.TaskInput) {
	a.taskForm = NewTaskForm(a.tr, a.state.Projects, defaults)
	a.taskForm.AvailableTags = a.tagNames()
	a.taskForm.SetWidth(a.width)
}

func (a *App) openEditForm(t model.Task) {
	a.taskForm = NewEditTaskForm(a.tr, t, a.state.Projects)
	a.taskForm.AvailableTags = a.tagNames()
	a.taskForm.SetWidth(a.width)
}

func (a *App) handleTaskFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := a.taskForm
	if form.ProjectListOpen() {
		a.taskForm, _ = form.Update(msg)
		return a, nil
	}
	switch msg.String() {
	case "esc":
		a.taskForm = nil
		return a, nil
	case "enter":
		a.submitTaskForm()
		return a, nil
	}
	var cmd tea.Cmd
	a.taskForm, cmd = form.Update(msg)
	return a, cmd
}

func (a *App) submitTaskForm() {
	form := a.taskForm
	if !form.IsValid() {
		return
	}
	if form.Editing() {
		patch, err := form.ToPatch()
		if err != nil {
			return
		}
		if _, err := a.store.UpdateTask(form.TaskID, patch); err != nil {
			a.setError(err)
			return
		}
		a.taskForm = nil
		return
	}

	in, err := form.ToInput()
	if err != nil {
		return
	}
	t, err := a.store.AddTask(in)
	if err != nil {
		a.setError(err)
		return
	}
	a.taskForm = nil
	a.activeList().SelectTask(t.ID)
}

func (a *App) handleProjectFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	form := a.projectForm
	switch msg.String() {
	case "esc":
		a.projectForm = nil
		return a, nil
	case "enter":
		if form.Editing() {
			if _, err := a.store.UpdateProject(form.ProjectID, form.ToPatch()); err != nil {
				a.setError(err)
				return a, nil
			}
		} else {
			p, err := a.store.AddProject(form.ToInput())
			if err != nil {
				a.setError(err)
				return a, nil
			}
			a.navigate(router.Route{Name: router.Project, Param: p.ID})
		}
		a.projectForm = nil
		return a, nil
	}
	var cmd tea.Cmd
	a.projectForm, cmd = form.Update(msg)
	return a, cmd
}

func (a *App) confirmDeleteProject() {
	p, ok := a.currentProject()
	if !ok {
		return
	}
	a.confirm = &confirmDialog{
		message: a.tr.T("ConfirmDeleteProject", i18n.Data{"Name": p.Name}),
		onYes: func() tea.Cmd {
			if a.store.DeleteProject(p.ID, a.state.Settings.RemoveProjectBehavior) {
				a.setStatus(a.tr.T("StatusDeleted"))
				if id, _ := a.route.ProjectID(); id != nil && *id == p.ID {
					a.navigate(router.Route{Name: router.Project, Param: router.InboxID})
				}
			}
			return nil
		},
	}
}

func (a *App) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		onYes := a.confirm.onYes
		a.confirm = nil
		return a, onYes()
	case "n", "N", "esc", "q":
		a.confirm = nil
	}
	return a, nil
}

// moveTargets lists the inbox followed by the projects.
func (a *App) moveTargets() []*string {
	targets := []*string{nil}
	for _, p := range store.SortByOrder(a.state.Projects) {
		targets = append(targets, model.Ptr(p.ID))
	}
	return targets
}

func (a *App) handleMoverKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	targets := a.moveTargets()
	switch msg.String() {
	case "j", "down":
		a.mover.cursor = min(a.mover.cursor+1, len(targets)-1)
	case "k", "up":
		a.mover.cursor = max(a.mover.cursor-1, 0)
	case "enter", "l":
		target := targets[a.mover.cursor]
		// Appended at the end of the destination.
		if a.store.MoveTaskToProject(a.mover.taskID, target, len(a.state.Tasks)) {
			a.setStatus(a.tr.T("StatusMoved", i18n.Data{"Name": a.projectName(target)}))
		}
		a.mover = nil
	case "esc", "q":
		a.mover = nil
	}
	return a, nil
}

func (a *App) toggleTimeFormat() {
	next := model.TimeFormat24h
	if a.state.Settings.TimeFormat == model.TimeFormat24h {
		next = model.TimeFormat12h
	}
	settings := a.store.UpdateSettings(model.Settings{TimeFormat: next})
	a.setStatus(a.tr.T("StatusTimeFormat", i18n.Data{"Format": string(settings.TimeFormat)}))
}

func (a *App) syncNow() tea.Cmd {
	if !a.cloud.Enabled() {
		a.setStatus(a.tr.T("SyncNotConfigured"))
		return nil
	}
	if !a.sync.Authenticated {
		return a.toggleLogin()
	}
	return a.syncNowCmd()
}

func (a *App) toggleLogin() tea.Cmd {
	if !a.cloud.Enabled() || a.signIn == nil {
		a.setStatus(a.tr.T("SyncNotConfigured"))
		return nil
	}
	if a.sync.Authenticated {
		if err := a.cloud.Disconnect(); err != nil {
			a.setError(err)
			return nil
		}
		a.setStatus(a.tr.T("StatusSignedOut"))
		return nil
	}
	a.setStatus(a.tr.T("StatusOpeningBrowser"))
	return a.loginCmd()
}

// hideTooltip cancels a pending tooltip and hides the shown one.
func (a *App) hideTooltip() {
	a.tooltip.Leave()
	a.hoverTarget = ""
	a.tooltipTask = ""
}

// tooltipPoint converts a screen cell to a tooltip anchor.
func tooltipPoint(x, y int) calendar.Point {
	return calendar.Point{X: float64(x), Y: float64(y)}
}
