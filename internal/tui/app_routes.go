package tui

import (
	"time"

	"github.com/hy4ri/taskgrid/internal/agenda"
	"github.com/hy4ri/taskgrid/internal/i18n"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/router"
	"github.com/hy4ri/taskgrid/internal/store"
	"github.com/hy4ri/taskgrid/internal/tui/components"
)

// navigate shows route and records it in the history.
func (a *App) navigate(route router.Route) {
	a.history.Push(route)
	a.setRoute(route)
}

// goBack returns to the previous route.
func (a *App) goBack() bool {
	route, ok := a.history.Back()
	if !ok {
		return false
	}
	a.setRoute(route)
	return true
}

func (a *App) setRoute(route router.Route) {
	if route.Name == router.Project {
		if id, _ := route.ProjectID(); id != nil {
			if _, ok := a.state.Project(*id); !ok {
				route = router.Route{Name: router.Project, Param: router.InboxID}
			}
		}
	}
	a.route = route
	a.dayFocused = false
	a.searching = false
	a.searchInput.Blur()
	if route.Name == router.Search {
		a.searchInput.SetValue(route.Param)
	}
	a.list.Top()
	a.layout()
	a.refresh()
}

// refresh recomputes every view from the current state.
func (a *App) refresh() {
	now := a.clock.Now()
	st := a.state
	format := st.Settings.TimeFormat

	a.sidebar.SetItems(a.sidebarItems(now))
	a.sidebar.SetActive(a.route)

	showProject := a.route.Name != router.Project
	a.list.SetContext(now, format, st.Projects, showProject)
	a.list.SetTitle(a.routeTitle())
	a.list.SetEmptyMessage(a.emptyMessage())
	a.list.SetRows(a.routeRows(now))

	a.calendarComp.SetContext(now, format, st.Projects)
	a.calendarComp.SetTasks(st.Tasks)
	a.refreshDay()
}

func (a *App) refreshDay() {
	day := a.calendarComp.SelectedDate()
	a.dayList.SetContext(a.clock.Now(), a.state.Settings.TimeFormat, a.state.Projects, true)
	a.dayList.SetTitle(day.Format("Monday, January 2"))
	a.dayList.SetEmptyMessage(a.tr.T("EmptyDay"))
	a.dayList.SetRows(components.TaskRows(agenda.Day(a.state.Tasks, day)))
}

func (a *App) routeTitle() string {
	switch a.route.Name {
	case router.Today:
		return a.tr.T("ViewToday")
	case router.Upcoming:
		return a.tr.T("ViewUpcoming")
	case router.Calendar:
		return a.tr.T("ViewCalendar")
	case router.Done:
		if id, ok := a.route.ProjectID(); ok {
			return a.tr.T("ViewDone") + " · " + a.projectName(id)
		}
		return a.tr.T("ViewDone")
	case router.Project:
		id, _ := a.route.ProjectID()
		return a.projectName(id)
	case router.Tag:
		return a.tr.T("ViewTag", i18n.Data{"Tag": a.route.Param})
	case router.Search:
		return a.tr.T("ViewSearch")
	}
	return a.tr.T("AppName")
}

func (a *App) emptyMessage() string {
	switch a.route.Name {
	case router.Today:
		return a.tr.T("EmptyToday")
	case router.Upcoming:
		return a.tr.T("EmptyUpcoming")
	case router.Done:
		return a.tr.T("EmptyDone")
	case router.Project:
		return a.tr.T("EmptyProject")
	case router.Tag:
		return a.tr.T("EmptyTag")
	case router.Search:
		if a.route.Param == "" {
			return a.tr.T("EmptySearch")
		}
		return a.tr.T("EmptySearchResults", i18n.Data{"Query": a.route.Param})
	}
	return ""
}

func (a *App) projectName(id *string) string {
	if id == nil {
		return a.tr.T("ViewInbox")
	}
	if p, ok := a.state.Project(*id); ok {
		return p.Name
	}
	return a.tr.T("ViewInbox")
}

// routeRows builds the task list of the current route.
func (a *App) routeRows(now time.Time) []components.Row {
	tasks := a.state.Tasks
	switch a.route.Name {
	case router.Today:
		overdue, today := agenda.Today(tasks, now)
		var rows []components.Row
		if len(overdue) > 0 {
			rows = append(rows, components.Row{Header: a.tr.T("SectionOverdue"), Warn: true})
			rows = append(rows, components.TaskRows(overdue)...)
		}
		if len(today) > 0 {
			if len(overdue) > 0 {
				rows = append(rows, components.Row{Header: a.tr.T("SectionToday")})
			}
			rows = append(rows, components.TaskRows(today)...)
		}
		return rows
	case router.Upcoming:
		var rows []components.Row
		for _, group := range agenda.Upcoming(tasks, now) {
			rows = append(rows, components.Row{Header: group.Date.Format("Monday, January 2")})
			rows = append(rows, components.TaskRows(group.Tasks)...)
		}
		return rows
	case router.Done:
		return components.TaskRows(agenda.Done(tasks, a.route.Param))
	case router.Project:
		id, _ := a.route.ProjectID()
		return components.TaskRows(agenda.Project(tasks, id))
	case router.Tag:
		return components.TaskRows(agenda.Tag(tasks, a.route.Param))
	case router.Search:
		if a.route.Param == "" {
			return nil
		}
		return components.TaskRows(agenda.Search(tasks, a.route.Param))
	}
	return nil
}

// sidebarItems lists the built-in views, the projects and the tags in use.
func (a *App) sidebarItems(now time.Time) []components.SidebarItem {
	tasks := a.state.Tasks
	overdue, today := agenda.Today(tasks, now)
	upcoming := 0
	for _, g := range agenda.Upcoming(tasks, now) {
		upcoming += len(g.Tasks)
	}

	items := []components.SidebarItem{
		{Kind: components.ItemView, Route: router.Route{Name: router.Today}, Name: a.tr.T("ViewToday"), Icon: "☀", Count: len(overdue) + len(today)},
		{Kind: components.ItemView, Route: router.Route{Name: router.Upcoming}, Name: a.tr.T("ViewUpcoming"), Icon: "→", Count: upcoming},
		{Kind: components.ItemView, Route: router.Route{Name: router.Calendar}, Name: a.tr.T("ViewCalendar"), Icon: "▦"},
		{Kind: components.ItemView, Route: router.Route{Name: router.Done}, Name: a.tr.T("ViewDone"), Icon: "✓"},
		{Kind: components.ItemView, Route: router.Route{Name: router.Search, Param: a.searchInput.Value()}, Name: a.tr.T("ViewSearch"), Icon: "⌕"},
		{Kind: components.ItemSeparator},
		{Kind: components.ItemHeader, Name: a.tr.T("ViewProjects")},
		{Kind: components.ItemProject, Route: router.Route{Name: router.Project, Param: router.InboxID}, Name: a.tr.T("ViewInbox"), Icon: "●", Count: len(agenda.Project(tasks, nil))},
	}
	for _, p := range store.SortByOrder(a.state.Projects) {
		id := p.ID
		items = append(items, components.SidebarItem{
			Kind:  components.ItemProject,
			Route: router.Route{Name: router.Project, Param: id},
			Name:  p.Name,
			Icon:  "●",
			Count: len(agenda.Project(tasks, &id)),
			Color: p.Color,
		})
	}

	if tags := agenda.Tags(tasks); len(tags) > 0 {
		items = append(items,
			components.SidebarItem{Kind: components.ItemSeparator},
			components.SidebarItem{Kind: components.ItemHeader, Name: a.tr.T("ViewTags")},
		)
		for _, tag := range tags {
			items = append(items, components.SidebarItem{
				Kind:  components.ItemTag,
				Route: router.Route{Name: router.Tag, Param: tag.Name},
				Name:  tag.Name,
				Icon:  "#",
				Count: tag.Count,
			})
		}
	}
	return items
}

func (a *App) tagNames() []string {
	tags := agenda.Tags(a.state.Tasks)
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	return names
}

// currentScope is the project scope of the route, used by bulk actions.
func (a *App) currentScope() store.Scope {
	id, ok := a.route.ProjectID()
	switch {
	case !ok:
		return store.AllProjects()
	case id == nil:
		return store.InboxScope()
	default:
		return store.ProjectScope(*id)
	}
}

// currentProject returns the project the route or the sidebar cursor points
// at.
func (a *App) currentProject() (model.Project, bool) {
	route := a.route
	if a.focusedPane == components.PaneSidebar {
		if item := a.sidebar.CurrentItem(); item != nil {
			route = item.Route
		}
	}
	if route.Name != router.Project {
		return model.Project{}, false
	}
	id, _ := route.ProjectID()
	if id == nil {
		return model.Project{}, false
	}
	return a.state.Project(*id)
}

// newTaskDefaults prefills a task created from the current route.
func (a *App) newTaskDefaults() model.TaskInput {
	now := a.clock.Now()
	if a.route.Name != router.Calendar {
		return agenda.Defaults(a.route, now)
	}
	day := a.calendarComp.SelectedDate()
	at := time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, time.Local)
	return model.TaskInput{DueAt: model.Ptr(model.FormatLocal(at)), IsAllDay: true}
}

// layout sizes the components for the window and the current route.
func (a *App) layout() {
	if a.width == 0 {
		return
	}
	body := a.bodyHeight()
	a.sidebar.SetSize(a.sidebarWidth(), body)
	a.helpComp.SetSize(a.width, a.height)

	mainW := a.mainWidth()
	listH := body
	if a.route.Name == router.Search {
		listH -= searchRows
	}
	a.list.SetSize(mainW, listH)

	dayH := a.dayPanelHeight()
	a.calendarComp.SetSize(mainW, body-dayH)
	a.dayList.SetSize(mainW, dayH)
	a.searchInput.Width = max(10, mainW-4)
	if a.taskForm != nil {
		a.taskForm.SetWidth(a.width)
	}
}

// searchRows is the height of the query input above the search results.
const searchRows = 2

func (a *App) sidebarWidth() int {
	if a.width < 70 {
		return 0
	}
	return sidebarWidth
}

func (a *App) mainX() int {
	if w := a.sidebarWidth(); w > 0 {
		return w + 1
	}
	return 0
}

func (a *App) mainWidth() int {
	return max(20, a.width-a.mainX())
}

// bodyTop is the first screen row below the header and the banner.
func (a *App) bodyTop() int {
	if a.banner != nil {
		return 2
	}
	return 1
}

func (a *App) bodyHeight() int {
	return max(5, a.height-a.bodyTop()-1)
}

func (a *App) dayPanelHeight() int {
	return min(8, a.bodyHeight()/3)
}
