package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/calendar"
	"github.com/hy4ri/taskgrid/internal/clock"
	"github.com/hy4ri/taskgrid/internal/cloud"
	"github.com/hy4ri/taskgrid/internal/config"
	"github.com/hy4ri/taskgrid/internal/i18n"
	"github.com/hy4ri/taskgrid/internal/merge"
	"github.com/hy4ri/taskgrid/internal/model"
	"github.com/hy4ri/taskgrid/internal/reminder"
	"github.com/hy4ri/taskgrid/internal/router"
	"github.com/hy4ri/taskgrid/internal/store"
	"github.com/hy4ri/taskgrid/internal/tui/components"
	"github.com/hy4ri/taskgrid/internal/tui/styles"
)

const (
	// bannerTimeout is how long an in-app reminder stays on screen.
	bannerTimeout = 8 * time.Second

	// eventBuffer bounds messages posted from timers and network callbacks.
	eventBuffer = 64

	syncTimeout  = 2 * time.Minute
	sidebarWidth = 28

	// pointerID identifies the terminal's single mouse to the drag
	// controller.
	pointerID = 0
)

// Deps are the services the UI drives.
type Deps struct {
	Store *store.Store
	// Cloud is never nil; a manager without a backend reports idle.
	Cloud *cloud.Manager
	// SignIn runs the browser sign-in. Nil when sync is not configured.
	SignIn     func(ctx context.Context) error
	Translator *i18n.Translator
	Config     *config.Config
	Clock      clock.Clock
	Logger     *zap.Logger
	Notifier   reminder.Notifier
}

type banner struct {
	id   int
	text string
}

type confirmDialog struct {
	message string
	onYes   func() tea.Cmd
}

type movePicker struct {
	taskID string
	cursor int
}

// App is the main Bubble Tea model for the application.
type App struct {
	// Dependencies
	store  *store.Store
	cloud  *cloud.Manager
	signIn func(ctx context.Context) error
	tr     *i18n.Translator
	config *config.Config
	clock  clock.Clock
	logger *zap.Logger

	// events carries messages from timer and network goroutines into Update.
	events      chan tea.Msg
	scheduler   *reminder.Scheduler
	dispatcher  *reminder.Dispatcher
	unsubscribe []func()

	// Data
	state model.State
	sync  cloud.Status

	// View state
	route       router.Route
	history     router.History
	focusedPane components.Pane
	// dayFocused moves keyboard focus from the calendar grid to the list of
	// the selected day.
	dayFocused bool

	// UI state
	width, height int
	statusMsg     string
	statusErr     bool
	banner        *banner
	bannerSeq     int
	showHelp      bool

	// Components
	spinner  spinner.Model
	keyState KeyState
	keymap   Keymap

	sidebar      *components.SidebarModel
	list         *components.TaskListModel
	dayList      *components.TaskListModel
	calendarComp *components.CalendarModel
	helpComp     *components.HelpModel

	// Dialogs
	taskForm    *TaskForm
	projectForm *ProjectForm
	confirm     *confirmDialog
	mover       *movePicker

	// Search state
	searchInput textinput.Model
	searching   bool

	// Calendar pointer state
	drag        calendar.Controller
	tooltip     *calendar.Tooltip
	hoverTarget string
	tooltipTask string
	tooltipAt   calendar.Point
}

// NewApp creates a new App showing initialRoute.
func NewApp(deps Deps, initialRoute router.Route) *App {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	if deps.Cloud == nil {
		deps.Cloud = cloud.NewManager(cloud.Options{Clock: deps.Clock, Logger: deps.Logger})
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.Spinner

	searchInput := textinput.New()
	searchInput.Placeholder = deps.Translator.T("SearchPlaceholder")
	searchInput.CharLimit = 100
	searchInput.Width = 40

	now := deps.Clock.Now()
	tr := deps.Translator
	a := &App{
		store:       deps.Store,
		cloud:       deps.Cloud,
		signIn:      deps.SignIn,
		tr:          tr,
		config:      deps.Config,
		clock:       deps.Clock,
		logger:      deps.Logger,
		events:      make(chan tea.Msg, eventBuffer),
		state:       deps.Store.State(),
		sync:        deps.Cloud.Status(),
		focusedPane: components.PaneMain,
		spinner:     s,
		keymap:      DefaultKeymap(),
		searchInput: searchInput,

		sidebar: components.NewSidebar(tr.T("AppName")),
		list:    components.NewTaskList(),
		dayList: components.NewTaskList(),
		calendarComp: components.NewCalendar(now, deps.Config.UI.HourHeight, components.CalendarLabels{
			Week:  tr.T("CalendarWeek"),
			Month: tr.T("CalendarMonth"),
			More: func(n int) string {
				return tr.T("CalendarMore", i18n.Data{"Count": n})
			},
		}),
		helpComp: components.NewHelp(tr.T("HelpTitle"), tr.T("HelpClose")),
	}
	a.helpComp.SetKeymap(a.keymap.HelpItems(tr))
	a.list.Focus()
	a.calendarComp.Focus()

	a.dispatcher = &reminder.Dispatcher{
		Native:    deps.Notifier,
		Permitted: deps.Config.Notifications.Native,
		Banner: func(t model.Task) {
			a.post(bannerMsg{task: t})
		},
		Text: func(t model.Task) (string, string) {
			body := t.Description
			if body == "" {
				body = tr.T("ReminderBody")
			}
			return tr.T("ReminderTitle", i18n.Data{"Title": t.Title}), body
		},
		Logger: deps.Logger,
	}
	a.scheduler = reminder.NewScheduler(deps.Clock, func(t model.Task) {
		a.dispatcher.Deliver(t)
	}, deps.Logger)

	a.tooltip = calendar.NewTooltip(deps.Clock, func(target string, at calendar.Point) {
		a.post(tooltipMsg{target: target, at: at})
	})

	a.unsubscribe = append(a.unsubscribe,
		a.store.SubscribeFunc(a.onChange),
		a.cloud.OnStatusChange(func(s cloud.Status) {
			a.post(syncStatusMsg{status: s})
		}),
	)

	a.history.Push(initialRoute)
	a.setRoute(initialRoute)
	return a
}

// Message types
type backgroundMsg struct{ inner tea.Msg }
type syncStatusMsg struct{ status cloud.Status }
type bannerMsg struct{ task model.Task }
type bannerExpiredMsg struct{ id int }
type clockTickMsg struct{}

type tooltipMsg struct {
	target string
	at     calendar.Point
}

// restoredMsg carries the merged state of a restore. A nil state means there
// was nothing new to apply.
type restoredMsg struct {
	state  *model.State
	err    error
	manual bool
}

type loginDoneMsg struct{ err error }

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	a.scheduler.Sync(a.state.Tasks)
	return tea.Batch(
		a.spinner.Tick,
		a.listen(),
		a.initSync(),
		a.tickClock(),
	)
}

// Close stops background work. The caller flushes pending saves.
func (a *App) Close() {
	for _, fn := range a.unsubscribe {
		fn()
	}
	a.scheduler.Stop()
	a.tooltip.Leave()
}

// post hands msg to Update from any goroutine. Messages are dropped when
// the buffer is full rather than blocking a timer.
func (a *App) post(msg tea.Msg) {
	select {
	case a.events <- msg:
	default:
		a.logger.Warn("dropped background message", zap.String("type", typeName(msg)))
	}
}

func typeName(msg tea.Msg) string {
	switch msg.(type) {
	case bannerMsg:
		return "banner"
	case tooltipMsg:
		return "tooltip"
	case syncStatusMsg:
		return "sync_status"
	}
	return "other"
}

// listen waits for the next posted message.
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		return backgroundMsg{inner: <-a.events}
	}
}

func (a *App) tickClock() tea.Cmd {
	return tea.Tick(time.Minute, func(time.Time) tea.Msg {
		return clockTickMsg{}
	})
}

// onChange observes the store. Mutations only happen inside Update, so this
// runs on the UI goroutine.
func (a *App) onChange(c store.Change) {
	a.state = c.State
	a.scheduler.Sync(c.State.Tasks)
	a.cloud.SchedulePush(c.State)
	a.refresh()
}

// initSync validates stored credentials and pulls the backup once connected.
func (a *App) initSync() tea.Cmd {
	if !a.cloud.Enabled() {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		a.cloud.Init(ctx)
		if a.cloud.Status().State != cloud.StateConnected {
			return nil
		}
		merged, err := a.cloud.Restore(ctx, a.store.State(), false)
		return restoredMsg{state: merged, err: err}
	}
}

func (a *App) restoreCmd(force bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		merged, err := a.cloud.Restore(ctx, a.store.State(), force)
		return restoredMsg{state: merged, err: err, manual: force}
	}
}

// syncNowCmd pulls and merges the backup, then uploads the result.
func (a *App) syncNowCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		local := a.store.State()
		merged, err := a.cloud.Restore(ctx, local, true)
		if err != nil {
			return restoredMsg{err: err, manual: true}
		}
		upload := local
		if merged != nil {
			upload = merge.State(local, *merged)
		}
		if _, err := a.cloud.PushNow(ctx, upload); err != nil {
			return restoredMsg{state: merged, err: err, manual: true}
		}
		return restoredMsg{state: merged, manual: true}
	}
}

func (a *App) loginCmd() tea.Cmd {
	signIn := a.signIn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
		defer cancel()
		return loginDoneMsg{err: a.cloud.Login(ctx, signIn)}
	}
}

func (a *App) showBanner(t model.Task) tea.Cmd {
	a.bannerSeq++
	id := a.bannerSeq
	title, body := a.dispatcher.Text(t)
	a.banner = &banner{id: id, text: title + " · " + body}
	a.layout()
	return tea.Tick(bannerTimeout, func(time.Time) tea.Msg {
		return bannerExpiredMsg{id: id}
	})
}

func (a *App) closeBanner() {
	if a.banner == nil {
		return
	}
	a.banner = nil
	a.layout()
}
