// Package tui provides the terminal user interface for taskgrid.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hy4ri/taskgrid/internal/i18n"
)

// Key represents a key binding.
type Key struct {
	Key  string
	Help string
}

// Keymap contains all key bindings for the application.
type Keymap struct {
	// Navigation
	Up       Key
	Down     Key
	Top      Key
	Bottom   Key
	HalfUp   Key
	HalfDown Key
	Left     Key
	Right    Key

	// Actions
	Select Key
	Back   Key
	Quit   Key
	Help   Key

	// Task actions
	NewTask      Key
	EditTask     Key
	DeleteTask   Key
	CompleteTask Key
	CopyTask     Key
	MoveUp       Key
	MoveDown     Key
	MoveProject  Key
	Priority1    Key
	Priority2    Key
	Priority3    Key
	DueToday     Key
	DueTomorrow  Key
	ClearDone    Key

	// Routes
	GoToday    Key
	GoUpcoming Key
	GoCalendar Key
	GoDone     Key
	GoBack     Key
	Search     Key
	SwitchPane Key

	// Calendar
	CalendarView Key

	// Project actions
	NewProject    Key
	EditProject   Key
	DeleteProject Key

	// Settings and sync
	TimeFormat Key
	SyncNow    Key
	SyncLogin  Key
}

// DefaultKeymap returns the default Vim-style key bindings.
func DefaultKeymap() Keymap {
	return Keymap{
		Up:       Key{Key: "k", Help: "up"},
		Down:     Key{Key: "j", Help: "down"},
		Top:      Key{Key: "g", Help: "top (gg)"},
		Bottom:   Key{Key: "G", Help: "bottom"},
		HalfUp:   Key{Key: "ctrl+u", Help: "half page up"},
		HalfDown: Key{Key: "ctrl+d", Help: "half page down"},
		Left:     Key{Key: "h", Help: "left"},
		Right:    Key{Key: "l", Help: "right"},

		Select: Key{Key: "enter", Help: "select"},
		Back:   Key{Key: "esc", Help: "back"},
		Quit:   Key{Key: "q", Help: "quit"},
		Help:   Key{Key: "?", Help: "help"},

		NewTask:      Key{Key: "n", Help: "new task"},
		EditTask:     Key{Key: "e", Help: "edit task"},
		DeleteTask:   Key{Key: "d", Help: "delete (dd)"},
		CompleteTask: Key{Key: "x", Help: "complete/uncomplete"},
		CopyTask:     Key{Key: "y", Help: "copy title"},
		MoveUp:       Key{Key: "K", Help: "move up"},
		MoveDown:     Key{Key: "J", Help: "move down"},
		MoveProject:  Key{Key: "m", Help: "move to project"},
		Priority1:    Key{Key: "1", Help: "low priority"},
		Priority2:    Key{Key: "2", Help: "normal priority"},
		Priority3:    Key{Key: "3", Help: "high priority"},
		DueToday:     Key{Key: "<", Help: "due today"},
		DueTomorrow:  Key{Key: ">", Help: "due tomorrow"},
		ClearDone:    Key{Key: "c", Help: "clear completed"},

		GoToday:    Key{Key: "T", Help: "today"},
		GoUpcoming: Key{Key: "U", Help: "next 7 days"},
		GoCalendar: Key{Key: "C", Help: "calendar"},
		GoDone:     Key{Key: "X", Help: "completed"},
		GoBack:     Key{Key: "backspace", Help: "previous view"},
		Search:     Key{Key: "ctrl+k", Help: "search"},
		SwitchPane: Key{Key: "tab", Help: "switch pane"},

		CalendarView: Key{Key: "v", Help: "week/month"},

		NewProject:    Key{Key: "N", Help: "new project"},
		EditProject:   Key{Key: "E", Help: "edit project"},
		DeleteProject: Key{Key: "D", Help: "delete project"},

		TimeFormat: Key{Key: "F", Help: "12h/24h"},
		SyncNow:    Key{Key: "S", Help: "sync now"},
		SyncLogin:  Key{Key: "L", Help: "sign in/out"},
	}
}

// KeyState tracks multi-key sequences (like 'gg' or 'dd').
type KeyState struct {
	LastKey  string
	WaitingG bool // Waiting for second 'g' in 'gg'
	WaitingD bool // Waiting for second 'd' in 'dd'
}

// HandleKey processes a key press and returns the action to take.
// Returns the action name and whether the key was consumed.
func (ks *KeyState) HandleKey(msg tea.KeyMsg, keymap Keymap) (string, bool) {
	key := msg.String()

	if ks.WaitingG {
		ks.WaitingG = false
		if key == keymap.Top.Key {
			return "top", true
		}
	}

	if ks.WaitingD {
		ks.WaitingD = false
		if key == keymap.DeleteTask.Key {
			return "delete", true
		}
	}

	if key == keymap.Top.Key {
		ks.WaitingG = true
		ks.LastKey = key
		return "", true
	}

	if key == keymap.DeleteTask.Key {
		ks.WaitingD = true
		ks.LastKey = key
		return "", true
	}

	switch key {
	case keymap.Up.Key, "up":
		return "up", true
	case keymap.Down.Key, "down":
		return "down", true
	case keymap.Bottom.Key:
		return "bottom", true
	case keymap.HalfUp.Key:
		return "half_up", true
	case keymap.HalfDown.Key:
		return "half_down", true
	case keymap.Left.Key, "left":
		return "left", true
	case keymap.Right.Key, "right":
		return "right", true
	case keymap.Select.Key:
		return "select", true
	case keymap.Back.Key:
		return "back", true
	case keymap.Quit.Key, "ctrl+c":
		return "quit", true
	case keymap.Help.Key:
		return "help", true
	case keymap.NewTask.Key, "a":
		return "add", true
	case keymap.EditTask.Key:
		return "edit", true
	case keymap.CompleteTask.Key:
		return "complete", true
	case keymap.CopyTask.Key:
		return "copy", true
	case keymap.MoveUp.Key:
		return "move_up", true
	case keymap.MoveDown.Key:
		return "move_down", true
	case keymap.MoveProject.Key:
		return "move_project", true
	case keymap.Priority1.Key:
		return "priority1", true
	case keymap.Priority2.Key:
		return "priority2", true
	case keymap.Priority3.Key:
		return "priority3", true
	case keymap.DueToday.Key:
		return "due_today", true
	case keymap.DueTomorrow.Key:
		return "due_tomorrow", true
	case keymap.ClearDone.Key:
		return "clear_done", true
	case keymap.GoToday.Key:
		return "route_today", true
	case keymap.GoUpcoming.Key:
		return "route_upcoming", true
	case keymap.GoCalendar.Key:
		return "route_calendar", true
	case keymap.GoDone.Key:
		return "route_done", true
	case keymap.GoBack.Key:
		return "history_back", true
	case keymap.Search.Key, "/":
		return "search", true
	case keymap.SwitchPane.Key:
		return "switch_pane", true
	case keymap.CalendarView.Key:
		return "calendar_view", true
	case keymap.NewProject.Key:
		return "new_project", true
	case keymap.EditProject.Key:
		return "edit_project", true
	case keymap.DeleteProject.Key:
		return "delete_project", true
	case keymap.TimeFormat.Key:
		return "time_format", true
	case keymap.SyncNow.Key:
		return "sync_now", true
	case keymap.SyncLogin.Key:
		return "sync_login", true
	}

	return "", false
}

// Reset clears any pending multi-key sequences.
func (ks *KeyState) Reset() {
	ks.WaitingG = false
	ks.WaitingD = false
	ks.LastKey = ""
}

// HelpItems returns a slice of key-description pairs for the help view.
func (k Keymap) HelpItems(tr *i18n.Translator) [][]string {
	return [][]string{
		{tr.T("HelpNavigation"), ""},
		{k.Up.Key + "/" + k.Down.Key, tr.T("HelpMove")},
		{"gg/G", tr.T("HelpTopBottom")},
		{k.HalfUp.Key + "/" + k.HalfDown.Key, tr.T("HelpHalfPage")},
		{k.SwitchPane.Key, tr.T("HelpSwitchPane")},
		{k.Select.Key, tr.T("HelpOpen")},
		{k.Back.Key, tr.T("HelpBack")},

		{tr.T("HelpViews"), ""},
		{k.GoToday.Key, tr.T("ViewToday")},
		{k.GoUpcoming.Key, tr.T("ViewUpcoming")},
		{k.GoCalendar.Key, tr.T("ViewCalendar")},
		{k.GoDone.Key, tr.T("ViewDone")},
		{k.Search.Key + " /", tr.T("ViewSearch")},
		{k.GoBack.Key, tr.T("HelpHistoryBack")},

		{tr.T("HelpTasks"), ""},
		{k.NewTask.Key, tr.T("EditorNewTask")},
		{k.EditTask.Key, tr.T("EditorEditTask")},
		{k.CompleteTask.Key, tr.T("HelpComplete")},
		{"dd", tr.T("HelpDelete")},
		{"1/2/3", tr.T("HelpPriority")},
		{k.DueToday.Key + "/" + k.DueTomorrow.Key, tr.T("HelpDue")},
		{k.MoveUp.Key + "/" + k.MoveDown.Key, tr.T("HelpReorder")},
		{k.MoveProject.Key, tr.T("HelpMoveProject")},
		{k.CopyTask.Key, tr.T("HelpCopy")},
		{k.ClearDone.Key, tr.T("HelpClearDone")},

		{tr.T("ViewCalendar"), ""},
		{k.CalendarView.Key, tr.T("HelpCalendarMode")},
		{"[ / ]", tr.T("HelpCalendarPage")},
		{"t", tr.T("HelpCalendarToday")},
		{tr.T("HelpMouseKey"), tr.T("HelpMouse")},

		{tr.T("ViewProjects"), ""},
		{k.NewProject.Key, tr.T("EditorNewProject")},
		{k.EditProject.Key, tr.T("EditorEditProject")},
		{k.DeleteProject.Key, tr.T("HelpDeleteProject")},

		{tr.T("HelpGeneral"), ""},
		{k.TimeFormat.Key, tr.T("HelpTimeFormat")},
		{k.SyncNow.Key, tr.T("HelpSyncNow")},
		{k.SyncLogin.Key, tr.T("HelpSyncLogin")},
		{k.Help.Key, tr.T("HelpToggle")},
		{k.Quit.Key, tr.T("HelpQuit")},
	}
}
