package reminder

import (
	"github.com/gen2brain/beeep"
	"go.uber.org/zap"

	"github.com/hy4ri/taskgrid/internal/model"
)

// Notifier shows a desktop notification.
type Notifier interface {
	Notify(title, body string) error
}

// BeeepNotifier sends notifications through the desktop notification
// service.
type BeeepNotifier struct {
	Icon string
}

// Notify implements Notifier.
func (n BeeepNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, n.Icon)
}

// Path is the channel a reminder was delivered through.
type Path int

const (
	PathNative Path = iota + 1
	PathBanner
)

// Dispatcher delivers a reminder through exactly one path: the native
// notifier when it is permitted and succeeds, otherwise the banner.
type Dispatcher struct {
	Native    Notifier
	Permitted bool
	Banner    func(model.Task)
	// Text renders the notification title and body.
	Text   func(model.Task) (title, body string)
	Logger *zap.Logger
}

// Deliver shows the reminder for t.
func (d *Dispatcher) Deliver(t model.Task) Path {
	if d.Permitted && d.Native != nil {
		title, body := d.text(t)
		err := d.Native.Notify(title, body)
		if err == nil {
			return PathNative
		}
		d.logger().Warn("failed to send notification", zap.String("task", t.ID), zap.Error(err))
	}
	if d.Banner != nil {
		d.Banner(t)
	}
	return PathBanner
}

func (d *Dispatcher) text(t model.Task) (string, string) {
	if d.Text != nil {
		return d.Text(t)
	}
	body := t.Description
	if body == "" {
		body = "Time to get it done."
	}
	return "Reminder: " + t.Title, body
}

func (d *Dispatcher) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}
