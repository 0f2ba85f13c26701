//go:build !windows

package daemon

import (
	"errors"

	"go.uber.org/zap"
)

// ErrTrayUnsupported is returned by NewTrayApp outside Windows; the daemon
// then runs headless and reminders go to the log only
var ErrTrayUnsupported = errors.New("system tray is only supported on Windows")

// TrayApp is a no-op outside Windows
type TrayApp struct{}

func NewTrayApp(daemon *Daemon, logger *zap.Logger) (*TrayApp, error) {
	return nil, ErrTrayUnsupported
}

func (t *TrayApp) Run() {}

func (t *TrayApp) Stop() {}

func (t *TrayApp) SetSessionText(text string) {}

func (t *TrayApp) ShowNotification(title, message string) {}
