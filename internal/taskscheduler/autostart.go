package taskscheduler

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/emersion/go-autostart"

	"github.com/oshokin/alarm-clock/internal/version"
)

// LoginAutostart relaunches a command at user login through the desktop
// autostart mechanism (XDG autostart, launch agents, Startup folder).
type LoginAutostart struct {
	// exec is the command line to launch.
	exec []string
}

// NewLoginAutostart creates an autostarter that launches exec.
func NewLoginAutostart(exec []string) *LoginAutostart {
	return &LoginAutostart{
		exec: exec,
	}
}

// SiblingExecutable returns the path of an executable installed next to the current one.
func SiblingExecutable(name string) (string, error) {
	self, err := os.Executable()
	if err != nil {
		return "", err
	}

	self, err = filepath.EvalSymlinks(self)
	if err != nil {
		return "", err
	}

	return filepath.Join(filepath.Dir(self), name+filepath.Ext(self)), nil
}

// Enable installs the autostart entry for the task, replacing a stale command line.
func (a *LoginAutostart) Enable(name string) error {
	return a.app(name).Enable()
}

// Disable removes the autostart entry for the task if it exists.
func (a *LoginAutostart) Disable(name string) error {
	app := a.app(name)
	if !app.IsEnabled() {
		return nil
	}

	return app.Disable()
}

func (a *LoginAutostart) app(name string) *autostart.App {
	return &autostart.App{
		Name:        entryName(name),
		DisplayName: "Alarm clock (" + name + ")",
		Exec:        a.exec,
	}
}

// entryName derives a file-system friendly autostart entry name from a task name.
func entryName(task string) string {
	return version.AppName + "-" + strings.ReplaceAll(strings.ToLower(task), "_", "-")
}
