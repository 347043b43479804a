package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sandeepkv93/taskly/internal/model"
)

// DesktopNotifier shows a fired reminder to the user.
type DesktopNotifier interface {
	Send(model.Reminder) error
}

type NoopDesktopNotifier struct{}

func (NoopDesktopNotifier) Send(model.Reminder) error { return nil }

// ExecDesktopNotifier shells out to notify-send on Linux and osascript on
// macOS. Other platforms are silently skipped.
type ExecDesktopNotifier struct{}

func (ExecDesktopNotifier) Send(r model.Reminder) error {
	switch runtime.GOOS {
	case "linux":
		return exec.Command("notify-send", r.Title, r.Body).Run()
	case "darwin":
		script := fmt.Sprintf(`display notification "%s" with title "%s"`, escapeAppleScript(r.Body), escapeAppleScript(r.Title))
		return exec.Command("osascript", "-e", script).Run()
	default:
		return nil
	}
}

func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
