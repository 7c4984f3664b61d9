package dispatch

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// LaunchHandler runs Action{Type: Launch}. It reuses the teacher's
// AppleScriptHandler "tell application ... activate" pattern on darwin, and
// adds the equivalent thin OS collaborators on linux/windows.
type LaunchHandler struct{}

func (h *LaunchHandler) IsSupported() bool { return true }
func (h *LaunchHandler) Blocking() bool    { return true }

func (h *LaunchHandler) Execute(a rules.Action) (string, error) {
	app := a.App

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`tell application "%s" to activate`, escapeAppleScriptString(app))
		cmd = exec.Command("osascript", "-e", script)
	case "linux":
		if _, err := exec.LookPath("gtk-launch"); err == nil {
			cmd = exec.Command("gtk-launch", app)
		} else {
			cmd = exec.Command("xdg-open", app)
		}
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", "", app)
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg != "" {
			return "", fmt.Errorf("launch error: %s", strings.TrimSpace(errMsg))
		}
		return "", fmt.Errorf("launch failed: %v", err)
	}

	return fmt.Sprintf("launched %s", app), nil
}

func (h *LaunchHandler) Validate(a rules.Action) error {
	if strings.TrimSpace(a.App) == "" {
		return fmt.Errorf("app required")
	}
	return nil
}

func escapeAppleScriptString(s string) string {
	return strings.ReplaceAll(s, `"`, `\"`)
}
