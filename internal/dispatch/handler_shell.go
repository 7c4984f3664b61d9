package dispatch

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// ShellHandler runs Action{Type: Shell}, near-verbatim from the teacher's
// ShellHandler: PowerShell on Windows, zsh-if-available-else-bash on darwin,
// bash on linux.
type ShellHandler struct{}

func (h *ShellHandler) IsSupported() bool { return true }
func (h *ShellHandler) Blocking() bool    { return true }

func (h *ShellHandler) Execute(a rules.Action) (string, error) {
	code := a.Command

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("powershell", "-NoProfile", "-NonInteractive", "-Command", code)
	case "darwin", "linux":
		shell := "/bin/bash"
		if runtime.GOOS == "darwin" {
			if _, err := exec.LookPath("zsh"); err == nil {
				shell = "/bin/zsh"
			}
		}
		cmd = exec.Command(shell, "-c", code)
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg != "" {
			return stdout.String(), fmt.Errorf("shell error: %s", strings.TrimSpace(errMsg))
		}
		return stdout.String(), fmt.Errorf("shell execution failed: %v", err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (h *ShellHandler) Validate(a rules.Action) error {
	code := a.Command
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("empty command")
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		if strings.Contains(code, "\x00") {
			return fmt.Errorf("command contains null bytes")
		}
		return nil
	case "darwin", "linux":
		cmd = exec.Command("/bin/bash", "-n", "-c", code)
	default:
		return nil
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg != "" {
			return fmt.Errorf("syntax error: %s", strings.TrimSpace(errMsg))
		}
		return fmt.Errorf("validation failed: %v", err)
	}

	return nil
}

// ShellName returns the name of the shell used on this platform, used by
// status/diagnostics surfaces.
func (h *ShellHandler) ShellName() string {
	switch runtime.GOOS {
	case "windows":
		return "PowerShell"
	case "darwin":
		return "zsh"
	case "linux":
		return "bash"
	default:
		return "shell"
	}
}
