package dispatch

import (
	"bytes"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// VolumeControlHandler runs Action{Type: VolumeControl}. It is entirely
// shell-backed, following the teacher's ShellHandler platform-selection
// pattern rather than a native mixer API, since no SPEC_FULL component needs
// fine-grained mixer access beyond set/mute/step.
type VolumeControlHandler struct{}

func (h *VolumeControlHandler) IsSupported() bool { return true }
func (h *VolumeControlHandler) Blocking() bool    { return true }

func (h *VolumeControlHandler) Execute(a rules.Action) (string, error) {
	value := 0
	if a.Value != nil {
		value = *a.Value
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = darwinVolumeCmd(a.Op, value)
	case "linux":
		cmd = linuxVolumeCmd(a.Op, value)
	case "windows":
		cmd = windowsVolumeCmd(a.Op, value)
	default:
		return "", fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	if cmd == nil {
		return "", fmt.Errorf("unknown volume op: %s", a.Op)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errMsg := stderr.String()
		if errMsg != "" {
			return "", fmt.Errorf("volume error: %s", strings.TrimSpace(errMsg))
		}
		return "", fmt.Errorf("volume command failed: %v", err)
	}

	return fmt.Sprintf("volume %s", a.Op), nil
}

func (h *VolumeControlHandler) Validate(a rules.Action) error {
	switch a.Op {
	case "Set", "Increase", "Decrease", "Mute", "Unmute", "ToggleMute":
		return nil
	default:
		return fmt.Errorf("unknown volume op: %s", a.Op)
	}
}

func darwinVolumeCmd(op string, value int) *exec.Cmd {
	switch op {
	case "Set":
		return exec.Command("osascript", "-e", fmt.Sprintf("set volume output volume %d", value))
	case "Increase":
		return exec.Command("osascript", "-e", fmt.Sprintf("set volume output volume (output volume of (get volume settings) + %d)", value))
	case "Decrease":
		return exec.Command("osascript", "-e", fmt.Sprintf("set volume output volume (output volume of (get volume settings) - %d)", value))
	case "Mute":
		return exec.Command("osascript", "-e", "set volume with output muted")
	case "Unmute":
		return exec.Command("osascript", "-e", "set volume without output muted")
	case "ToggleMute":
		return exec.Command("osascript", "-e", "set volume output muted not (output muted of (get volume settings))")
	default:
		return nil
	}
}

func linuxVolumeCmd(op string, value int) *exec.Cmd {
	switch op {
	case "Set":
		return exec.Command("pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%d%%", value))
	case "Increase":
		return exec.Command("pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("+%d%%", value))
	case "Decrease":
		return exec.Command("pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("-%d%%", value))
	case "Mute":
		return exec.Command("pactl", "set-sink-mute", "@DEFAULT_SINK@", "1")
	case "Unmute":
		return exec.Command("pactl", "set-sink-mute", "@DEFAULT_SINK@", "0")
	case "ToggleMute":
		return exec.Command("pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle")
	default:
		return nil
	}
}

func windowsVolumeCmd(op string, value int) *exec.Cmd {
	switch op {
	case "Mute":
		return exec.Command("nircmd", "mutesysvolume", "1")
	case "Unmute":
		return exec.Command("nircmd", "mutesysvolume", "0")
	case "ToggleMute":
		return exec.Command("nircmd", "mutesysvolume", "2")
	case "Set":
		return exec.Command("nircmd", "setsysvolume", fmt.Sprint(value*655))
	case "Increase":
		return exec.Command("nircmd", "changesysvolume", fmt.Sprint(value*655))
	case "Decrease":
		return exec.Command("nircmd", "changesysvolume", fmt.Sprint(-value*655))
	default:
		return nil
	}
}
