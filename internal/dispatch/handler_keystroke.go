package dispatch

import (
	"fmt"
	"strings"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// KeystrokeHandler runs Action{Type: Keystroke}. Platform-specific execution
// lives in handler_keystroke_linux.go (bendahl/uinput) and
// handler_keystroke_other.go (shell/AppleScript fallback), split the way the
// teacher's AppleScriptHandler gates itself with IsSupported() rather than
// branching on runtime.GOOS inside one function body.
type KeystrokeHandler struct{}

func (h *KeystrokeHandler) IsSupported() bool { return true }
func (h *KeystrokeHandler) Blocking() bool    { return false }

func (h *KeystrokeHandler) Execute(a rules.Action) (string, error) {
	if strings.TrimSpace(a.Keys) == "" {
		return "", fmt.Errorf("keys required")
	}
	return keystrokeExecute(a.Keys, a.Modifiers)
}

func (h *KeystrokeHandler) Validate(a rules.Action) error {
	if strings.TrimSpace(a.Keys) == "" {
		return fmt.Errorf("keys required")
	}
	return nil
}
