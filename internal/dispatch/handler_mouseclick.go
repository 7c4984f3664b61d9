package dispatch

import (
	"fmt"
	"strings"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// MouseClickHandler runs Action{Type: MouseClick}, split across platform
// files the same way KeystrokeHandler is.
type MouseClickHandler struct{}

func (h *MouseClickHandler) IsSupported() bool { return true }
func (h *MouseClickHandler) Blocking() bool    { return false }

func (h *MouseClickHandler) Execute(a rules.Action) (string, error) {
	if strings.TrimSpace(a.Button) == "" {
		return "", fmt.Errorf("button required")
	}
	var x, y int
	if a.X != nil {
		x = *a.X
	}
	if a.Y != nil {
		y = *a.Y
	}
	return mouseClickExecute(a.Button, a.X != nil && a.Y != nil, x, y)
}

func (h *MouseClickHandler) Validate(a rules.Action) error {
	switch strings.ToLower(a.Button) {
	case "left", "right", "middle":
		return nil
	default:
		return fmt.Errorf("unknown button: %s", a.Button)
	}
}
