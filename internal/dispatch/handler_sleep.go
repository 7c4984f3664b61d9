package dispatch

import (
	"fmt"
	"time"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// SleepHandler runs Action{Type: Delay}, kept verbatim in behavior from the
// teacher's SleepHandler except it reads a millisecond field instead of
// parsing a string-encoded float-seconds code.
type SleepHandler struct{}

func (h *SleepHandler) IsSupported() bool { return true }
func (h *SleepHandler) Blocking() bool    { return true }

func (h *SleepHandler) Execute(a rules.Action) (string, error) {
	if a.MS <= 0 {
		return "", fmt.Errorf("empty duration")
	}
	time.Sleep(time.Duration(a.MS) * time.Millisecond)
	return fmt.Sprintf("slept for %dms", a.MS), nil
}

func (h *SleepHandler) Validate(a rules.Action) error {
	if a.MS <= 0 {
		return fmt.Errorf("duration must be > 0")
	}
	return nil
}
