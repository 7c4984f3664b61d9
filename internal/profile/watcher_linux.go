//go:build linux

package profile

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/godbus/dbus/v5"
)

// linuxProbe prefers a session-bus watch on the desktop environment's active
// window signal (org.freedesktop.impl.portal.Settings on GNOME/KDE), falling
// back to polling xdotool/wmctrl at the Watcher's own poll cadence if the
// bus signal never arrives, per spec.md §4.5.
type linuxProbe struct {
	conn   *dbus.Conn
	signal chan *dbus.Signal
	last   string
}

func newFrontmostProbe() frontmostProbe {
	p := &linuxProbe{}
	conn, err := dbus.SessionBus()
	if err == nil {
		p.conn = conn
		p.signal = make(chan *dbus.Signal, 8)
		conn.Signal(p.signal)
		_ = conn.AddMatchSignal(
			dbus.WithMatchInterface("org.freedesktop.impl.portal.Settings"),
			dbus.WithMatchMember("SettingChanged"),
		)
	}
	return p
}

func (p *linuxProbe) Frontmost() (string, error) {
	if p.conn != nil {
		select {
		case sig := <-p.signal:
			if id := parseWindowSignal(sig); id != "" {
				p.last = id
				return id, nil
			}
		default:
		}
		if p.last != "" {
			return p.last, nil
		}
	}
	return p.pollActiveWindow()
}

func parseWindowSignal(sig *dbus.Signal) string {
	for _, v := range sig.Body {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// pollActiveWindow shells out to wmctrl, a common X11 fallback when no
// portal signal is available (e.g. minimal window managers, no xdg-desktop-portal).
func (p *linuxProbe) pollActiveWindow() (string, error) {
	out, err := exec.Command("wmctrl", "-a", ":ACTIVE:", "-v").CombinedOutput()
	if err == nil {
		line := strings.TrimSpace(string(out))
		if line != "" {
			return line, nil
		}
	}
	active, err := exec.Command("xdotool", "getactivewindow", "getwindowname").Output()
	if err != nil {
		return "", fmt.Errorf("no frontmost probe available: %w", err)
	}
	return strings.TrimSpace(string(active)), nil
}
