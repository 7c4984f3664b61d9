package dispatch

import (
	"strings"

	"github.com/shirou/gopsutil/v3/process"
)

// frontmostSource supplies the last-known frontmost application identifier;
// satisfied by *profile.Watcher. Declared here so that dispatch does not
// need to import internal/profile.
type frontmostSource interface {
	Frontmost() string
}

// OSQuery implements rules.OSQuery, backing AppRunning via gopsutil/v3's
// process table scan and AppFrontmost via the profile switcher's
// last-known value, per spec.md §4.3.
type OSQuery struct {
	Watcher frontmostSource
}

// IsAppRunning performs a case-insensitive substring match against the
// running process table's executable names, per spec.md §4.3.
func (q *OSQuery) IsAppRunning(name string) bool {
	procs, err := process.Processes()
	if err != nil {
		return false
	}
	want := strings.ToLower(name)
	for _, p := range procs {
		exe, err := p.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(exe), want) {
			return true
		}
	}
	return false
}

// FrontmostApp returns the last-known frontmost application identifier.
func (q *OSQuery) FrontmostApp() string {
	if q.Watcher == nil {
		return ""
	}
	return q.Watcher.Frontmost()
}
