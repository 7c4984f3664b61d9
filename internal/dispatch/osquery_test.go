package dispatch

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeFrontmostSource struct{ id string }

func (f fakeFrontmostSource) Frontmost() string { return f.id }

func TestOSQueryFrontmostAppDelegatesToWatcher(t *testing.T) {
	q := &OSQuery{Watcher: fakeFrontmostSource{id: "com.ableton.live"}}
	assert.Equal(t, "com.ableton.live", q.FrontmostApp())
}

func TestOSQueryFrontmostAppEmptyWithoutWatcher(t *testing.T) {
	q := &OSQuery{}
	assert.Equal(t, "", q.FrontmostApp())
}

func TestOSQueryIsAppRunningFindsOwnProcess(t *testing.T) {
	q := &OSQuery{}
	exe, err := os.Executable()
	if err != nil {
		t.Skip("os.Executable unavailable in this environment")
	}
	name := exe
	if idx := lastSlash(exe); idx >= 0 {
		name = exe[idx+1:]
	}
	assert.True(t, q.IsAppRunning(name), "the running test binary's own process should be found in the process table")
}

func lastSlash(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '/' || s[i] == '\\' {
			return i
		}
	}
	return -1
}
