package profile

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// pollInterval is the 1-2Hz fallback cadence spec.md §4.5 allows on
// platforms lacking a push notification for frontmost-app changes.
const pollInterval = 700 * time.Millisecond

// frontmostProbe is the per-platform collaborator; implementations live in
// watcher_darwin.go, watcher_linux.go, watcher_windows.go.
type frontmostProbe interface {
	// Frontmost returns the current foreground application identifier.
	Frontmost() (string, error)
}

// Watcher observes frontmost-application changes and resolves the matching
// Profile, publishing changes on Changes(). A manual override suppresses
// automatic switching until cleared.
type Watcher struct {
	log     zerolog.Logger
	probe   frontmostProbe
	changes chan *Profile

	mu       sync.Mutex
	profiles []Profile
	current  *Profile
	override *Profile
	lastID   string

	stop chan struct{}
}

// New builds a Watcher over the given profile list, picking the platform
// frontmost probe automatically (see newFrontmostProbe in the per-OS files).
func New(log zerolog.Logger, profiles []Profile) *Watcher {
	return &Watcher{
		log:      log.With().Str("component", "profile").Logger(),
		probe:    newFrontmostProbe(),
		profiles: profiles,
		changes:  make(chan *Profile, 4),
		stop:     make(chan struct{}),
	}
}

// Changes returns the channel on which resolved profile switches are published.
func (w *Watcher) Changes() <-chan *Profile { return w.changes }

// Frontmost returns the last-known frontmost application identifier,
// backing rules.OSQuery.FrontmostApp for the AppFrontmost condition.
func (w *Watcher) Frontmost() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastID
}

// ManualOverride forces a specific profile by name, suppressing automatic
// switches until ClearOverride is called (spec.md §4.5, §6 control socket).
func (w *Watcher) ManualOverride(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i := range w.profiles {
		if w.profiles[i].Name == name {
			w.override = &w.profiles[i]
			w.current = &w.profiles[i]
			select {
			case w.changes <- w.override:
			default:
			}
			return true
		}
	}
	return false
}

// ClearOverride resumes automatic frontmost-driven switching.
func (w *Watcher) ClearOverride() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.override = nil
}

// Start launches the polling goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop halts the polling goroutine.
func (w *Watcher) Stop() { close(w.stop) }

func (w *Watcher) loop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			w.tick()
		}
	}
}

func (w *Watcher) tick() {
	id, err := w.probe.Frontmost()
	if err != nil {
		w.log.Debug().Err(err).Msg("frontmost probe failed")
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if id == w.lastID {
		return
	}
	w.lastID = id

	if w.override != nil {
		return
	}

	resolved := Resolve(w.profiles, id, w.current)
	if resolved == w.current {
		return
	}
	w.current = resolved

	select {
	case w.changes <- resolved:
	default:
	}
}
