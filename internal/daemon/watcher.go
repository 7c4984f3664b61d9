package daemon

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// debounceWindow coalesces bursts of filesystem events into a single reload,
// per spec.md §4.4 "coalesce events within a 500 ms debounce window".
const debounceWindow = 500 * time.Millisecond

// ReloadResult reports the outcome of a single reload attempt, consumed by
// ControlSocket's "reload" command and by Watcher's own debounce loop.
type ReloadResult struct {
	OK            bool
	Err           error
	DurationMS    int64
	MappingsCount int
	ModesCount    int
}

// Watcher wraps fsnotify on a single config path and performs the
// debounce → load → validate → atomic-swap cycle of spec.md §4.4. On
// failure the previously active rule set is left untouched.
type Watcher struct {
	log    zerolog.Logger
	path   string
	holder *RuleSetHolder

	fsw *fsnotify.Watcher

	lastReload    time.Time
	lastReloadErr error

	stop chan struct{}

	// OnReload, if set, is invoked after every reload attempt (success or
	// failure) — conductord uses it to push the new rule set's timing
	// settings into the event processor.
	OnReload func(ReloadResult, *rules.RuleSet)
}

// NewWatcher builds a Watcher over path, whose fsnotify subscription is
// established immediately so no event between construction and Start is lost.
func NewWatcher(log zerolog.Logger, path string, holder *RuleSetHolder) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(path); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{
		log:    log.With().Str("component", "daemon.watcher").Logger(),
		path:   path,
		holder: holder,
		fsw:    fsw,
		stop:   make(chan struct{}),
	}, nil
}

// Start launches the debounce/reload goroutine.
func (w *Watcher) Start() {
	go w.loop()
}

// Stop tears down the fsnotify subscription and the debounce goroutine.
func (w *Watcher) Stop() {
	close(w.stop)
	_ = w.fsw.Close()
}

func (w *Watcher) loop() {
	var timer *time.Timer

	for {
		select {
		case <-w.stop:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
			} else {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(debounceWindow)
			}

		case <-timerC(timer):
			w.Reload()
			timer = nil

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("fsnotify error")
		}
	}
}

// timerC safely selects on a possibly-nil timer's channel.
func timerC(t *time.Timer) <-chan time.Time {
	if t == nil {
		return nil
	}
	return t.C
}

// Reload performs one load-validate-swap cycle, independent of the debounce
// loop, so ControlSocket's "reload" command can trigger it directly.
func (w *Watcher) Reload() ReloadResult {
	start := time.Now()
	rs, err := rules.Load(w.path)
	if err != nil {
		w.lastReloadErr = err
		w.log.Warn().Err(err).Msg("reload failed, retaining active rule set")
		res := ReloadResult{OK: false, Err: err, DurationMS: time.Since(start).Milliseconds()}
		if w.OnReload != nil {
			w.OnReload(res, nil)
		}
		return res
	}

	w.holder.Swap(rs)
	w.lastReload = time.Now()
	w.lastReloadErr = nil

	mappings := len(rs.GlobalMappings)
	for _, m := range rs.Modes {
		mappings += len(m.Mappings)
	}

	res := ReloadResult{
		OK:            true,
		DurationMS:    time.Since(start).Milliseconds(),
		MappingsCount: mappings,
		ModesCount:    len(rs.Modes),
	}
	w.log.Info().Int("mappings", mappings).Int("modes", res.ModesCount).Msg("rule set reloaded")
	if w.OnReload != nil {
		w.OnReload(res, rs)
	}
	return res
}

// LastReload reports when the last successful reload completed, and whether
// the most recent attempt (successful or not) failed.
func (w *Watcher) LastReload() (time.Time, error) {
	return w.lastReload, w.lastReloadErr
}

// SwitchPath repoints the watcher at a new config file and performs an
// immediate load-validate-swap, backing internal/profile's automatic
// config substitution (spec.md §4.5: "Switching profiles reuses the §4.4
// load-and-swap machinery"). On failure the previously watched path and
// active rule set are both retained.
func (w *Watcher) SwitchPath(path string) ReloadResult {
	if err := w.fsw.Add(path); err != nil {
		w.log.Warn().Err(err).Str("path", path).Msg("failed to watch profile config, keeping prior profile")
		return ReloadResult{OK: false, Err: err}
	}

	prev := w.path
	w.path = path
	res := w.Reload()
	if !res.OK {
		w.path = prev
		_ = w.fsw.Remove(path)
		return res
	}

	_ = w.fsw.Remove(prev)
	return res
}
