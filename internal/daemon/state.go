package daemon

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
)

// AppState is the crash-safe snapshot persisted between runs, per spec.md §3
// "AppState{CurrentMode, ActiveProfile, LastDeviceID, LEDScheme}". LEDScheme
// is carried as an opaque string since LED rendering is an external
// collaborator (spec.md §1) whose schema this module does not own.
type AppState struct {
	CurrentMode   string `json:"current_mode"`
	ActiveProfile string `json:"active_profile"`
	LastDeviceID  string `json:"last_device_id"`
	LEDScheme     string `json:"led_scheme"`
}

// footerLen is the width of the trailing 8-byte integrity hash appended to
// the serialized JSON body.
const footerLen = 8

// State owns state.json's on-disk lifecycle: an advisory flock held for the
// process's lifetime (preventing two daemons from sharing one config
// directory), and write-temp→fsync→rename saves with an xxhash integrity
// footer, per spec.md §4.4/§7 "StateCorruption".
type State struct {
	log  zerolog.Logger
	path string
	lock *flock.Flock
}

// Open acquires the advisory lock on path and returns a State handle. The
// lock is held until Close is called (normally at process shutdown).
func Open(log zerolog.Logger, path string) (*State, error) {
	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("daemon: acquire state lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("daemon: state directory already locked by another daemon")
	}
	return &State{
		log:  log.With().Str("component", "daemon.state").Logger(),
		path: path,
		lock: lock,
	}, nil
}

// Close releases the advisory lock.
func (s *State) Close() error { return s.lock.Unlock() }

// Load reads and integrity-checks state.json, falling back to zero-value
// defaults (and a logged warning) on a missing file or a hash mismatch,
// exactly per spec.md §7 StateCorruption — never a fatal error.
func (s *State) Load() AppState {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn().Err(err).Msg("state file unreadable, using defaults")
		}
		return AppState{}
	}

	if len(raw) < footerLen {
		s.log.Warn().Err(ErrStateCorruption).Msg("state file too short, using defaults")
		return AppState{}
	}

	body := raw[:len(raw)-footerLen]
	footer := raw[len(raw)-footerLen:]
	want := binary.BigEndian.Uint64(footer)
	got := xxhash.Sum64(body)
	if want != got {
		s.log.Warn().Err(ErrStateCorruption).Msg("state file integrity mismatch, using defaults")
		return AppState{}
	}

	var st AppState
	if err := json.Unmarshal(body, &st); err != nil {
		s.log.Warn().Err(err).Msg("state file not valid JSON, using defaults")
		return AppState{}
	}
	return st
}

// Save serializes st and writes it via write-temp→fsync→rename, appending
// an xxhash.Sum64 integrity footer, per spec.md §4.4.
func (s *State) Save(st AppState) error {
	body, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("daemon: marshal state: %w", err)
	}

	sum := xxhash.Sum64(body)
	footer := make([]byte, footerLen)
	binary.BigEndian.PutUint64(footer, sum)

	tmp := s.path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("daemon: open state temp file: %w", err)
	}
	if _, err := f.Write(append(body, footer...)); err != nil {
		f.Close()
		return fmt.Errorf("daemon: write state temp file: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("daemon: fsync state temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("daemon: close state temp file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("daemon: rename state file: %w", err)
	}
	return nil
}

// DefaultStatePath returns the conventional state.json location alongside
// the given config directory.
func DefaultStatePath(configPath string) string {
	return filepath.Join(filepath.Dir(configPath), "state.json")
}
