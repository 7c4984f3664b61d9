package daemon

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PixPMusic/gopher-automate/internal/logging"
)

func TestStateSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(logging.New("test"), path)
	require.NoError(t, err)
	defer s.Close()

	want := AppState{CurrentMode: "Default", ActiveProfile: "Ableton", LastDeviceID: "xyz", LEDScheme: "rainbow"}
	require.NoError(t, s.Save(want))

	got := s.Load()
	assert.Equal(t, want, got)
}

func TestStateLoadReturnsDefaultsWhenFileMissing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(logging.New("test"), path)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, AppState{}, s.Load())
}

func TestStateLoadReturnsDefaultsOnCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	s, err := Open(logging.New("test"), path)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Save(AppState{CurrentMode: "Default"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	raw[0] ^= 0xFF // corrupt the body without touching the footer length
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	assert.Equal(t, AppState{}, s.Load())
}

func TestOpenFailsWhenAlreadyLocked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	first, err := Open(logging.New("test"), path)
	require.NoError(t, err)
	defer first.Close()

	_, err = Open(logging.New("test"), path)
	assert.Error(t, err, "a second daemon sharing the same state directory must fail to acquire the lock")
}
