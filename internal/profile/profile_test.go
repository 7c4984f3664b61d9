package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func sampleProfiles() []Profile {
	return []Profile{
		{Name: "Ableton", BundleIDs: []string{"com.ableton.live"}, ConfigPath: "ableton.toml"},
		{Name: "Default", IsDefault: true, ConfigPath: "default.toml"},
		{Name: "Resolve", BundleIDs: []string{"com.blackmagic.resolve"}, ConfigPath: "resolve.toml"},
	}
}

func TestResolveMatchesByBundleID(t *testing.T) {
	profiles := sampleProfiles()
	got := Resolve(profiles, "com.blackmagic.resolve", &profiles[1])
	assert.Equal(t, "Resolve", got.Name)
}

func TestResolveFallsBackToDefaultWhenNoBundleMatches(t *testing.T) {
	profiles := sampleProfiles()
	got := Resolve(profiles, "com.unknown.app", &profiles[0])
	assert.Equal(t, "Default", got.Name)
}

func TestResolveRetainsCurrentWhenNoDefaultExists(t *testing.T) {
	profiles := []Profile{
		{Name: "Ableton", BundleIDs: []string{"com.ableton.live"}},
		{Name: "Resolve", BundleIDs: []string{"com.blackmagic.resolve"}},
	}
	current := &profiles[0]
	got := Resolve(profiles, "com.unknown.app", current)
	assert.Same(t, current, got)
}

func TestResolvePrefersFirstBundleMatchOverDefault(t *testing.T) {
	profiles := sampleProfiles()
	got := Resolve(profiles, "com.ableton.live", &profiles[1])
	assert.Equal(t, "Ableton", got.Name)
}

func TestManualOverrideSuppressesAutomaticSwitch(t *testing.T) {
	w := &Watcher{profiles: sampleProfiles(), probe: fakeProbe{id: "com.ableton.live"}, changes: make(chan *Profile, 4)}

	ok := w.ManualOverride("Resolve")
	assert.True(t, ok)
	assert.Equal(t, "Resolve", w.current.Name)

	select {
	case p := <-w.changes:
		assert.Equal(t, "Resolve", p.Name)
	default:
		t.Fatal("expected a published change from ManualOverride")
	}

	w.lastID = "com.ableton.live-changed"
	w.tick()
	assert.Equal(t, "Resolve", w.current.Name, "override must suppress automatic resolution")
}

func TestClearOverrideResumesAutomaticSwitch(t *testing.T) {
	profiles := sampleProfiles()
	w := &Watcher{profiles: profiles, changes: make(chan *Profile, 4), probe: fakeProbe{id: "com.ableton.live"}}

	w.ManualOverride("Resolve")
	w.ClearOverride()
	w.tick()

	assert.Equal(t, "Ableton", w.current.Name)
}

func TestManualOverrideUnknownNameReturnsFalse(t *testing.T) {
	w := &Watcher{profiles: sampleProfiles(), changes: make(chan *Profile, 4)}
	assert.False(t, w.ManualOverride("Nonexistent"))
}

type fakeProbe struct{ id string }

func (f fakeProbe) Frontmost() (string, error) { return f.id, nil }
