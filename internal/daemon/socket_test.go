package daemon

import (
	"bufio"
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PixPMusic/gopher-automate/internal/logging"
	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// fakeProfileSwitcher is a test double for profile.Watcher's
// ManualOverride/ClearOverride surface.
type fakeProfileSwitcher struct {
	known     map[string]bool
	overrides []string
	cleared   int
}

func (f *fakeProfileSwitcher) ManualOverride(name string) bool {
	if !f.known[name] {
		return false
	}
	f.overrides = append(f.overrides, name)
	return true
}

func (f *fakeProfileSwitcher) ClearOverride() {
	f.cleared++
}

func newTestSocket(t *testing.T) (*ControlSocket, string) {
	return newTestSocketWithProfiles(t, nil)
}

func newTestSocketWithProfiles(t *testing.T, profiles profileSwitcher) (*ControlSocket, string) {
	t.Helper()
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(validConfig), 0o644))

	rs, err := rules.Load(configPath)
	require.NoError(t, err)
	holder := NewRuleSetHolder(rs)

	w, err := NewWatcher(logging.New("test"), configPath, holder)
	require.NoError(t, err)
	t.Cleanup(w.Stop)

	sockPath := filepath.Join(dir, "conductor.sock")
	stopped := false
	sock, err := NewControlSocket(logging.New("test"), sockPath, w, Status{
		ConfigPath:     configPath,
		StartedAt:      time.Now(),
		DroppedEvents:  func() uint64 { return 3 },
		DroppedJobs:    func() uint64 { return 0 },
		InternalErrors: func() uint64 { return 0 },
	}, profiles, func() { stopped = true })
	require.NoError(t, err)
	t.Cleanup(func() { sock.Close() })

	go sock.Serve()
	return sock, sockPath
}

func sendRequest(t *testing.T, sockPath string, req request) response {
	t.Helper()
	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn.Close()

	body, err := json.Marshal(req)
	require.NoError(t, err)
	_, err = conn.Write(append(body, '\n'))
	require.NoError(t, err)

	var resp response
	scanner := bufio.NewScanner(conn)
	require.True(t, scanner.Scan())
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
	return resp
}

func TestControlSocketPing(t *testing.T) {
	_, sockPath := newTestSocket(t)
	resp := sendRequest(t, sockPath, request{Command: "ping"})
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "pong", resp.Message)
}

func TestControlSocketStatus(t *testing.T) {
	_, sockPath := newTestSocket(t)
	resp := sendRequest(t, sockPath, request{Command: "status"})
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "running", resp.State)
	assert.Equal(t, uint64(3), resp.DroppedEvents)
}

func TestControlSocketValidate(t *testing.T) {
	_, sockPath := newTestSocket(t)
	resp := sendRequest(t, sockPath, request{Command: "validate"})
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.ModesCount)
}

func TestControlSocketReload(t *testing.T) {
	_, sockPath := newTestSocket(t)
	resp := sendRequest(t, sockPath, request{Command: "reload"})
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.OK)
}

func TestControlSocketUnknownCommand(t *testing.T) {
	_, sockPath := newTestSocket(t)
	resp := sendRequest(t, sockPath, request{Command: "bogus"})
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeUnknownCommand, resp.Code)
}

func TestControlSocketProfileForcesKnownProfile(t *testing.T) {
	fake := &fakeProfileSwitcher{known: map[string]bool{"studio": true}}
	_, sockPath := newTestSocketWithProfiles(t, fake)

	resp := sendRequest(t, sockPath, request{Command: "profile", Name: "studio"})
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []string{"studio"}, fake.overrides)
}

func TestControlSocketProfileRejectsUnknownName(t *testing.T) {
	fake := &fakeProfileSwitcher{known: map[string]bool{"studio": true}}
	_, sockPath := newTestSocketWithProfiles(t, fake)

	resp := sendRequest(t, sockPath, request{Command: "profile", Name: "bogus"})
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeInvalidArgs, resp.Code)
	assert.Empty(t, fake.overrides)
}

func TestControlSocketProfileEmptyNameClearsOverride(t *testing.T) {
	fake := &fakeProfileSwitcher{known: map[string]bool{"studio": true}}
	_, sockPath := newTestSocketWithProfiles(t, fake)

	resp := sendRequest(t, sockPath, request{Command: "profile"})
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, fake.cleared)
}

func TestControlSocketProfileUnconfiguredReturnsError(t *testing.T) {
	_, sockPath := newTestSocket(t)
	resp := sendRequest(t, sockPath, request{Command: "profile", Name: "studio"})
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeInvalidArgs, resp.Code)
}

func TestControlSocketOversizedRequestRejected(t *testing.T) {
	_, sockPath := newTestSocket(t)
	conn, err := net.Dial("unix", sockPath)
	require.NoError(t, err)
	defer conn.Close()

	huge := make([]byte, maxRequestBytes+10)
	for i := range huge {
		huge[i] = 'a'
	}
	_, err = conn.Write(append(huge, '\n'))
	require.NoError(t, err)

	var resp response
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 4096), maxRequestBytes+4096)
	require.True(t, scanner.Scan())
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, CodeInvalidRequest, resp.Code)
}
