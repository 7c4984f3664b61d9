package daemon

import (
	"bufio"
	"encoding/json"
	"io"
	"net"
	"os"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/PixPMusic/gopher-automate/internal/rules"
)

// DefaultSocketPath is overridable by CONDUCTOR_SOCKET, per spec.md §6.
const DefaultSocketPath = "/tmp/conductor.sock"

// maxRequestBytes bounds a single control-socket request, per spec.md §6.
const maxRequestBytes = 1 << 20

// request is the line-delimited JSON envelope read from a connection.
type request struct {
	Command string `json:"command"`
	Name    string `json:"name,omitempty"` // profile name for "profile" override commands
}

// response is the line-delimited JSON envelope written back.
type response struct {
	Status string `json:"status"`
	Code   int    `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`

	// status
	State          string `json:"state,omitempty"`
	UptimeS        int64  `json:"uptime_s,omitempty"`
	ConfigPath     string `json:"config_path,omitempty"`
	LastReloadAgoS int64  `json:"last_reload_ago_s,omitempty"`
	PID            int32  `json:"pid,omitempty"`
	DroppedEvents  uint64 `json:"dropped_events,omitempty"`
	DroppedJobs    uint64 `json:"dropped_jobs,omitempty"`
	InternalErrors uint64 `json:"internal_errors,omitempty"`

	// reload / validate
	OK            bool  `json:"ok,omitempty"`
	DurationMS    int64 `json:"duration_ms,omitempty"`
	MappingsCount int   `json:"mappings_count,omitempty"`
	ModesCount    int   `json:"modes_count,omitempty"`

	// ping
	Message string `json:"message,omitempty"`
}

// profileSwitcher is the minimal surface ControlSocket needs from
// profile.Watcher to implement spec.md §4.5's "force a specific profile,
// suppressing automatic switches until cleared" — a local interface so this
// package doesn't need to import internal/profile's full surface.
type profileSwitcher interface {
	ManualOverride(name string) bool
	ClearOverride()
}

// Status is the snapshot ControlSocket's "status" command reports,
// supplied by the daemon's main wiring.
type Status struct {
	ConfigPath     string
	StartedAt      time.Time
	DroppedEvents  func() uint64
	DroppedJobs    func() uint64
	InternalErrors func() uint64
}

// ControlSocket implements spec.md §6: a Unix-domain socket accepting one
// JSON object per line, one goroutine per connection, request size capped
// at 1 MiB.
type ControlSocket struct {
	log      zerolog.Logger
	path     string
	ln       net.Listener
	watcher  *Watcher
	status   Status
	profiles profileSwitcher

	stopping atomic.Bool
	onStop   func()
}

// NewControlSocket binds the Unix socket at path, removing any stale socket
// file left behind by a crashed prior instance. profiles may be nil, in
// which case the "profile" command reports it unsupported rather than
// panicking — not every deployment configures per-application profiles.
func NewControlSocket(log zerolog.Logger, path string, watcher *Watcher, status Status, profiles profileSwitcher, onStop func()) (*ControlSocket, error) {
	_ = os.Remove(path)
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &ControlSocket{
		log:      log.With().Str("component", "daemon.socket").Logger(),
		path:     path,
		ln:       ln,
		watcher:  watcher,
		status:   status,
		profiles: profiles,
		onStop:   onStop,
	}, nil
}

// Serve accepts connections until Close is called. Intended to run in its
// own goroutine.
func (c *ControlSocket) Serve() {
	for {
		conn, err := c.ln.Accept()
		if err != nil {
			if c.stopping.Load() {
				return
			}
			c.log.Warn().Err(err).Msg("accept failed")
			continue
		}
		go c.handle(conn)
	}
}

// Close stops accepting connections and removes the socket file.
func (c *ControlSocket) Close() error {
	c.stopping.Store(true)
	err := c.ln.Close()
	_ = os.Remove(c.path)
	return err
}

func (c *ControlSocket) handle(conn net.Conn) {
	defer conn.Close()

	connID := uuid.New().String()
	log := c.log.With().Str("conn_id", connID).Logger()
	log.Debug().Msg("control connection opened")

	// The reader is capped one byte beyond the allowed request and the
	// scanner buffer one byte beyond that, so an oversized line is read up to
	// the cap, ends at the reader's EOF instead of a scan error, and is
	// rejected with a proper 1004 response rather than silently dropped.
	limited := io.LimitReader(conn, maxRequestBytes+1)
	scanner := bufio.NewScanner(limited)
	scanner.Buffer(make([]byte, 4096), maxRequestBytes+2)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) > maxRequestBytes {
			c.writeResponse(conn, response{Status: "error", Code: CodeInvalidRequest, Error: ErrRequestTooLarge.Error()})
			continue
		}

		var req request
		if err := json.Unmarshal(line, &req); err != nil {
			c.writeResponse(conn, response{Status: "error", Code: CodeInvalidRequest, Error: "malformed request"})
			continue
		}

		c.writeResponse(conn, c.dispatch(req))
	}
}

func (c *ControlSocket) writeResponse(conn net.Conn, resp response) {
	enc := json.NewEncoder(conn)
	if err := enc.Encode(resp); err != nil {
		c.log.Debug().Err(err).Msg("write response failed")
	}
}

func (c *ControlSocket) dispatch(req request) response {
	switch req.Command {
	case "status":
		return c.handleStatus()
	case "reload":
		return c.handleReload()
	case "validate":
		return c.handleValidate()
	case "stop":
		return c.handleStop()
	case "profile":
		return c.handleProfile(req)
	case "ping":
		return response{Status: "ok", Message: "pong"}
	default:
		return response{Status: "error", Code: CodeUnknownCommand, Error: "unknown command: " + req.Command}
	}
}

func (c *ControlSocket) handleStatus() response {
	lastReload, _ := c.watcher.LastReload()
	var agoS int64
	if !lastReload.IsZero() {
		agoS = int64(time.Since(lastReload).Seconds())
	}

	uptimeS := int64(time.Since(c.status.StartedAt).Seconds())
	pid := int32(os.Getpid())
	if proc, err := process.NewProcess(pid); err == nil {
		if createdMS, err := proc.CreateTime(); err == nil {
			uptimeS = (time.Now().UnixMilli() - createdMS) / 1000
		}
	}

	var dropped, droppedJobs, internalErrs uint64
	if c.status.DroppedEvents != nil {
		dropped = c.status.DroppedEvents()
	}
	if c.status.DroppedJobs != nil {
		droppedJobs = c.status.DroppedJobs()
	}
	if c.status.InternalErrors != nil {
		internalErrs = c.status.InternalErrors()
	}

	return response{
		Status:         "ok",
		State:          "running",
		UptimeS:        uptimeS,
		ConfigPath:     c.status.ConfigPath,
		LastReloadAgoS: agoS,
		PID:            pid,
		DroppedEvents:  dropped,
		DroppedJobs:    droppedJobs,
		InternalErrors: internalErrs,
	}
}

func (c *ControlSocket) handleReload() response {
	res := c.watcher.Reload()
	if res.Err != nil {
		return response{Status: "error", Code: CodeConfigLoad, Error: res.Err.Error(), DurationMS: res.DurationMS}
	}
	return response{Status: "ok", OK: true, DurationMS: res.DurationMS, MappingsCount: res.MappingsCount, ModesCount: res.ModesCount}
}

func (c *ControlSocket) handleValidate() response {
	start := time.Now()
	rs, err := rules.Load(c.status.ConfigPath)
	durationMS := time.Since(start).Milliseconds()
	if err != nil {
		return response{Status: "error", Code: CodeConfigLoad, Error: err.Error(), DurationMS: durationMS}
	}
	mappings := len(rs.GlobalMappings)
	for _, m := range rs.Modes {
		mappings += len(m.Mappings)
	}
	return response{Status: "ok", OK: true, DurationMS: durationMS, MappingsCount: mappings, ModesCount: len(rs.Modes)}
}

func (c *ControlSocket) handleStop() response {
	if c.onStop != nil {
		go c.onStop()
	}
	return response{Status: "ok", Message: "stopping"}
}

// handleProfile implements spec.md §4.5's "force a specific profile,
// suppressing automatic switches until cleared": {"command":"profile","name":
// "studio"} forces that profile, {"command":"profile"} with no name clears
// the override and resumes automatic frontmost-driven switching.
func (c *ControlSocket) handleProfile(req request) response {
	if c.profiles == nil {
		return response{Status: "error", Code: CodeInvalidArgs, Error: "profile switching not configured"}
	}
	if req.Name == "" {
		c.profiles.ClearOverride()
		return response{Status: "ok", Message: "override cleared"}
	}
	if !c.profiles.ManualOverride(req.Name) {
		return response{Status: "error", Code: CodeInvalidArgs, Error: "unknown profile: " + req.Name}
	}
	return response{Status: "ok", Message: "forced profile: " + req.Name}
}
