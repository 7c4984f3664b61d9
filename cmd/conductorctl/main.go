// Command conductorctl is the control-socket CLI client described by
// spec.md §6: status/reload/validate/stop/ping against a running conductord.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/alecthomas/kong"
)

// exit codes per spec.md §6.
const (
	exitSuccess           = 0
	exitGenericFailure    = 1
	exitDaemonUnreachable = 2
	exitValidationFailure = 3
)

type cli struct {
	Socket string `help:"control socket path" default:"/tmp/conductor.sock" env:"CONDUCTOR_SOCKET"`

	Status   statusCmd   `cmd:"" help:"report daemon status"`
	Reload   reloadCmd   `cmd:"" help:"force a config reload"`
	Validate validateCmd `cmd:"" help:"validate the on-disk config without swapping"`
	Stop     stopCmd     `cmd:"" help:"gracefully stop the daemon"`
	Profile  profileCmd  `cmd:"" help:"force a profile, or clear the override with no argument"`
	Ping     pingCmd     `cmd:"" help:"round-trip the daemon"`
}

type statusCmd struct {
	JSON bool `help:"print raw JSON response"`
}

type reloadCmd struct{}
type validateCmd struct{}
type stopCmd struct{}
type pingCmd struct{}

type profileCmd struct {
	Name string `arg:"" optional:"" help:"profile name to force; omit to clear the override"`
}

type request struct {
	Command string `json:"command"`
	Name    string `json:"name,omitempty"`
}

type response struct {
	Status string `json:"status"`
	Code   int    `json:"code,omitempty"`
	Error  string `json:"error,omitempty"`

	State          string `json:"state,omitempty"`
	UptimeS        int64  `json:"uptime_s,omitempty"`
	ConfigPath     string `json:"config_path,omitempty"`
	LastReloadAgoS int64  `json:"last_reload_ago_s,omitempty"`
	PID            int32  `json:"pid,omitempty"`
	DroppedEvents  uint64 `json:"dropped_events,omitempty"`
	DroppedJobs    uint64 `json:"dropped_jobs,omitempty"`
	InternalErrors uint64 `json:"internal_errors,omitempty"`

	OK            bool  `json:"ok,omitempty"`
	DurationMS    int64 `json:"duration_ms,omitempty"`
	MappingsCount int   `json:"mappings_count,omitempty"`
	ModesCount    int   `json:"modes_count,omitempty"`

	Message string `json:"message,omitempty"`
}

func send(socketPath, command string) (response, error) {
	return sendNamed(socketPath, command, "")
}

func sendNamed(socketPath, command, name string) (response, error) {
	conn, err := net.DialTimeout("unix", socketPath, 2*time.Second)
	if err != nil {
		return response{}, fmt.Errorf("daemon unreachable: %w", err)
	}
	defer conn.Close()

	body, err := json.Marshal(request{Command: command, Name: name})
	if err != nil {
		return response{}, err
	}
	if _, err := conn.Write(append(body, '\n')); err != nil {
		return response{}, fmt.Errorf("daemon unreachable: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return response{}, fmt.Errorf("daemon unreachable: %w", err)
		}
		return response{}, fmt.Errorf("daemon unreachable: no response")
	}

	var resp response
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return response{}, fmt.Errorf("malformed response: %w", err)
	}
	return resp, nil
}

func (c *statusCmd) Run(app *cli) error {
	resp, err := send(app.Socket, "status")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitDaemonUnreachable)
	}
	if c.JSON {
		return json.NewEncoder(os.Stdout).Encode(resp)
	}
	fmt.Printf("state=%s uptime=%ds config=%s last_reload_ago=%ds pid=%d dropped_events=%d dropped_jobs=%d internal_errors=%d\n",
		resp.State, resp.UptimeS, resp.ConfigPath, resp.LastReloadAgoS, resp.PID, resp.DroppedEvents, resp.DroppedJobs, resp.InternalErrors)
	return nil
}

func (c *reloadCmd) Run(app *cli) error {
	resp, err := send(app.Socket, "reload")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitDaemonUnreachable)
	}
	if resp.Status != "ok" {
		fmt.Fprintf(os.Stderr, "reload failed: %s\n", resp.Error)
		os.Exit(exitGenericFailure)
	}
	fmt.Printf("reloaded in %dms: %d modes, %d mappings\n", resp.DurationMS, resp.ModesCount, resp.MappingsCount)
	return nil
}

func (c *validateCmd) Run(app *cli) error {
	resp, err := send(app.Socket, "validate")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitDaemonUnreachable)
	}
	if resp.Status != "ok" {
		fmt.Fprintf(os.Stderr, "validation failed: %s\n", resp.Error)
		os.Exit(exitValidationFailure)
	}
	fmt.Printf("valid: %d modes, %d mappings\n", resp.ModesCount, resp.MappingsCount)
	return nil
}

func (c *stopCmd) Run(app *cli) error {
	resp, err := send(app.Socket, "stop")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitDaemonUnreachable)
	}
	if resp.Status != "ok" {
		fmt.Fprintf(os.Stderr, "stop failed: %s\n", resp.Error)
		os.Exit(exitGenericFailure)
	}
	fmt.Println(resp.Message)
	return nil
}

func (c *profileCmd) Run(app *cli) error {
	resp, err := sendNamed(app.Socket, "profile", c.Name)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitDaemonUnreachable)
	}
	if resp.Status != "ok" {
		fmt.Fprintf(os.Stderr, "profile command failed: %s\n", resp.Error)
		os.Exit(exitGenericFailure)
	}
	fmt.Println(resp.Message)
	return nil
}

func (c *pingCmd) Run(app *cli) error {
	start := time.Now()
	resp, err := send(app.Socket, "ping")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitDaemonUnreachable)
	}
	if resp.Status != "ok" {
		fmt.Fprintf(os.Stderr, "ping failed: %s\n", resp.Error)
		os.Exit(exitGenericFailure)
	}
	fmt.Printf("%s (%s)\n", resp.Message, time.Since(start))
	return nil
}

func main() {
	var app cli
	parser := kong.Must(&app,
		kong.Name("conductorctl"),
		kong.Description("control client for the conductord background service"),
	)
	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	ctx.FatalIfErrorf(ctx.Run(&app))
	os.Exit(exitSuccess)
}
