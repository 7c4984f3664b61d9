// Command conductord is the long-running background service described by
// spec.md: it normalizes MIDI/gamepad input, resolves it against a
// hot-reloadable TOML rule set, and dispatches OS-level actions.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/PixPMusic/gopher-automate/internal/daemon"
	"github.com/PixPMusic/gopher-automate/internal/dispatch"
	"github.com/PixPMusic/gopher-automate/internal/logging"
	"github.com/PixPMusic/gopher-automate/internal/normalizer"
	"github.com/PixPMusic/gopher-automate/internal/profile"
	"github.com/PixPMusic/gopher-automate/internal/rules"
	"github.com/PixPMusic/gopher-automate/internal/startup"
	"github.com/PixPMusic/gopher-automate/internal/timing"
	"github.com/PixPMusic/gopher-automate/internal/unifiedevent"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the active rule set")
	profilesPath := flag.String("profiles", "profiles.toml", "path to the per-application profile list; missing file disables profile switching")
	socketPath := flag.String("socket", daemon.DefaultSocketPath, "control socket path")
	midiPort := flag.String("midi-port", "", "MIDI input port name; empty disables MIDI")
	gamepad := flag.Bool("gamepad", true, "enable gamepad polling")
	registerStartup := flag.Bool("register-startup", false, "register conductord for OS autostart and exit")
	_ = flag.Bool("daemon", false, "accepted from the Linux autostart entry; has no effect")
	flag.Parse()

	if s := os.Getenv("CONDUCTOR_SOCKET"); s != "" {
		*socketPath = s
	}

	log := logging.New("conductord")

	if *registerStartup {
		if err := startup.Enable(); err != nil {
			log.Fatal().Err(err).Msg("failed to register for startup")
		}
		fmt.Println("registered for startup")
		return
	}

	rs, err := rules.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load initial rule set")
	}

	statePath := daemon.DefaultStatePath(*configPath)
	st, err := daemon.Open(log, statePath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to acquire state lock")
	}
	defer st.Close()

	appState := st.Load()
	if appState.CurrentMode != "" {
		for i, m := range rs.Modes {
			if m.Name == appState.CurrentMode {
				rs.CurrentModeIndex = i
				break
			}
		}
	}

	modeNames := make([]string, len(rs.Modes))
	for i, m := range rs.Modes {
		modeNames[i] = m.Name
	}

	holder := daemon.NewRuleSetHolder(rs)

	disp := dispatch.New(log, modeNames)
	disp.SetModeIndex(rs.CurrentModeIndex)

	profiles, err := profile.LoadFile(*profilesPath)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load profiles, profile switching disabled")
	}
	profileWatcher := profile.New(log, profiles)
	profileWatcher.Start()
	defer profileWatcher.Stop()

	osQuery := &dispatch.OSQuery{Watcher: profileWatcher}

	norm := normalizer.New(log)
	if *midiPort != "" {
		if err := norm.StartMIDI(*midiPort); err != nil {
			log.Warn().Err(err).Msg("failed to start MIDI adapter")
		}
	}
	if *gamepad {
		if err := norm.StartGamepad(); err != nil {
			log.Warn().Err(err).Msg("failed to start gamepad adapter")
		}
	}
	defer norm.Stop()

	proc := timing.New(timing.Settings{
		HoldThresholdMS:    rs.Advanced.HoldThresholdMS,
		DoubleTapTimeoutMS: rs.Advanced.DoubleTapTimeoutMS,
		ChordTimeoutMS:     rs.Advanced.ChordTimeoutMS,
		TriggerThreshold:   timing.DefaultTriggerThreshold,
	}, func(ev unifiedevent.ProcessedEvent) {
		handleProcessedEvent(log, holder, disp, osQuery, modeNames, ev)
	})
	stopGC := proc.StartGC(time.Minute)
	defer stopGC()

	watcher, err := daemon.NewWatcher(log, *configPath, holder)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start config watcher")
	}
	watcher.OnReload = func(res daemon.ReloadResult, newRS *rules.RuleSet) {
		if !res.OK || newRS == nil {
			return
		}
		proc.UpdateSettings(timing.Settings{
			HoldThresholdMS:    newRS.Advanced.HoldThresholdMS,
			DoubleTapTimeoutMS: newRS.Advanced.DoubleTapTimeoutMS,
			ChordTimeoutMS:     newRS.Advanced.ChordTimeoutMS,
			TriggerThreshold:   timing.DefaultTriggerThreshold,
		})
	}
	watcher.Start()
	defer watcher.Stop()

	startedAt := time.Now()
	shuttingDown := make(chan struct{})
	var stopOnce bool
	activeProfile := appState.ActiveProfile

	stop := func() {
		if stopOnce {
			return
		}
		stopOnce = true

		snapshot := daemon.AppState{ActiveProfile: activeProfile}
		if idx := disp.CurrentModeIndex(); idx >= 0 && idx < len(modeNames) {
			snapshot.CurrentMode = modeNames[idx]
		}
		if err := st.Save(snapshot); err != nil {
			log.Error().Err(err).Msg("failed to save state on shutdown")
		}
		close(shuttingDown)
	}

	sock, err := daemon.NewControlSocket(log, *socketPath, watcher, daemon.Status{
		ConfigPath:     *configPath,
		StartedAt:      startedAt,
		DroppedEvents:  norm.DroppedCount,
		DroppedJobs:    func() uint64 { return 0 },
		InternalErrors: disp.InternalErrorCount,
	}, profileWatcher, stop)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to bind control socket")
	}
	go sock.Serve()
	defer sock.Close()

	signals := daemon.NewSignals(log, func(os.Signal) { stop() })
	defer signals.Stop()

	log.Info().Str("config", *configPath).Str("socket", *socketPath).Msg("conductord started")

	for {
		select {
		case ev, ok := <-norm.Events():
			if !ok {
				return
			}
			proc.Feed(ev)
		case <-shuttingDown:
			return
		case p := <-profileWatcher.Changes():
			if p == nil || p.ConfigPath == "" {
				continue
			}
			log.Info().Str("profile", p.Name).Str("config", p.ConfigPath).Msg("switching active profile")
			if res := watcher.SwitchPath(p.ConfigPath); res.OK {
				activeProfile = p.Name
			}
		case mc := <-disp.ModeChanges():
			log.Info().Int("mode_index", mc.NewIndex).Str("mode", mc.NewName).Msg("mode changed")
		}
	}
}

// handleProcessedEvent matches one ProcessedEvent against the currently
// active rule set and, on a hit, dispatches its action — generalizing the
// teacher's direct grid-callback-to-handler wiring into the spec's
// match-then-dispatch pipeline (spec.md §4.3).
//
// The current mode name is resolved from disp.CurrentModeIndex(), the
// single live mode index ModeChange actions mutate, rather than from
// rs.CurrentModeIndex (a field only ever set once at load time). modeNames
// is the declared mode order shared with the Dispatcher, so a mode index a
// ModeChange action just stored is immediately visible to matching here.
func handleProcessedEvent(
	log zerolog.Logger,
	holder *daemon.RuleSetHolder,
	disp *dispatch.Dispatcher,
	osQuery *dispatch.OSQuery,
	modeNames []string,
	ev unifiedevent.ProcessedEvent,
) {
	rs := holder.Load()
	if rs == nil {
		return
	}

	currentMode := ""
	if idx := disp.CurrentModeIndex(); idx >= 0 && idx < len(modeNames) {
		currentMode = modeNames[idx]
	}

	mapping, ok := rules.Match(rs, currentMode, ev)
	if !ok {
		return
	}

	action := mapping.Action
	if mapping.VelocityMapping != nil {
		applyCurveOutput(&action, mapping.VelocityMapping.Apply(ev.Velocity))
	}

	evalCtx := rules.NewEvalContext(time.Now(), currentMode, osQuery)
	ctx, cancel := context.WithTimeout(context.Background(), dispatch.DefaultTimeout)
	defer cancel()

	if err := disp.Dispatch(ctx, action, evalCtx); err != nil {
		log.Warn().Err(err).Str("action", string(action.Type)).Msg("dispatch failed")
	}
}

// applyCurveOutput substitutes a velocity-curve result into the outgoing
// action's velocity/value-bearing field, resolving spec.md §9's Open
// Question: the transformed 0-127 value is exposed to whichever field names
// velocity or a CC/value on the matched action.
func applyCurveOutput(a *rules.Action, curved uint8) {
	if a.Type != rules.ActionSendMidi {
		return
	}
	v := int(curved)
	a.Message.Velocity = v
	if a.Message.Type == "CC" {
		a.Message.Value = v
	}
}
