package daemon

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
)

// Signals installs SIGTERM/SIGINT/SIGHUP handlers that trigger an emergency
// state save before exit, per spec.md §4.4 and §7's shutdown policy.
type Signals struct {
	log  zerolog.Logger
	ch   chan os.Signal
	stop chan struct{}
}

// NewSignals registers the handler set. onSignal is invoked once per
// received signal, before the process is allowed to exit; callers typically
// pass a closure that calls State.Save then os.Exit.
func NewSignals(log zerolog.Logger, onSignal func(os.Signal)) *Signals {
	s := &Signals{
		log:  log.With().Str("component", "daemon.signals").Logger(),
		ch:   make(chan os.Signal, 4),
		stop: make(chan struct{}),
	}
	signal.Notify(s.ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-s.stop:
				return
			case sig := <-s.ch:
				s.log.Info().Str("signal", sig.String()).Msg("received signal, saving state")
				onSignal(sig)
			}
		}
	}()

	return s
}

// Stop deregisters the signal handler and halts the goroutine.
func (s *Signals) Stop() {
	signal.Stop(s.ch)
	close(s.stop)
}
