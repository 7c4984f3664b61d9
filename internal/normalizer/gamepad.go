package normalizer

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/veandco/go-sdl2/sdl"

	"github.com/PixPMusic/gopher-automate/internal/unifiedevent"
)

// pollInterval drives sdl.PollEvent at ~1000Hz, per spec.md §4.1.
const pollInterval = time.Millisecond

// deadZonePercent is the fixed 10% radial dead zone applied to stick axes
// before emission; trigger axes are emitted raw (internal/timing owns the
// rising-edge threshold for those).
const deadZonePercent = 0.10

// sdlButtonToControlID maps an sdl.GameControllerButton to the named
// ControlID constants in internal/unifiedevent.
var sdlButtonToControlID = map[sdl.GameControllerButton]unifiedevent.ControlID{
	sdl.CONTROLLER_BUTTON_A:             unifiedevent.ButtonFaceA,
	sdl.CONTROLLER_BUTTON_B:             unifiedevent.ButtonFaceB,
	sdl.CONTROLLER_BUTTON_X:             unifiedevent.ButtonFaceX,
	sdl.CONTROLLER_BUTTON_Y:             unifiedevent.ButtonFaceY,
	sdl.CONTROLLER_BUTTON_DPAD_UP:       unifiedevent.ButtonDPadUp,
	sdl.CONTROLLER_BUTTON_DPAD_DOWN:     unifiedevent.ButtonDPadDown,
	sdl.CONTROLLER_BUTTON_DPAD_LEFT:     unifiedevent.ButtonDPadLeft,
	sdl.CONTROLLER_BUTTON_DPAD_RIGHT:    unifiedevent.ButtonDPadRight,
	sdl.CONTROLLER_BUTTON_LEFTSHOULDER:  unifiedevent.ButtonShoulderLeft,
	sdl.CONTROLLER_BUTTON_RIGHTSHOULDER: unifiedevent.ButtonShoulderRight,
	sdl.CONTROLLER_BUTTON_LEFTSTICK:     unifiedevent.ButtonStickLeftClick,
	sdl.CONTROLLER_BUTTON_RIGHTSTICK:    unifiedevent.ButtonStickRightClick,
	sdl.CONTROLLER_BUTTON_BACK:          unifiedevent.ButtonMenuBack,
	sdl.CONTROLLER_BUTTON_START:         unifiedevent.ButtonMenuStart,
	sdl.CONTROLLER_BUTTON_GUIDE:         unifiedevent.ButtonMenuGuide,
}

// sdlAxisToControlID maps an sdl.GameControllerAxis to the named axis
// ControlID constants.
var sdlAxisToControlID = map[sdl.GameControllerAxis]unifiedevent.ControlID{
	sdl.CONTROLLER_AXIS_LEFTX:        unifiedevent.AxisStickLeft,
	sdl.CONTROLLER_AXIS_LEFTY:        unifiedevent.AxisStickLeft,
	sdl.CONTROLLER_AXIS_RIGHTX:       unifiedevent.AxisStickRight,
	sdl.CONTROLLER_AXIS_RIGHTY:       unifiedevent.AxisStickRight,
	sdl.CONTROLLER_AXIS_TRIGGERLEFT:  unifiedevent.AxisTriggerLeft,
	sdl.CONTROLLER_AXIS_TRIGGERRIGHT: unifiedevent.AxisTriggerRight,
}

func isStickAxis(axis sdl.GameControllerAxis) bool {
	switch axis {
	case sdl.CONTROLLER_AXIS_LEFTX, sdl.CONTROLLER_AXIS_LEFTY,
		sdl.CONTROLLER_AXIS_RIGHTX, sdl.CONTROLLER_AXIS_RIGHTY:
		return true
	default:
		return false
	}
}

// backoff implements the reconnection policy from spec.md §4.1: exponential,
// base 500ms, capped at 30s.
type backoff struct {
	attempt int
}

func (b *backoff) next() time.Duration {
	d := 500 * time.Millisecond
	for i := 0; i < b.attempt; i++ {
		d *= 2
		if d >= 30*time.Second {
			return 30 * time.Second
		}
	}
	b.attempt++
	return d
}

func (b *backoff) reset() { b.attempt = 0 }

// GamepadAdapter polls SDL2 game controller events and emits
// UnifiedInputEvent for button/axis/hot-plug activity.
type GamepadAdapter struct {
	log        zerolog.Logger
	stopCh     chan struct{}
	controller *sdl.GameController
	backoff    backoff
}

// NewGamepadAdapter constructs an adapter; Start launches the poll loop.
func NewGamepadAdapter(log zerolog.Logger) *GamepadAdapter {
	return &GamepadAdapter{
		log:    log.With().Str("adapter", "gamepad").Logger(),
		stopCh: make(chan struct{}),
	}
}

// Start initializes the SDL game-controller subsystem and launches the
// ~1000Hz poll loop on its own goroutine.
func (a *GamepadAdapter) Start(emit func(unifiedevent.UnifiedInputEvent)) error {
	if err := sdl.Init(sdl.INIT_GAMECONTROLLER | sdl.INIT_JOYSTICK); err != nil {
		return err
	}
	a.openFirstAvailable()

	go a.pollLoop(emit)
	return nil
}

// Stop halts the poll loop and releases SDL resources.
func (a *GamepadAdapter) Stop() {
	close(a.stopCh)
	if a.controller != nil {
		a.controller.Close()
	}
	sdl.Quit()
}

func (a *GamepadAdapter) openFirstAvailable() {
	for i := 0; i < sdl.NumJoysticks(); i++ {
		if sdl.IsGameController(i) {
			if c := sdl.GameControllerOpen(i); c != nil {
				a.controller = c
				a.backoff.reset()
				a.log.Info().Int("index", i).Msg("gamepad connected")
				return
			}
		}
	}
}

func (a *GamepadAdapter) pollLoop(emit func(unifiedevent.UnifiedInputEvent)) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	reconnectTimer := time.NewTimer(0)
	if !reconnectTimer.Stop() {
		<-reconnectTimer.C
	}
	defer reconnectTimer.Stop()

	for {
		select {
		case <-a.stopCh:
			return

		case <-reconnectTimer.C:
			a.openFirstAvailable()
			if a.controller == nil {
				reconnectTimer.Reset(a.backoff.next())
			}

		case <-ticker.C:
			for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
				a.handle(ev, emit, reconnectTimer)
			}
		}
	}
}

func (a *GamepadAdapter) handle(event sdl.Event, emit func(unifiedevent.UnifiedInputEvent), reconnectTimer *time.Timer) {
	now := time.Now()

	switch e := event.(type) {
	case *sdl.ControllerButtonEvent:
		id, ok := sdlButtonToControlID[sdl.GameControllerButton(e.Button)]
		if !ok {
			return
		}
		if e.State == sdl.PRESSED {
			emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.ButtonDown, ControlID: id, Value: 127, Timestamp: now})
		} else {
			emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.ButtonUp, ControlID: id, Timestamp: now})
		}

	case *sdl.ControllerAxisEvent:
		axis := sdl.GameControllerAxis(e.Axis)
		id, ok := sdlAxisToControlID[axis]
		if !ok {
			return
		}
		// e.Value is int16: sticks report [-32768,32767], triggers [0,32767].
		// Normalize to 0-255 centered at 128 for sticks, 0-255 unsigned
		// magnitude for triggers.
		var value int16
		if isStickAxis(axis) {
			value = int16(128 + int32(e.Value)*128/32767)
			if value > 255 {
				value = 255
			}
			if mag := absFloat(float64(value-128)) / 128.0; mag <= deadZonePercent {
				value = 128
			}
		} else {
			value = int16(int32(e.Value) * 255 / 32767)
			if value < 0 {
				value = 0
			}
		}
		emit(unifiedevent.UnifiedInputEvent{Kind: unifiedevent.AxisValue, ControlID: id, Value: value, Timestamp: now})

	case *sdl.ControllerDeviceEvent:
		switch e.Type {
		case sdl.CONTROLLERDEVICEADDED:
			a.openFirstAvailable()
		case sdl.CONTROLLERDEVICEREMOVED:
			a.log.Warn().Msg("gamepad disconnected, entering reconnect backoff")
			if a.controller != nil {
				a.controller.Close()
				a.controller = nil
			}
			a.backoff.reset()
			reconnectTimer.Reset(a.backoff.next())
		}
	}
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
