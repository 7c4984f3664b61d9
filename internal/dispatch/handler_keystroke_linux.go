//go:build linux

package dispatch

import (
	"fmt"
	"strings"

	"github.com/bendahl/uinput"
)

var uinputKeyByName = map[string]int{
	"a": uinput.KeyA, "b": uinput.KeyB, "c": uinput.KeyC, "d": uinput.KeyD,
	"e": uinput.KeyE, "f": uinput.KeyF, "g": uinput.KeyG, "h": uinput.KeyH,
	"i": uinput.KeyI, "j": uinput.KeyJ, "k": uinput.KeyK, "l": uinput.KeyL,
	"m": uinput.KeyM, "n": uinput.KeyN, "o": uinput.KeyO, "p": uinput.KeyP,
	"q": uinput.KeyQ, "r": uinput.KeyR, "s": uinput.KeyS, "t": uinput.KeyT,
	"u": uinput.KeyU, "v": uinput.KeyV, "w": uinput.KeyW, "x": uinput.KeyX,
	"y": uinput.KeyY, "z": uinput.KeyZ,
	"0": uinput.Key0, "1": uinput.Key1, "2": uinput.Key2, "3": uinput.Key3,
	"4": uinput.Key4, "5": uinput.Key5, "6": uinput.Key6, "7": uinput.Key7,
	"8": uinput.Key8, "9": uinput.Key9,
	"enter": uinput.KeyEnter, "return": uinput.KeyEnter,
	"tab": uinput.KeyTab, "space": uinput.KeySpace, "esc": uinput.KeyEsc,
	"escape": uinput.KeyEsc, "backspace": uinput.KeyBackspace,
	"up": uinput.KeyUp, "down": uinput.KeyDown, "left": uinput.KeyLeft, "right": uinput.KeyRight,
}

var uinputModifierByName = map[string]int{
	"cmd": uinput.KeyLeftmeta, "super": uinput.KeyLeftmeta, "meta": uinput.KeyLeftmeta,
	"ctrl": uinput.KeyLeftctrl, "control": uinput.KeyLeftctrl,
	"alt": uinput.KeyLeftalt, "option": uinput.KeyLeftalt,
	"shift": uinput.KeyLeftshift,
}

// uinputSupported reports whether /dev/uinput can be opened for writing; a
// failed open means the daemon fell back to the other-platform shell path.
func uinputSupported() bool {
	kb, err := uinput.CreateKeyboard("/dev/uinput", []byte("conductord"))
	if err != nil {
		return false
	}
	kb.Close()
	return true
}

func keystrokeExecute(keys string, modifiers []string) (string, error) {
	if !uinputSupported() {
		return shellKeystrokeExecute(keys, modifiers)
	}

	kb, err := uinput.CreateKeyboard("/dev/uinput", []byte("conductord"))
	if err != nil {
		return "", fmt.Errorf("uinput: open keyboard: %w", err)
	}
	defer kb.Close()

	var mods []int
	for _, m := range modifiers {
		code, ok := uinputModifierByName[strings.ToLower(m)]
		if !ok {
			return "", fmt.Errorf("unknown modifier: %s", m)
		}
		mods = append(mods, code)
	}

	code, ok := uinputKeyByName[strings.ToLower(keys)]
	if !ok {
		return "", fmt.Errorf("unknown key: %s", keys)
	}

	for _, m := range mods {
		if err := kb.KeyDown(m); err != nil {
			return "", fmt.Errorf("uinput: key down: %w", err)
		}
	}
	if err := kb.KeyPress(code); err != nil {
		return "", fmt.Errorf("uinput: key press: %w", err)
	}
	for i := len(mods) - 1; i >= 0; i-- {
		if err := kb.KeyUp(mods[i]); err != nil {
			return "", fmt.Errorf("uinput: key up: %w", err)
		}
	}

	return fmt.Sprintf("pressed %s", keys), nil
}
