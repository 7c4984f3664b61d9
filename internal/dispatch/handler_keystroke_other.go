//go:build !linux

package dispatch

func keystrokeExecute(keys string, modifiers []string) (string, error) {
	return shellKeystrokeExecute(keys, modifiers)
}
