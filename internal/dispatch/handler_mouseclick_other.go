//go:build !linux

package dispatch

func mouseClickExecute(button string, hasPos bool, x, y int) (string, error) {
	return shellMouseClickExecute(button, hasPos, x, y)
}
