//go:build !windows

package game

import "image"

// Window styling is a Win32 concept; elsewhere the window is used as it is.
func setBorderless(int) error {
	return nil
}

func placeWindow(int, image.Rectangle) error {
	return nil
}
