//go:build windows

package game

import (
	"errors"
	"image"

	"github.com/go-vgo/robotgo"
	"github.com/tailscale/win"
)

const frameStyles = win.WS_CAPTION | win.WS_THICKFRAME | win.WS_MINIMIZEBOX | win.WS_MAXIMIZEBOX | win.WS_SYSMENU

// findHwnd looks the window up by pid, game clients share one title.
func findHwnd(pid int) (win.HWND, error) {
	hwnd := win.HWND(robotgo.GetHandPid(pid))
	if hwnd == 0 {
		return 0, errors.New("window handle not found")
	}
	return hwnd, nil
}

func setBorderless(pid int) error {
	hwnd, err := findHwnd(pid)
	if err != nil {
		return err
	}
	style := uint32(win.GetWindowLong(hwnd, win.GWL_STYLE))
	style &^= frameStyles
	style |= win.WS_POPUP
	win.SetWindowLong(hwnd, win.GWL_STYLE, int32(style))
	return nil
}

func placeWindow(pid int, r image.Rectangle) error {
	hwnd, err := findHwnd(pid)
	if err != nil {
		return err
	}
	ok := win.SetWindowPos(hwnd, win.HWND_TOP,
		int32(r.Min.X), int32(r.Min.Y), int32(r.Dx()), int32(r.Dy()),
		win.SWP_SHOWWINDOW|win.SWP_FRAMECHANGED)
	if !ok {
		return errors.New("SetWindowPos failed")
	}
	return nil
}
