//go:build windows

package main

import (
	"syscall"
	"unsafe"

	"github.com/rs/zerolog"
)

var (
	kernel32 = syscall.NewLazyDLL("kernel32.dll")

	procSetConsoleTitleW = kernel32.NewProc("SetConsoleTitleW")
)

func setConsoleTitle(title string, log zerolog.Logger) {
	titlePtr, err := syscall.UTF16PtrFromString(title)
	if err != nil {
		log.Warn().Err(err).Msg("Invalid console title")
		return
	}
	ret, _, err := procSetConsoleTitleW.Call(uintptr(unsafe.Pointer(titlePtr)))
	if ret == 0 {
		log.Warn().Err(err).Msg("Failed to set console title")
	}
}
