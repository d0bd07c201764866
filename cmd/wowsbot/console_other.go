//go:build !windows

package main

import "github.com/rs/zerolog"

func setConsoleTitle(string, zerolog.Logger) {}
