package stopflag

import (
	"errors"
	"sync/atomic"
)

// ErrStopped is returned by every cancellable action once the flag is set.
var ErrStopped = errors.New("stop requested")

// Flag is the cooperative cancellation primitive shared by a game session.
// The zero value is a cleared flag.
type Flag struct {
	v atomic.Bool
}

func New() *Flag {
	return &Flag{}
}

func (f *Flag) Set() {
	f.v.Store(true)
}

func (f *Flag) Clear() {
	f.v.Store(false)
}

// IsSet reports whether a stop was requested. A nil flag never stops.
func (f *Flag) IsSet() bool {
	return f != nil && f.v.Load()
}

// Check returns ErrStopped when the flag is set.
func (f *Flag) Check() error {
	if f.IsSet() {
		return ErrStopped
	}
	return nil
}
