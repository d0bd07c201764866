package listener

import (
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func ready() *Listener {
	l := New(zerolog.Nop())
	atomic.StoreInt32(&l.state, STATE_READY)
	return l
}

func TestListener_StartStop(t *testing.T) {
	l := ready()
	assert.False(t, l.IsRunning())

	l.OnStart()
	assert.True(t, l.IsRunning())
	l.OnStart()
	assert.True(t, l.IsRunning())

	l.OnStop()
	assert.False(t, l.IsRunning())
	assert.False(t, l.ShouldExit())

	l.OnStart()
	assert.True(t, l.IsRunning())
}

func TestListener_HotkeysIgnoredBeforeStart(t *testing.T) {
	l := New(zerolog.Nop())
	l.OnStart()
	assert.False(t, l.IsRunning())
}

func TestListener_StopWhenIdle(t *testing.T) {
	l := ready()
	l.OnStop()
	assert.False(t, l.IsRunning())
	assert.False(t, l.ShouldExit())
}

func TestListener_ExitState(t *testing.T) {
	l := ready()
	l.OnStart()
	atomic.StoreInt32(&l.state, STATE_STOPPING)

	assert.True(t, l.ShouldExit())
	assert.False(t, l.IsRunning())
	l.OnStart()
	assert.True(t, l.ShouldExit())
}
