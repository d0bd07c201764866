package listener

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	hook "github.com/robotn/gohook"
	"github.com/rs/zerolog"
)

const (
	StartKey = "f10"
	StopKey  = "f11"
)

const (
	STATE_CREATE int32 = iota
	STATE_READY
	STATE_RUNNING
	STATE_STOPPING
)

// Listener turns the F10/F11 hotkeys and process signals into a polled run state.
type Listener struct {
	state int32
	log   zerolog.Logger
}

func New(log zerolog.Logger) *Listener {
	return &Listener{
		state: STATE_CREATE,
		log:   log.With().Str("component", "listener").Logger(),
	}
}

// Start installs the hotkeys and blocks until ctx is done or the process is
// asked to terminate. It only runs once.
func (l *Listener) Start(ctx context.Context) {
	if !atomic.CompareAndSwapInt32(&l.state, STATE_CREATE, STATE_READY) {
		return
	}

	hook.Register(hook.KeyDown, []string{StartKey}, func(hook.Event) { l.OnStart() })
	hook.Register(hook.KeyDown, []string{StopKey}, func(hook.Event) { l.OnStop() })
	l.log.Info().Str("start", StartKey).Str("stop", StopKey).Msg("Hotkeys registered")

	chain := hook.Start()
	defer l.Release()

	go func() {
		<-hook.Process(chain)
		l.log.Debug().Msg("Hotkey hook unloaded")
	}()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signals)

	select {
	case <-ctx.Done():
	case sig := <-signals:
		l.log.Info().Str("signal", sig.String()).Msg("Termination requested")
	}
}

// OnStart handles the start hotkey.
func (l *Listener) OnStart() {
	if atomic.CompareAndSwapInt32(&l.state, STATE_READY, STATE_RUNNING) {
		l.log.Info().Msg("Start hotkey pressed")
	}
}

// OnStop handles the stop hotkey.
func (l *Listener) OnStop() {
	if atomic.CompareAndSwapInt32(&l.state, STATE_RUNNING, STATE_READY) {
		l.log.Info().Msg("Stop hotkey pressed")
	}
}

// Release unhooks the keyboard and marks the process for exit.
func (l *Listener) Release() {
	if atomic.SwapInt32(&l.state, STATE_STOPPING) == STATE_STOPPING {
		return
	}
	hook.End()
	// the hook does not always let go right away and a quick restart then fails
	time.Sleep(200 * time.Millisecond)
	l.log.Info().Msg("Listener released")
}

func (l *Listener) IsRunning() bool {
	return atomic.LoadInt32(&l.state) == STATE_RUNNING
}

func (l *Listener) ShouldExit() bool {
	return atomic.LoadInt32(&l.state) == STATE_STOPPING
}
