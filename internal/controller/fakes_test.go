package controller

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Barabama/WoWsBot/internal/config"
	"github.com/Barabama/WoWsBot/internal/locator"
	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
	"github.com/Barabama/WoWsBot/internal/pkg/utils"
	"github.com/Barabama/WoWsBot/internal/scheduler"
)

type fakeSignal struct {
	running atomic.Bool
	exit    atomic.Bool
}

func (s *fakeSignal) IsRunning() bool  { return s.running.Load() }
func (s *fakeSignal) ShouldExit() bool { return s.exit.Load() }

type fakeWindow struct {
	title      string
	captures   atomic.Int32
	releases   atomic.Int32
	captureErr error
}

func (w *fakeWindow) Capture() (gocv.Mat, error) {
	w.captures.Add(1)
	if w.captureErr != nil {
		return gocv.Mat{}, w.captureErr
	}
	return gocv.NewMatWithSize(4, 4, gocv.MatTypeCV8UC3), nil
}

func (w *fakeWindow) MakeBorderless() error   { return nil }
func (w *fakeWindow) EnsurePositioned() error { return nil }
func (w *fakeWindow) Origin() image.Point     { return image.Point{} }
func (w *fakeWindow) Title() string           { return w.title }
func (w *fakeWindow) ReleaseKeys()            { w.releases.Add(1) }

// fakeRecognizer replays names; the last one repeats.
type fakeRecognizer struct {
	mu    sync.Mutex
	names []string
}

func (r *fakeRecognizer) MatchTemplate(frame *gocv.Mat, names ...string) locator.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := locator.Unknown
	if len(r.names) > 0 {
		name = r.names[0]
		if len(r.names) > 1 {
			r.names = r.names[1:]
		}
	}
	return locator.Match{Name: name, Frame: frame}
}

func (r *fakeRecognizer) ReadBigmap(*gocv.Mat) ([]image.Point, bool) { return nil, false }

func (r *fakeRecognizer) ReadMinimap(*gocv.Mat) (*locator.MapSnapshot, bool) { return nil, false }

func (r *fakeRecognizer) ReadCompass(*gocv.Mat) (utils.Vec, bool) { return utils.Vec{}, false }

type fakeBot struct {
	ticks  atomic.Int32
	quits  atomic.Int32
	resets atomic.Int32
	err    error
	panics bool
}

func (b *fakeBot) Tick(locator.Match) error {
	b.ticks.Add(1)
	if b.panics {
		panic("boom")
	}
	return b.err
}

func (b *fakeBot) Quit() error {
	b.quits.Add(1)
	return nil
}

func (b *fakeBot) ResetAutopilot() { b.resets.Add(1) }

type fixture struct {
	window *fakeWindow
	rec    *fakeRecognizer
	port   *fakeBot
	battle *fakeBot
	inst   *Instance
}

var noon = time.Date(2026, 10, 17, 12, 0, 0, 0, time.Local)

func testConfig() *config.Config {
	return &config.Config{
		Loop: config.LoopConfig{Interval: time.Millisecond},
		States: config.StateConfig{
			Prep:   []string{"battle_loading"},
			Active: []string{"battle_began", "autopilot_on"},
			Ended:  []string{"f1_btn"},
		},
	}
}

func newFixture(index int, sched config.ScheduleDef, names ...string) *fixture {
	f := &fixture{
		window: &fakeWindow{title: "World of Warships"},
		rec:    &fakeRecognizer{names: names},
		port:   &fakeBot{},
		battle: &fakeBot{},
	}
	f.inst = &Instance{
		Index:   index,
		Window:  f.window,
		Locator: f.rec,
		Port:    f.port,
		Battle:  f.battle,
		Stop:    stopflag.New(),
		Tasks:   scheduler.NewManager(sched, zerolog.Nop()),
		Log:     zerolog.Nop(),
	}
	return f
}

func newTestController(t *testing.T, sig Signal, fixtures ...*fixture) *Controller {
	t.Helper()
	var windows []Window
	for _, f := range fixtures {
		if f != nil {
			windows = append(windows, f.window)
		}
	}
	finder := WindowFinderFunc(func() ([]Window, error) { return windows, nil })
	factory := func(index int, w Window) (*Instance, error) {
		if index >= len(fixtures) || fixtures[index] == nil {
			return nil, errors.New("no fixture")
		}
		return fixtures[index].inst, nil
	}
	c := New(testConfig(), sig, finder, factory, zerolog.Nop())
	c.Clock = func() time.Time { return noon }
	return c
}

func onceToday(count int) config.ScheduleDef {
	return config.ScheduleDef{
		Enabled: true,
		Tasks:   []config.TaskDef{{Type: "once", Start: "00:00", End: "23:59", Count: count}},
	}
}
