package script

import (
	"image"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Barabama/WoWsBot/internal/pkg/sleeper"
	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
)

// InputSink is the synthetic input device. Coordinates are absolute screen pixels.
type InputSink interface {
	Position() (int, int)
	MoveTo(x, y int)
	MouseDown()
	MouseUp()
	KeyDown(key string)
	KeyUp(key string)
	Scroll(amount int, direction string)
}

// Operation is one step of a sequence, run until the first error.
type Operation func() error

// Run executes ops in order, stopping at the first failure.
func Run(ops ...Operation) error {
	for _, op := range ops {
		if err := op(); err != nil {
			return err
		}
	}
	return nil
}

const (
	stepInterval = 10 * time.Millisecond
	jitter       = 2.0
	// DefaultInterval is the base delay around clicks and key presses.
	DefaultInterval = 200 * time.Millisecond
)

// Script issues humanized input. Every action polls the stop flag before and
// between its steps, and returns stopflag.ErrStopped once it is set.
type Script struct {
	sink   InputSink
	stop   *stopflag.Flag
	rng    *rand.Rand
	origin image.Point

	interval time.Duration
}

// New builds a script. origin translates frame coordinates into screen coordinates.
func New(sink InputSink, stop *stopflag.Flag, rng *rand.Rand, origin image.Point) *Script {
	return &Script{sink: sink, stop: stop, rng: rng, origin: origin, interval: DefaultInterval}
}

// WithInterval changes the base delay used by ClickAt, Tap and Scroll.
func (s *Script) WithInterval(d time.Duration) *Script {
	s.interval = d
	return s
}

func (s *Script) Interval() time.Duration {
	return s.interval
}

func (s *Script) Origin() image.Point {
	return s.origin
}

func (s *Script) Sleep(d time.Duration) error {
	return sleeper.Sleep(s.stop, d)
}

func (s *Script) SleepRandom(lo, hi time.Duration) error {
	return sleeper.SleepRandom(s.stop, s.rng, lo, hi)
}

// wait sleeps for a random duration in [interval, 2·interval].
func (s *Script) wait(interval time.Duration) error {
	return s.SleepRandom(interval, 2*interval)
}

// Move drags the pointer by (dx, dy) along a jittered straight path.
// Longer distances take longer, bounded to 100..200ms.
func (s *Script) Move(dx, dy int) error {
	distance := math.Abs(float64(dx)) + math.Abs(float64(dy))
	duration := time.Duration(math.Max(0.1, math.Min(0.2, distance/10000)) * float64(time.Second))
	steps := int(duration / stepInterval)
	return s.moveSteps(dx, dy, steps, duration)
}

func (s *Script) moveSteps(dx, dy int, steps int, duration time.Duration) error {
	if steps < 1 {
		steps = 1
	}
	x0, y0 := s.sink.Position()
	per := duration / time.Duration(steps)
	for i := 1; i <= steps; i++ {
		if err := s.stop.Check(); err != nil {
			return err
		}
		ratio := float64(i) / float64(steps)
		x := float64(x0) + float64(dx)*ratio + s.uniform(-jitter, jitter)
		y := float64(y0) + float64(dy)*ratio + s.uniform(-jitter, jitter)
		s.sink.MoveTo(int(x), int(y))

		d := time.Duration(float64(per) * s.uniform(0.5, 1.5))
		if err := s.Sleep(d); err != nil {
			return err
		}
	}
	return nil
}

// MoveTo moves to a point given in frame coordinates.
func (s *Script) MoveTo(x, y int) error {
	target := image.Pt(x, y).Add(s.origin)
	cx, cy := s.sink.Position()
	if err := s.Move(target.X-cx, target.Y-cy); err != nil {
		return err
	}
	if err := s.stop.Check(); err != nil {
		return err
	}
	s.sink.MoveTo(target.X, target.Y)
	return nil
}

func (s *Script) Click(clicks int, interval time.Duration) error {
	for range clicks {
		if err := s.stop.Check(); err != nil {
			return err
		}
		s.sink.MouseDown()
		if err := s.Sleep(interval); err != nil {
			s.sink.MouseUp()
			return err
		}
		s.sink.MouseUp()
		if err := s.wait(interval); err != nil {
			return err
		}
	}
	return nil
}

// ClickAt moves to a frame point and clicks once.
func (s *Script) ClickAt(x, y int) error {
	return Run(
		func() error { return s.MoveTo(x, y) },
		func() error { return s.wait(s.interval) },
		func() error { return s.Click(1, s.interval) },
		func() error { return s.wait(s.interval) },
	)
}

func (s *Script) ClickRect(r image.Rectangle) error {
	c := r.Min.Add(r.Size().Div(2))
	return s.ClickAt(c.X, c.Y)
}

func (s *Script) PressKey(key string, presses int, interval time.Duration) error {
	for range presses {
		if err := s.stop.Check(); err != nil {
			return err
		}
		s.sink.KeyDown(key)
		err := s.wait(interval)
		s.sink.KeyUp(key)
		if err != nil {
			return err
		}
		if err := s.wait(interval); err != nil {
			return err
		}
	}
	return nil
}

func (s *Script) Tap(key string) error {
	return s.PressKey(key, 1, s.interval)
}

// HoldKey keeps key down for d; the key is always released.
func (s *Script) HoldKey(key string, d time.Duration) error {
	if err := s.stop.Check(); err != nil {
		return err
	}
	s.sink.KeyDown(key)
	defer s.sink.KeyUp(key)
	return s.Sleep(d)
}

func (s *Script) Scroll(amount int, direction string) error {
	if err := s.stop.Check(); err != nil {
		return err
	}
	s.sink.Scroll(amount, direction)
	return s.wait(s.interval)
}

func (s *Script) uniform(lo, hi float64) float64 {
	return lo + s.rng.Float64()*(hi-lo)
}
