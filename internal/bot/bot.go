package bot

import (
	"errors"
	"fmt"
	"image"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Barabama/WoWsBot/internal/config"
	"github.com/Barabama/WoWsBot/internal/locator"
	"github.com/Barabama/WoWsBot/internal/pkg/script"
	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

// ErrNoPosition is returned when a click target is missing from the config.
var ErrNoPosition = errors.New("position not configured")

// Bot reacts to one recognized screen per call.
type Bot interface {
	Tick(m locator.Match) error
	Quit() error
}

// Recognizer is the part of the locator the bots use.
type Recognizer interface {
	MatchTemplate(frame *gocv.Mat, names ...string) locator.Match
	ReadBigmap(frame *gocv.Mat) ([]image.Point, bool)
	ReadMinimap(frame *gocv.Mat) (*locator.MapSnapshot, bool)
	ReadCompass(frame *gocv.Mat) (utils.Vec, bool)
}

// FrameSource captures the current game window. The caller closes the frame.
type FrameSource interface {
	Capture() (gocv.Mat, error)
}

// Session is what every bot of one game instance shares.
type Session struct {
	Config *config.Config
	Log    zerolog.Logger
	Stop   *stopflag.Flag
	Rand   *rand.Rand
	Clock  func() time.Time
}

func NewSession(cfg *config.Config, log zerolog.Logger, stop *stopflag.Flag, rng *rand.Rand) *Session {
	return &Session{Config: cfg, Log: log, Stop: stop, Rand: rng, Clock: time.Now}
}

func (s *Session) Now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock()
}

// base holds what both bots need to act on the window.
type base struct {
	s      *Session
	log    zerolog.Logger
	act    *script.Script
	rec    Recognizer
	frames FrameSource
}

// match captures a fresh frame and matches it against names.
func (b *base) match(names ...string) (locator.Match, error) {
	frame, err := b.frames.Capture()
	if err != nil {
		return locator.Match{}, fmt.Errorf("capture failed: %w", err)
	}
	defer frame.Close()

	m := b.rec.MatchTemplate(&frame, names...)
	m.Frame = nil
	return m, nil
}

// clickMatch clicks the center of whichever of names is on screen.
func (b *base) clickMatch(names ...string) (bool, error) {
	m, err := b.match(names...)
	if err != nil {
		return false, err
	}
	if !slices.Contains(names, m.Name) {
		return false, nil
	}
	c := m.Center()
	return true, b.act.ClickAt(c.X, c.Y)
}

func (b *base) clickPosition(name string) error {
	p, ok := b.s.Config.Position(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoPosition, name)
	}
	return b.act.ClickAt(p.X, p.Y)
}

// pick returns n distinct random elements of keys.
func pick(rng *rand.Rand, keys []string, n int) []string {
	if n > len(keys) {
		n = len(keys)
	}
	out := make([]string, 0, n)
	for _, i := range rng.Perm(len(keys))[:n] {
		out = append(out, keys[i])
	}
	return out
}
