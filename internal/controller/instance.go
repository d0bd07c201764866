package controller

import (
	"fmt"
	"image"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Barabama/WoWsBot/internal/bot"
	"github.com/Barabama/WoWsBot/internal/config"
	"github.com/Barabama/WoWsBot/internal/locator"
	"github.com/Barabama/WoWsBot/internal/pkg/script"
	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
	"github.com/Barabama/WoWsBot/internal/scheduler"
)

// Window is one game client the controller drives.
type Window interface {
	Capture() (gocv.Mat, error)
	MakeBorderless() error
	EnsurePositioned() error
	Origin() image.Point
	Title() string
	ReleaseKeys()
}

// WindowFinder discovers the game windows to attach to.
type WindowFinder interface {
	FindWindows() ([]Window, error)
}

type WindowFinderFunc func() ([]Window, error)

func (f WindowFinderFunc) FindWindows() ([]Window, error) {
	return f()
}

// InstanceFactory builds the instance driving one window.
type InstanceFactory func(index int, w Window) (*Instance, error)

// Instance is everything bound to one game window.
type Instance struct {
	Index    int
	Window   Window
	Locator  bot.Recognizer
	Port     bot.Bot
	Battle   bot.Bot
	Stop     *stopflag.Flag
	Tasks    *scheduler.Manager
	InBattle bool

	Log   zerolog.Logger
	Stats Stats
}

// Deps are shared by every instance of a run.
type Deps struct {
	Config *config.Config
	User   *config.User
	Assets *locator.Assets
	Input  script.InputSink
	Log    zerolog.Logger
}

// NewFactory returns the factory used outside tests.
func NewFactory(d Deps) InstanceFactory {
	return func(index int, w Window) (*Instance, error) {
		log := d.Log.With().Int("instance", index).Str("title", w.Title()).Logger()

		if err := w.MakeBorderless(); err != nil {
			return nil, fmt.Errorf("prepare window %q: %w", w.Title(), err)
		}

		lang := d.User.LanguageFor(w.Title())
		loc := locator.New(d.Config, d.Assets, lang, log)

		stop := stopflag.New()
		rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(index)))
		session := bot.NewSession(d.Config, log, stop, rng)
		act := script.New(d.Input, stop, rng, w.Origin())

		log.Info().Str("language", lang).Msg("Instance ready")
		return &Instance{
			Index:   index,
			Window:  w,
			Locator: loc,
			Port:    bot.NewPortBot(session, act, loc, w),
			Battle:  bot.NewBattleBot(session, act, loc, w),
			Stop:    stop,
			Tasks:   scheduler.NewManager(d.User.ScheduledTasks, log),
			Log:     log,
		}, nil
	}
}
