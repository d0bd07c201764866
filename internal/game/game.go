package game

import (
	"errors"
	"fmt"
	"image"
	"slices"
	"time"

	"github.com/go-vgo/robotgo"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Barabama/WoWsBot/internal/config"
)

// ErrNoWindow is returned when no game window matches the configured titles.
var ErrNoWindow = errors.New("game window not found")

// MoveKeys are released whenever a session ends.
var MoveKeys = []string{"w", "a", "s", "d", "ctrl", "shift", "alt"}

// Info identifies one running game client.
type Info struct {
	Pid   int
	Title string
}

// Init tunes robotgo's built-in delays; Script paces input itself.
func Init() {
	robotgo.MouseSleep = 10
	robotgo.KeySleep = 10
}

// FindWindows lists the game clients of process whose title is one of titles.
// An empty titles list accepts every window of the process.
func FindWindows(process string, titles []string) ([]Info, error) {
	if len(process) == 0 {
		return nil, errors.New("game process name is empty")
	}
	pids, err := robotgo.FindIds(process)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}
	infos := selectWindows(pids, func(pid int) string { return robotgo.GetTitle(pid) }, titles)
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: process %s, titles %v", ErrNoWindow, process, titles)
	}
	return infos, nil
}

func selectWindows(pids []int, titleOf func(int) string, titles []string) []Info {
	var infos []Info
	seen := make(map[int]bool)
	for _, pid := range pids {
		title := titleOf(pid)
		if title == "" || seen[pid] {
			continue
		}
		if len(titles) > 0 && !slices.Contains(titles, title) {
			continue
		}
		seen[pid] = true
		infos = append(infos, Info{Pid: pid, Title: title})
	}
	return infos
}

// Window is one game client placed at the configured screen region.
type Window struct {
	info    Info
	region  image.Rectangle
	settle  time.Duration
	capture Capturer
	log     zerolog.Logger
}

func NewWindow(info Info, cfg *config.Config, log zerolog.Logger) (*Window, error) {
	capture, err := NewCapturer(cfg.Capture.Backend)
	if err != nil {
		return nil, err
	}
	return &Window{
		info:    info,
		region:  cfg.RegionRect(),
		settle:  cfg.Loop.Settle,
		capture: capture,
		log:     log.With().Str("component", "window").Str("title", info.Title).Int("pid", info.Pid).Logger(),
	}, nil
}

func (w *Window) Title() string {
	return w.info.Title
}

func (w *Window) Pid() int {
	return w.info.Pid
}

// Origin is the screen position of frame pixel (0, 0).
func (w *Window) Origin() image.Point {
	return w.region.Min
}

func (w *Window) Active() error {
	return robotgo.ActivePid(w.info.Pid)
}

// MakeBorderless strips the window frame and moves it onto the region.
func (w *Window) MakeBorderless() error {
	if err := setBorderless(w.info.Pid); err != nil {
		return fmt.Errorf("failed to make %q (pid %d) borderless: %w", w.info.Title, w.info.Pid, err)
	}
	w.log.Info().Msg("Window made borderless")
	return w.EnsurePositioned()
}

// EnsurePositioned moves the window back onto the region if it drifted.
func (w *Window) EnsurePositioned() error {
	x, y, width, height := robotgo.GetBounds(w.info.Pid)
	if image.Rect(x, y, x+width, y+height) == w.region {
		return nil
	}
	if err := placeWindow(w.info.Pid, w.region); err != nil {
		return fmt.Errorf("failed to place %q (pid %d): %w", w.info.Title, w.info.Pid, err)
	}
	w.log.Debug().Interface("region", w.region).Msg("Window repositioned")
	return nil
}

// Capture brings the window forward, lets it settle and grabs the region.
// The caller must close the returned Mat.
func (w *Window) Capture() (gocv.Mat, error) {
	if err := w.Active(); err != nil {
		w.log.Debug().Err(err).Msg("Activate window failed")
	}
	if err := w.EnsurePositioned(); err != nil {
		w.log.Warn().Err(err).Msg("Window check failed")
	}
	time.Sleep(w.settle)
	return w.capture.Capture(w.region)
}

// ReleaseKeys lifts every key and button a gesture may have left down.
func (w *Window) ReleaseKeys() {
	ReleaseAllKey()
}

func ReleaseAllKey() {
	for _, key := range MoveKeys {
		robotgo.KeyUp(key)
	}
	robotgo.Toggle("left", "up")
}
