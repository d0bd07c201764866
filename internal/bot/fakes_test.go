package bot

import (
	"image"
	"math/rand/v2"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"github.com/Barabama/WoWsBot/internal/config"
	"github.com/Barabama/WoWsBot/internal/locator"
	"github.com/Barabama/WoWsBot/internal/pkg/script"
	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

type fakeSink struct {
	mu     sync.Mutex
	x, y   int
	events []string
	// moves[i] is the pointer position after the i-th MoveTo.
	moves []image.Point
}

func (f *fakeSink) Position() (int, int) { return f.x, f.y }

func (f *fakeSink) MoveTo(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.x, f.y = x, y
	f.moves = append(f.moves, image.Pt(x, y))
	f.events = append(f.events, "move")
}

func (f *fakeSink) MouseDown() { f.add("click") }
func (f *fakeSink) MouseUp()   {}

func (f *fakeSink) KeyDown(key string) { f.add("key:" + key) }
func (f *fakeSink) KeyUp(string)       {}

func (f *fakeSink) Scroll(int, string) {}

func (f *fakeSink) add(e string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
}

// keys returns the pressed keys in order.
func (f *fakeSink) keys() []string {
	var out []string
	for _, e := range f.events {
		if k, ok := strings.CutPrefix(e, "key:"); ok {
			out = append(out, k)
		}
	}
	return out
}

func (f *fakeSink) count(event string) int {
	n := 0
	for _, e := range f.events {
		if e == event {
			n++
		}
	}
	return n
}

// positionBefore returns the pointer position just before the first event.
func (f *fakeSink) positionBefore(event string) image.Point {
	moves := 0
	for _, e := range f.events {
		if e == event {
			break
		}
		if e == "move" {
			moves++
		}
	}
	if moves == 0 {
		return image.Point{}
	}
	return f.moves[moves-1]
}

type fakeFrames struct {
	captures int
}

func (f *fakeFrames) Capture() (gocv.Mat, error) {
	f.captures++
	return gocv.NewMat(), nil
}

// fakeRecognizer reports the names in visible as on screen, each at rect.
type fakeRecognizer struct {
	visible map[string]image.Rectangle
	onMatch func(names []string)
	queries [][]string

	bigmap  []image.Point
	minimap *locator.MapSnapshot
	compass utils.Vec
	hasComp bool
}

func (f *fakeRecognizer) MatchTemplate(frame *gocv.Mat, names ...string) locator.Match {
	f.queries = append(f.queries, names)
	if f.onMatch != nil {
		f.onMatch(names)
	}
	for _, n := range names {
		if r, ok := f.visible[n]; ok {
			return locator.Match{Name: n, Rect: r, Score: 0.9, Frame: frame}
		}
	}
	return locator.Match{Name: locator.Unknown, Score: 0.65, Frame: frame}
}

func (f *fakeRecognizer) ReadBigmap(*gocv.Mat) ([]image.Point, bool) {
	return f.bigmap, len(f.bigmap) > 0
}

func (f *fakeRecognizer) ReadMinimap(*gocv.Mat) (*locator.MapSnapshot, bool) {
	return f.minimap, f.minimap != nil
}

func (f *fakeRecognizer) ReadCompass(*gocv.Mat) (utils.Vec, bool) {
	return f.compass, f.hasComp
}

func (f *fakeRecognizer) queried(name string) bool {
	for _, q := range f.queries {
		if slices.Contains(q, name) {
			return true
		}
	}
	return false
}

func testConfig() *config.Config {
	return &config.Config{
		Region: []int{0, 0, 1280, 720},
		Positions: map[string][]int{
			"ship_in_port":  {300, 650},
			"equipment":     {100, 80},
			"buff_btn":      {400, 300},
			"buff_down_btn": {420, 340},
			"confirm_btn":   {640, 500},
		},
		Templates: map[string]config.TemplateDef{
			"coop_mode": {Area: []int{600, 10, 80, 30}},
		},
		Port: config.PortConfig{
			Triggers: map[string][]string{
				StepSelectType: {"battle_btn"},
				StepSelectShip: {"battle_btn", "coop_mode"},
				StepEquip:      {"battle_btn", "coop_mode"},
				StepRemoveFlag: {},
				StepRemoveBuff: {},
			},
			CloseNames:   []string{"close_btn_1", "esc_btn"},
			OverlayNames: []string{"rewards_btn", "login_btn"},
			BattleType:   "coop",
		},
		Battle: config.BattleConfig{
			AutopilotCooldown: 100 * time.Second,
			MapKey:            "m",
			ZoomKeys:          []string{"+", "-"},
			ZoomInterval:      time.Millisecond,
			ForwardKey:        "w",
			ForwardPresses:    2,
			PixelsPerDegree:   1,
			AbilityKeys:       []string{"f", "g", "c"},
			SecondaryKeys:     []string{"3", "4"},
			MainKeys:          []string{"1", "2"},
			AimHold:           time.Millisecond,
			QuitDelay:         time.Millisecond,
		},
		Loop: config.LoopConfig{Interval: time.Millisecond, Settle: time.Millisecond},
	}
}

type harness struct {
	cfg    *config.Config
	sink   *fakeSink
	frames *fakeFrames
	rec    *fakeRecognizer
	stop   *stopflag.Flag
	sess   *Session
	act    *script.Script
	now    time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		cfg:    testConfig(),
		sink:   &fakeSink{},
		frames: &fakeFrames{},
		rec:    &fakeRecognizer{visible: map[string]image.Rectangle{}},
		stop:   stopflag.New(),
		now:    time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	rng := rand.New(rand.NewPCG(7, 11))
	h.sess = NewSession(h.cfg, zerolog.Nop(), h.stop, rng)
	h.sess.Clock = func() time.Time { return h.now }
	h.act = script.New(h.sink, h.stop, rng, image.Point{}).WithInterval(time.Millisecond)
	return h
}
