package script

import (
	"image"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
)

type recordingSink struct {
	x, y    int
	moves   []image.Point
	events  []string
	onMove  func(n int)
	downKey map[string]bool
}

func newRecordingSink() *recordingSink {
	return &recordingSink{downKey: map[string]bool{}}
}

func (r *recordingSink) Position() (int, int) { return r.x, r.y }

func (r *recordingSink) MoveTo(x, y int) {
	r.x, r.y = x, y
	r.moves = append(r.moves, image.Pt(x, y))
	if r.onMove != nil {
		r.onMove(len(r.moves))
	}
}

func (r *recordingSink) MouseDown() { r.events = append(r.events, "down") }
func (r *recordingSink) MouseUp()   { r.events = append(r.events, "up") }

func (r *recordingSink) KeyDown(key string) {
	r.downKey[key] = true
	r.events = append(r.events, "kd:"+key)
}

func (r *recordingSink) KeyUp(key string) {
	r.downKey[key] = false
	r.events = append(r.events, "ku:"+key)
}

func (r *recordingSink) Scroll(amount int, direction string) {
	r.events = append(r.events, "scroll:"+direction)
}

func newScript(sink InputSink, flag *stopflag.Flag) *Script {
	return New(sink, flag, rand.New(rand.NewPCG(1, 2)), image.Point{})
}

func TestMove_TwentySteps(t *testing.T) {
	sink := newRecordingSink()
	s := newScript(sink, stopflag.New())

	require.NoError(t, s.Move(2000, 0))
	assert.Len(t, sink.moves, 20)

	last := sink.moves[len(sink.moves)-1]
	assert.InDelta(t, 2000, last.X, 3)
	assert.InDelta(t, 0, last.Y, 3)
}

func TestMove_ShortDistanceUsesMinimumDuration(t *testing.T) {
	sink := newRecordingSink()
	s := newScript(sink, stopflag.New())

	require.NoError(t, s.Move(10, 10))
	assert.Len(t, sink.moves, 10)
}

func TestMove_StopsMidTrajectory(t *testing.T) {
	flag := stopflag.New()
	sink := newRecordingSink()
	sink.onMove = func(n int) {
		if n == 5 {
			flag.Set()
		}
	}
	s := newScript(sink, flag)

	err := s.Move(2000, 0)
	require.ErrorIs(t, err, stopflag.ErrStopped)
	assert.Len(t, sink.moves, 5, "steps 6..20 must not run")
}

func TestMoveTo_TranslatesOrigin(t *testing.T) {
	sink := newRecordingSink()
	s := New(sink, stopflag.New(), rand.New(rand.NewPCG(3, 4)), image.Pt(100, 50))

	require.NoError(t, s.MoveTo(10, 20))
	assert.Equal(t, image.Pt(110, 70), sink.moves[len(sink.moves)-1])
}

func TestPressKey_ReleasesOnStop(t *testing.T) {
	flag := stopflag.New()
	sink := newRecordingSink()
	s := newScript(sink, flag)

	go func() {
		time.Sleep(60 * time.Millisecond)
		flag.Set()
	}()
	err := s.PressKey("f", 50, DefaultInterval)
	require.ErrorIs(t, err, stopflag.ErrStopped)
	assert.False(t, sink.downKey["f"])
}

func TestActionsRefuseWhenStopped(t *testing.T) {
	flag := stopflag.New()
	flag.Set()
	sink := newRecordingSink()
	s := newScript(sink, flag)

	assert.ErrorIs(t, s.Click(1, DefaultInterval), stopflag.ErrStopped)
	assert.ErrorIs(t, s.Tap("m"), stopflag.ErrStopped)
	assert.ErrorIs(t, s.Scroll(1, "up"), stopflag.ErrStopped)
	assert.ErrorIs(t, s.HoldKey("w", time.Second), stopflag.ErrStopped)
	assert.Empty(t, sink.events)
	assert.Empty(t, sink.moves)
}

func TestRun_StopsAtFirstError(t *testing.T) {
	var ran []int
	err := Run(
		func() error { ran = append(ran, 1); return nil },
		func() error { ran = append(ran, 2); return stopflag.ErrStopped },
		func() error { ran = append(ran, 3); return nil },
	)
	require.ErrorIs(t, err, stopflag.ErrStopped)
	assert.Equal(t, []int{1, 2}, ran)
}
