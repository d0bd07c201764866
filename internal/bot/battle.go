package bot

import (
	"fmt"
	"image"
	"time"

	"github.com/Barabama/WoWsBot/internal/locator"
	"github.com/Barabama/WoWsBot/internal/pkg/script"
)

const (
	tmplMapMode     = "map_mode"
	tmplAutopilotOn = "autopilot_on"
)

// BattleBot steers by autopilot and keeps the guns busy.
type BattleBot struct {
	base
	lastAutopilot time.Time
}

func NewBattleBot(s *Session, act *script.Script, rec Recognizer, frames FrameSource) *BattleBot {
	return &BattleBot{
		base: base{
			s:      s,
			log:    s.Log.With().Str("component", "battle").Logger(),
			act:    act,
			rec:    rec,
			frames: frames,
		},
	}
}

func (b *BattleBot) Tick(m locator.Match) error {
	cfg := b.s.Config.Battle

	if m.Name == tmplMapMode {
		return b.act.Tap(cfg.MapKey)
	}
	if m.Name != tmplAutopilotOn && b.autopilotDue() {
		return b.setAutopilot()
	}

	chart, ok := b.chart(m)
	if ok {
		if t, ok := chart.Nearest(); ok {
			dx := chart.AimOffset(t, cfg.PixelsPerDegree)
			b.log.Debug().Float64("sight", chart.Sight).Float64("target", t.Bearing).
				Float64("distance", t.Distance).Int("dx", dx).Msg("Aiming at nearest enemy")
			if err := b.act.Move(dx, 0); err != nil {
				return err
			}
		}
	}
	return b.fireWeapons()
}

func (b *BattleBot) Quit() error {
	return script.Run(
		func() error { return b.act.Tap("esc") },
		func() error { return b.act.Sleep(b.s.Config.Battle.QuitDelay) },
		func() error { return b.act.Tap("space") },
	)
}

// ResetAutopilot forgets the last waypoint so the next tick sets a new one.
func (b *BattleBot) ResetAutopilot() {
	b.lastAutopilot = time.Time{}
}

func (b *BattleBot) autopilotDue() bool {
	if b.lastAutopilot.IsZero() {
		return true
	}
	return b.s.Now().Sub(b.lastAutopilot) >= b.s.Config.Battle.AutopilotCooldown
}

// setAutopilot opens the tactical map and sets a waypoint on an enemy marker.
func (b *BattleBot) setAutopilot() error {
	cfg := b.s.Config.Battle
	if err := b.act.Tap(cfg.MapKey); err != nil {
		return err
	}
	if err := b.act.Sleep(b.s.Config.Loop.Settle); err != nil {
		return err
	}

	points, err := b.readBigmap()
	if err != nil {
		b.log.Warn().Err(err).Msg("Tactical map unreadable")
	}
	if len(points) > 0 {
		p := points[b.s.Rand.IntN(len(points))]
		b.log.Info().Int("x", p.X).Int("y", p.Y).Msg("Autopilot waypoint")
		if err := b.act.ClickAt(p.X, p.Y); err != nil {
			return err
		}
	}
	if err := b.act.Tap(cfg.MapKey); err != nil {
		return err
	}
	if len(points) == 0 {
		b.log.Info().Msg("No waypoint, sailing forward")
		if err := b.act.PressKey(cfg.ForwardKey, cfg.ForwardPresses, b.act.Interval()); err != nil {
			return err
		}
	}
	for _, k := range cfg.ZoomKeys {
		if err := b.act.PressKey(k, 1, cfg.ZoomInterval); err != nil {
			return err
		}
	}
	b.lastAutopilot = b.s.Now()
	return nil
}

func (b *BattleBot) readBigmap() ([]image.Point, error) {
	frame, err := b.frames.Capture()
	if err != nil {
		return nil, fmt.Errorf("capture failed: %w", err)
	}
	defer frame.Close()
	points, _ := b.rec.ReadBigmap(&frame)
	return points, nil
}

// chart reads the minimap and compass from the frame of the match, or from a
// fresh capture when the match carries none.
func (b *BattleBot) chart(m locator.Match) (Chart, bool) {
	frame := m.Frame
	if frame == nil {
		f, err := b.frames.Capture()
		if err != nil {
			b.log.Warn().Err(err).Msg("Capture failed")
			return Chart{}, false
		}
		defer f.Close()
		frame = &f
	}

	snap, ok := b.rec.ReadMinimap(frame)
	if !ok {
		return Chart{}, false
	}
	compass, ok := b.rec.ReadCompass(frame)
	if !ok {
		return Chart{}, false
	}
	return BuildChart(snap, compass), true
}

// fireWeapons uses two consumables, drops ordnance off a random offset and
// fires the main battery.
func (b *BattleBot) fireWeapons() error {
	cfg := b.s.Config.Battle
	rng := b.s.Rand

	var ops []script.Operation
	for _, k := range pick(rng, cfg.AbilityKeys, 2) {
		ops = append(ops, func() error { return b.act.Tap(k) })
	}
	ops = append(ops,
		func() error { return b.act.Tap("ctrl") },
		func() error { return b.act.Move(0, 1000) },
		func() error { return b.act.Move(0, -465) },
	)
	for _, k := range pick(rng, cfg.SecondaryKeys, 1) {
		ops = append(ops,
			func() error { return b.act.Tap(k) },
			func() error { return b.act.Move(rng.IntN(101)-50, 0) },
			func() error { return b.act.Click(1, b.act.Interval()) },
		)
	}
	for _, k := range pick(rng, cfg.MainKeys, 1) {
		ops = append(ops,
			func() error { return b.act.PressKey(k, 2, b.act.Interval()) },
			func() error { return b.act.Move(rng.IntN(41)-20, 0) },
			func() error { return b.act.Sleep(cfg.AimHold) },
			func() error { return b.act.Click(2, b.act.Interval()) },
		)
	}
	return script.Run(ops...)
}
