package bot

import (
	"errors"
	"fmt"
	"runtime/debug"
	"slices"

	"github.com/Barabama/WoWsBot/internal/locator"
	"github.com/Barabama/WoWsBot/internal/pkg/script"
	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

type StepResult int

const (
	StepRetry StepResult = iota
	StepDone
)

const (
	StepSelectType = "select_type"
	StepSelectShip = "select_ship"
	StepEquip      = "equip"
	StepRemoveFlag = "remove_flag"
	StepRemoveBuff = "remove_buff"
)

// AllSteps lists the preparation steps in the order they run.
var AllSteps = []string{StepSelectType, StepSelectShip, StepEquip, StepRemoveFlag, StepRemoveBuff}

const (
	posShip        = "ship_in_port"
	posEquipment   = "equipment"
	posBuffBtn     = "buff_btn"
	posBuffDownBtn = "buff_down_btn"
	posConfirmBtn  = "confirm_btn"

	tmplBattleBtn = "battle_btn"
	tmplFlagDown  = "flag_down"
	tmplBuffBtn   = "buff_btn"
	tmplBuffDown  = "buff_down"
)

type step struct {
	name string
	run  func() (StepResult, error)
}

// PortBot prepares a ship in port and starts a battle. Each preparation step
// runs once per battle and is retried on later ticks when it fails.
type PortBot struct {
	base
	steps  []step
	done   map[string]bool
	starts int
}

func NewPortBot(s *Session, act *script.Script, rec Recognizer, frames FrameSource) *PortBot {
	b := &PortBot{
		base: base{
			s:      s,
			log:    s.Log.With().Str("component", "port").Logger(),
			act:    act,
			rec:    rec,
			frames: frames,
		},
		done: make(map[string]bool),
	}
	b.steps = []step{
		{name: StepSelectType, run: b.selectType},
		{name: StepSelectShip, run: b.selectShip},
		{name: StepEquip, run: b.equip},
		{name: StepRemoveFlag, run: b.removeFlag},
		{name: StepRemoveBuff, run: b.removeBuff},
	}
	return b
}

// Done reports whether a preparation step has completed for the next battle.
func (b *PortBot) Done(name string) bool {
	return b.done[name]
}

// Starts counts battles this bot has launched.
func (b *PortBot) Starts() int {
	return b.starts
}

func (b *PortBot) Tick(m locator.Match) error {
	cfg := b.s.Config.Port

	if slices.Contains(cfg.OverlayNames, m.Name) {
		c := m.Center()
		if err := b.act.ClickAt(c.X, c.Y); err != nil {
			return err
		}
		return b.closePage()
	}

	next, ok := b.nextStep()
	if !ok {
		return b.launch()
	}
	triggers := cfg.Triggers[next.name]
	if len(triggers) > 0 && !slices.Contains(triggers, m.Name) {
		_, err := b.leavePage()
		return err
	}

	res, err := b.runStep(next)
	if errors.Is(err, stopflag.ErrStopped) {
		return err
	}
	if err != nil {
		b.log.Warn().Err(err).Str("step", next.name).Msg("Step failed, will retry")
	}
	if res != StepDone {
		return nil
	}
	b.done[next.name] = true
	b.log.Info().Str("step", next.name).Msg("Step done")

	if _, ok := b.nextStep(); !ok {
		return b.launch()
	}
	return nil
}

func (b *PortBot) Quit() error {
	return b.closePage()
}

func (b *PortBot) nextStep() (step, bool) {
	for _, st := range b.steps {
		if !b.done[st.name] {
			return st, true
		}
	}
	return step{}, false
}

func (b *PortBot) runStep(st step) (res StepResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error().Str("step", st.name).Bytes("stack", debug.Stack()).Msg("Step panicked")
			res, err = StepRetry, fmt.Errorf("step %s panicked: %v", st.name, r)
		}
	}()
	return st.run()
}

// launch leaves the current page, starts the battle and resets the steps.
// esc on the main port screen opens the game menu, so it is never pressed here.
func (b *PortBot) launch() error {
	if _, err := b.leavePage(); err != nil {
		return err
	}
	if err := b.startBattle(); err != nil {
		return err
	}
	clear(b.done)
	b.starts++
	return nil
}

// leavePage clicks a recognized close control, if any.
func (b *PortBot) leavePage() (bool, error) {
	clicked, err := b.clickMatch(b.s.Config.Port.CloseNames...)
	if err != nil {
		if errors.Is(err, stopflag.ErrStopped) {
			return false, err
		}
		b.log.Warn().Err(err).Msg("Close page lookup failed")
		return false, nil
	}
	if clicked {
		b.log.Info().Msg("Closed page")
	}
	return clicked, nil
}

// closePage is leavePage with esc as the fallback, for overlays.
func (b *PortBot) closePage() error {
	clicked, err := b.leavePage()
	if err != nil || clicked {
		return err
	}
	b.log.Debug().Msg("No close control, pressing esc")
	return b.act.Tap("esc")
}

func (b *PortBot) startBattle() error {
	if _, err := b.clickMatch(tmplBattleBtn); err != nil {
		return err
	}
	if err := b.clickPosition(posConfirmBtn); err != nil {
		return err
	}
	b.log.Info().Msg("Started battle")
	return nil
}

func (b *PortBot) selectType() (StepResult, error) {
	kind := b.s.Config.Port.BattleType
	mode := kind + "_mode"
	m, err := b.match(mode)
	if err != nil {
		return StepRetry, err
	}
	if m.Name != mode {
		def, ok := b.s.Config.Templates[mode]
		if !ok {
			return StepRetry, fmt.Errorf("template %s not configured", mode)
		}
		r, ok := utils.RectFromXYWH(def.Area)
		if !ok {
			return StepRetry, fmt.Errorf("template %s has no area", mode)
		}
		if err := b.act.ClickRect(r); err != nil {
			return StepRetry, err
		}
		if _, err := b.clickMatch(kind + "_btn"); err != nil {
			return StepRetry, err
		}
	}
	return StepDone, nil
}

func (b *PortBot) selectShip() (StepResult, error) {
	if err := b.clickPosition(posShip); err != nil {
		return StepRetry, err
	}
	return StepDone, nil
}

func (b *PortBot) equip() (StepResult, error) {
	if err := b.clickPosition(posEquipment); err != nil {
		return StepRetry, err
	}
	return StepDone, nil
}

func (b *PortBot) removeFlag() (StepResult, error) {
	if _, err := b.clickMatch(tmplFlagDown); err != nil {
		return StepRetry, err
	}
	return StepDone, nil
}

func (b *PortBot) removeBuff() (StepResult, error) {
	err := script.Run(
		func() error { _, err := b.clickMatch(tmplBuffBtn); return err },
		func() error { return b.clickPosition(posBuffBtn) },
		func() error { return b.clickPosition(posBuffDownBtn) },
		func() error { _, err := b.clickMatch(tmplBuffDown); return err },
	)
	if err != nil {
		return StepRetry, err
	}
	return StepDone, nil
}
