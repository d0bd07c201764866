package controller

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/Barabama/WoWsBot/internal/config"
	"github.com/Barabama/WoWsBot/internal/pkg/stopflag"
	"github.com/Barabama/WoWsBot/internal/pkg/utils"
)

// ErrNoWindows is returned when startup finds no window to drive.
var ErrNoWindows = errors.New("no game instance could be started")

const watchInterval = 100 * time.Millisecond

// Signal is the operator's run switch.
type Signal interface {
	IsRunning() bool
	ShouldExit() bool
}

type State int32

const (
	Idle State = iota
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "idle"
	}
}

// Controller starts one instance per game window on the run signal and
// cycles through them until the signal drops or every instance is done.
type Controller struct {
	cfg        *config.Config
	signal     Signal
	finder     WindowFinder
	factory    InstanceFactory
	classifier *Classifier
	log        zerolog.Logger

	Clock func() time.Time

	state     atomic.Int32
	instances []*Instance
	// latched blocks a restart until the signal has dropped once.
	latched bool

	watchCancel context.CancelFunc
	watchDone   sync.WaitGroup
}

func New(cfg *config.Config, sig Signal, finder WindowFinder, factory InstanceFactory, log zerolog.Logger) *Controller {
	return &Controller{
		cfg:        cfg,
		signal:     sig,
		finder:     finder,
		factory:    factory,
		classifier: NewClassifier(cfg.States),
		log:        log.With().Str("component", "controller").Logger(),
		Clock:      time.Now,
	}
}

func (c *Controller) State() State {
	return State(c.state.Load())
}

// Instances returns the instances of the current run.
func (c *Controller) Instances() []*Instance {
	return c.instances
}

func (c *Controller) setState(s State) {
	if State(c.state.Swap(int32(s))) != s {
		c.log.Info().Stringer("state", s).Msg("Controller state changed")
	}
}

// Run blocks until ctx is done or the signal asks the process to exit.
func (c *Controller) Run(ctx context.Context) error {
	defer c.teardown("controller exiting")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if c.signal.ShouldExit() {
			return nil
		}

		switch c.State() {
		case Idle:
			if !c.signal.IsRunning() {
				c.latched = false
				c.wait(ctx, watchInterval)
				continue
			}
			if c.latched {
				c.wait(ctx, watchInterval)
				continue
			}
			if err := c.start(); err != nil {
				c.log.Error().Err(err).Msg("Startup aborted, toggle the run hotkey to retry")
				c.latched = true
			}
		case Running:
			if !c.signal.IsRunning() {
				c.teardown("stop requested")
				continue
			}
			c.Cycle()
			if c.allStopped() {
				c.teardown("all instances stopped")
				c.latched = true
				continue
			}
			c.wait(ctx, c.cfg.Loop.Interval)
		}
	}
}

func (c *Controller) start() error {
	windows, err := c.finder.FindWindows()
	if err != nil {
		return fmt.Errorf("find windows: %w", err)
	}

	now := c.Clock()
	var instances []*Instance
	for i, w := range windows {
		inst, err := c.factory(i, w)
		if err != nil {
			c.log.Error().Err(err).Int("instance", i).Str("title", w.Title()).Msg("Instance not started")
			continue
		}
		inst.Stop.Clear()
		inst.Stats = Stats{Started: now}
		instances = append(instances, inst)
	}
	if len(instances) == 0 {
		return ErrNoWindows
	}

	c.instances = instances
	c.setState(Running)
	c.log.Info().Int("instances", len(instances)).Msg("Controller started")
	c.watch()
	return nil
}

// watch raises every stop flag as soon as the signal drops, so gestures in
// flight end within one step.
func (c *Controller) watch() {
	ctx, cancel := context.WithCancel(context.Background())
	c.watchCancel = cancel
	instances := c.instances

	c.watchDone.Add(1)
	go func() {
		defer c.watchDone.Done()
		stopped := utils.NewTicker(ctx, watchInterval, func() bool {
			return !c.signal.IsRunning() || c.signal.ShouldExit()
		}, false)
		if stopped {
			for _, inst := range instances {
				inst.Stop.Set()
			}
		}
	}()
}

// Cycle runs one capture-recognize-act pass over every live instance.
func (c *Controller) Cycle() {
	for _, inst := range c.instances {
		if inst.Stop.IsSet() {
			continue
		}
		err := c.step(inst)
		inst.Stats.record(err)
		switch {
		case err == nil:
		case errors.Is(err, stopflag.ErrStopped):
			inst.Log.Debug().Msg("Action interrupted by stop request")
		default:
			inst.Log.Error().Err(err).Msg("Cycle failed")
		}
	}
}

func (c *Controller) step(inst *Instance) (err error) {
	defer func() {
		if r := recover(); r != nil {
			inst.Log.Error().Str("stack", string(debug.Stack())).Msgf("Recovered from panic: %v", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	now := c.Clock()
	inst.Tasks.Refresh(now)
	if !inst.Tasks.ShouldContinue(inst.InBattle) {
		inst.Log.Debug().Msg("Outside scheduled windows, waiting")
		return nil
	}

	frame, err := inst.Window.Capture()
	if err != nil {
		return fmt.Errorf("capture: %w", err)
	}
	defer frame.Close()

	m := inst.Locator.MatchTemplate(&frame)
	cat := c.classifier.Classify(m.Name)
	inst.Log.Debug().Str("match", m.Name).Stringer("category", cat).Msg("Screen recognized")

	switch cat {
	case CategoryPrep:
		inst.InBattle = true
		return nil
	case CategoryActive:
		inst.InBattle = true
		return inst.Battle.Tick(m)
	case CategoryEnded:
		err := inst.Battle.Quit()
		if inst.InBattle {
			c.recordBattle(inst, now)
		}
		c.checkFinished(inst)
		return err
	default:
		if inst.InBattle {
			c.recordBattle(inst, now)
			c.checkFinished(inst)
		}
		return inst.Port.Tick(m)
	}
}

func (c *Controller) recordBattle(inst *Instance, now time.Time) {
	inst.InBattle = false
	inst.Stats.Battles++
	inst.Tasks.RecordBattle(now)
	if r, ok := inst.Battle.(interface{ ResetAutopilot() }); ok {
		r.ResetAutopilot()
	}
	inst.Log.Info().Int("battles", inst.Stats.Battles).Interface("tasks", inst.Tasks.Active()).Msg("Battle recorded")
}

func (c *Controller) checkFinished(inst *Instance) {
	if inst.Tasks.Finished() {
		inst.Log.Info().Msg("All scheduled tasks finished")
		inst.Stop.Set()
	}
}

func (c *Controller) allStopped() bool {
	for _, inst := range c.instances {
		if !inst.Stop.IsSet() {
			return false
		}
	}
	return true
}

func (c *Controller) teardown(reason string) {
	if c.State() != Running {
		return
	}
	c.setState(Stopping)
	if c.watchCancel != nil {
		c.watchCancel()
		c.watchDone.Wait()
		c.watchCancel = nil
	}

	now := c.Clock()
	for _, inst := range c.instances {
		inst.Stop.Set()
		inst.Window.ReleaseKeys()
		inst.Stats.log(inst.Log, now)
	}
	c.instances = nil
	c.log.Info().Str("reason", reason).Msg("Controller stopped")
	c.setState(Idle)
}

func (c *Controller) wait(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
