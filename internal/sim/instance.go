// Package sim runs the authoritative simulation of one character's run: the
// fixed-period tick loop, command application, wave and threat control,
// reward resolution and the delta updates sent to the client.
package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"grindfall/server/internal/blueprint"
	"grindfall/server/internal/combat"
	"grindfall/server/internal/gameerr"
	"grindfall/server/internal/rng"
	"grindfall/server/internal/state"
	"grindfall/server/internal/telemetry"
	"grindfall/server/logging"
	loggingpersistence "grindfall/server/logging/persistence"
	loggingsimulation "grindfall/server/logging/simulation"
)

const (
	tickOverrunMetricKey     = "sim_tick_overrun_total"
	stagePanicMetricKey      = "sim_stage_panic_total"
	autosaveFailureMetricKey = "sim_autosave_failures_total"
	autosaveSkippedMetricKey = "sim_autosave_skipped_total"
)

// ErrMissingState indicates NewInstance was invoked without a state.
var ErrMissingState = errors.New("sim: state is nil")

// Config tunes the tick loop of an instance.
type Config struct {
	TickPeriod         time.Duration
	CatchupMaxTicks    int
	MaxCommandsPerTick int
	CommandCapacity    int
	AutosaveInterval   time.Duration
	SaveTimeout        time.Duration
}

// DefaultConfig returns the production loop settings.
func DefaultConfig() Config {
	return Config{
		TickPeriod:         100 * time.Millisecond,
		CatchupMaxTicks:    10,
		MaxCommandsPerTick: 100,
		CommandCapacity:    256,
		AutosaveInterval:   time.Minute,
		SaveTimeout:        10 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.TickPeriod <= 0 {
		c.TickPeriod = defaults.TickPeriod
	}
	if c.CatchupMaxTicks < 1 {
		c.CatchupMaxTicks = defaults.CatchupMaxTicks
	}
	if c.MaxCommandsPerTick < 1 {
		c.MaxCommandsPerTick = defaults.MaxCommandsPerTick
	}
	if c.CommandCapacity < 1 {
		c.CommandCapacity = defaults.CommandCapacity
	}
	if c.AutosaveInterval <= 0 {
		c.AutosaveInterval = defaults.AutosaveInterval
	}
	if c.SaveTimeout <= 0 {
		c.SaveTimeout = defaults.SaveTimeout
	}
	return c
}

// Saver persists encoded instance states.
type Saver interface {
	Save(ctx context.Context, characterID string, blob []byte) error
}

// Deps carries shared infrastructure dependencies of an instance.
type Deps struct {
	Logger    telemetry.Logger
	Metrics   telemetry.Metrics
	Publisher logging.Publisher
	Clock     logging.Clock
	Saver     Saver
}

// Instance drives one State. Enqueue may be called from any goroutine; every
// other method belongs to the goroutine running the loop.
type Instance struct {
	state    *State
	catalog  *blueprint.Catalog
	config   Config
	deps     Deps
	rng      *rng.Service
	resolver *combat.Resolver
	buffer   *CommandBuffer
	actor    logging.EntityRef

	dropCount     atomic.Uint64
	saving        atomic.Bool
	saves         sync.WaitGroup
	lastSave      time.Time
	overrunStreak uint64
}

// NewInstance wraps s for simulation against catalog.
func NewInstance(s *State, catalog *blueprint.Catalog, cfg Config, deps Deps) (*Instance, error) {
	if s == nil {
		return nil, gameerr.Infrastructure("new instance", ErrMissingState)
	}
	if catalog == nil {
		return nil, gameerr.Infrastructure("new instance", ErrMissingCatalog)
	}
	if deps.Logger == nil {
		deps.Logger = telemetry.LoggerFunc(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = telemetry.Nop()
	}
	if deps.Publisher == nil {
		deps.Publisher = logging.NopPublisher()
	}
	if deps.Clock == nil {
		deps.Clock = logging.ClockFunc(time.Now)
	}
	cfg = cfg.withDefaults()

	inst := &Instance{
		state:   s,
		catalog: catalog,
		config:  cfg,
		deps:    deps,
		rng:     rng.New(s.Seed, fmt.Sprintf("%s/%d", s.CharacterID, s.Tick)),
		buffer:  NewCommandBuffer(cfg.CommandCapacity, deps.Metrics),
		actor:   logging.PlayerEntity(s.CharacterID),
	}
	inst.resolver = combat.NewResolver(combat.Config{
		RNG:         inst.rng,
		Publisher:   deps.Publisher,
		Entity:      inst.entity,
		CurrentTick: func() uint64 { return s.Tick },
	})
	return inst, nil
}

// State returns the simulated state.
func (i *Instance) State() *State {
	if i == nil {
		return nil
	}
	return i.state
}

func (i *Instance) entity(ref state.CharacterRef) logging.EntityRef {
	if ref.Kind == state.KindMonster {
		return logging.MonsterEntity(ref.Index)
	}
	return i.actor
}

// Enqueue stages a command for the next tick. It reports false when the
// command buffer is full.
func (i *Instance) Enqueue(cmd Command) bool {
	if i == nil {
		return false
	}
	if cmd.IssuedAt.IsZero() {
		cmd.IssuedAt = i.deps.Clock.Now()
	}
	if i.buffer.Push(cmd) {
		return true
	}
	count := i.dropCount.Add(1)
	if count&(count-1) == 0 {
		i.deps.Logger.Printf(
			"[backpressure] dropping command character=%s type=%s count=%d capacity=%d",
			i.state.CharacterID,
			cmd.Type,
			count,
			i.buffer.Capacity(),
		)
	}
	return false
}

// Run sends the initial snapshot and ticks until the connection closes, ctx
// is cancelled or the quest is terminated. The current tick always completes
// before Run returns.
func (i *Instance) Run(ctx context.Context, conn Conn) error {
	if i == nil || conn == nil {
		return nil
	}
	if err := conn.SendInit(ctx, i.Init()); err != nil {
		return gameerr.Infrastructure("send init", err)
	}

	clock := i.deps.Clock
	last := clock.Now()
	i.lastSave = last
	maxElapsed := i.config.TickPeriod * time.Duration(i.config.CatchupMaxTicks)
	timer := time.NewTimer(i.config.TickPeriod)
	defer timer.Stop()

	for {
		start := clock.Now()
		elapsed := start.Sub(last)
		if elapsed <= 0 {
			elapsed = i.config.TickPeriod
		} else if elapsed > maxElapsed {
			elapsed = maxElapsed
		}
		last = start

		for _, err := range i.Step(elapsed.Seconds()) {
			notice := NoticeFor(err)
			if sendErr := conn.SendError(ctx, notice); sendErr != nil {
				i.deps.Logger.Printf("[sim] failed to send error character=%s: %v", i.state.CharacterID, sendErr)
			}
		}
		if err := conn.SendUpdate(ctx, i.Update()); err != nil {
			i.deps.Logger.Printf("[sim] failed to sync character=%s: %v", i.state.CharacterID, err)
		}
		if now := clock.Now(); now.Sub(i.lastSave) >= i.config.AutosaveInterval {
			i.lastSave = now
			i.Autosave(ctx, "interval")
		}
		if i.state.Terminated {
			if err := conn.SendDisconnect(ctx, Disconnect{Reason: "quest terminated", EndQuest: true}); err != nil {
				i.deps.Logger.Printf("[sim] failed to send disconnect character=%s: %v", i.state.CharacterID, err)
			}
			return nil
		}

		spent := clock.Now().Sub(start)
		i.checkBudget(spent)
		select {
		case <-ctx.Done():
			return nil
		case <-conn.Done():
			return nil
		default:
		}
		timer.Reset(max(i.config.TickPeriod-spent, 0))
		select {
		case <-ctx.Done():
			return nil
		case <-conn.Done():
			return nil
		case <-timer.C:
		}
	}
}

// Step runs one tick of elapsed seconds and returns the errors raised by the
// commands it applied.
func (i *Instance) Step(elapsed float64) []error {
	if i == nil {
		return nil
	}
	s := i.state
	s.Tick++
	ended := s.AreaState.Read().EndQuest
	if !ended {
		s.resetJustFlags()
	}
	errs := i.applyCommands()
	if ended || s.AreaState.Read().EndQuest {
		return errs
	}

	i.stage("threat", func() { i.updateThreat(elapsed) })
	i.stage("specs", i.refreshSpecs)
	i.stage("control", i.control)
	i.stage("events", i.resolveEvents)
	i.stage("update", func() { i.updateEntities(elapsed) })
	s.Stats.ElapsedTime += elapsed
	return errs
}

// stage runs fn and converts a panic into a log line so the remaining
// stages of the tick still run.
func (i *Instance) stage(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			i.deps.Metrics.Add(stagePanicMetricKey, 1)
			i.deps.Logger.Printf("[sim] recovered panic in %s stage character=%s tick=%d: %v", name, i.state.CharacterID, i.state.Tick, r)
		}
	}()
	fn()
}

func (i *Instance) applyCommands() []error {
	commands := i.buffer.DrainN(i.config.MaxCommandsPerTick)
	if pending := i.buffer.Len(); pending > 0 {
		loggingsimulation.CommandsDeferred(context.Background(), i.deps.Publisher, i.state.Tick, i.actor, loggingsimulation.CommandsDeferredPayload{
			Pending: pending,
			Budget:  i.config.MaxCommandsPerTick,
		}, nil)
	}
	var errs []error
	for _, cmd := range commands {
		err := i.applySafely(cmd)
		if err == nil {
			continue
		}
		errs = append(errs, err)
		loggingsimulation.CommandRejected(context.Background(), i.deps.Publisher, i.state.Tick, i.actor, loggingsimulation.CommandPayload{
			Command: string(cmd.Type),
			Kind:    string(gameerr.KindOf(err)),
			Reason:  err.Error(),
		}, nil)
	}
	return errs
}

func (i *Instance) applySafely(cmd Command) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = gameerr.Infrastructure(fmt.Sprintf("apply %s", cmd.Type), fmt.Errorf("panic: %v", r))
			loggingsimulation.CommandPanicked(context.Background(), i.deps.Publisher, i.state.Tick, i.actor, loggingsimulation.CommandPayload{
				Command: string(cmd.Type),
				Kind:    string(gameerr.KindInfrastructure),
				Reason:  fmt.Sprint(r),
			}, nil)
		}
	}()
	return i.apply(cmd)
}

func (i *Instance) checkBudget(spent time.Duration) {
	if spent <= i.config.TickPeriod {
		i.overrunStreak = 0
		return
	}
	i.overrunStreak++
	i.deps.Metrics.Add(tickOverrunMetricKey, 1)
	loggingsimulation.TickBudgetOverrun(context.Background(), i.deps.Publisher, i.state.Tick, i.actor, loggingsimulation.TickBudgetOverrunPayload{
		DurationMillis: spent.Milliseconds(),
		BudgetMillis:   i.config.TickPeriod.Milliseconds(),
		Ratio:          float64(spent) / float64(i.config.TickPeriod),
		Streak:         i.overrunStreak,
	}, nil)
}

// Autosave encodes the state on the calling goroutine and writes it in the
// background. It reports false when no save was started, either because no
// Saver is configured or a previous save is still running.
func (i *Instance) Autosave(ctx context.Context, reason string) bool {
	if i == nil || i.deps.Saver == nil {
		return false
	}
	if !i.saving.CompareAndSwap(false, true) {
		i.deps.Metrics.Add(autosaveSkippedMetricKey, 1)
		return false
	}
	blob, err := EncodeState(i.state)
	if err != nil {
		i.saving.Store(false)
		i.saveFailed(ctx, i.state.Tick, reason, err)
		return false
	}

	characterID := i.state.CharacterID
	tick := i.state.Tick
	i.saves.Add(1)
	go func() {
		defer i.saves.Done()
		defer i.saving.Store(false)
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), i.config.SaveTimeout)
		defer cancel()
		if err := i.deps.Saver.Save(saveCtx, characterID, blob); err != nil {
			i.saveFailed(ctx, tick, reason, err)
			return
		}
		loggingpersistence.Saved(ctx, i.deps.Publisher, tick, i.actor, loggingpersistence.SavedPayload{
			Bytes:  len(blob),
			Reason: reason,
		}, nil)
	}()
	return true
}

// WaitSaves blocks until every background save finished.
func (i *Instance) WaitSaves() {
	if i == nil {
		return
	}
	i.saves.Wait()
}

func (i *Instance) saveFailed(ctx context.Context, tick uint64, reason string, err error) {
	i.deps.Metrics.Add(autosaveFailureMetricKey, 1)
	i.deps.Logger.Printf("[sim] failed to save character=%s reason=%s: %v", i.state.CharacterID, reason, err)
	loggingpersistence.SaveFailed(ctx, i.deps.Publisher, tick, i.actor, loggingpersistence.FailurePayload{
		Reason: reason,
		Error:  err.Error(),
	}, nil)
}
