package engine

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
)

// Session phases.
const (
	PhaseIdle    = "idle"
	PhasePlaying = "playing"
	PhaseStopped = "stopped"
)

// Default cadences. AI turns and autosaves are counted in economy ticks.
const (
	DefaultInterval      = 100 * time.Millisecond
	DefaultAIEvery       = 50  // 5s at the default interval.
	DefaultAutosaveEvery = 300 // 30s at the default interval.
)

// SaveFunc persists a captured session. It runs off the tick goroutine.
type SaveFunc func(ctx context.Context, st SaveState) error

// Engine drives a Game forward.
type Engine struct {
	Tick          uint64        // Ticks run by this engine (monotonic).
	Interval      time.Duration // Base economy tick interval.
	AIEvery       uint64
	AutosaveEvery uint64

	// Layer callbacks, populated by NewEngine and replaceable in tests.
	OnTick     func(tick uint64)
	OnAITurn   func(tick uint64)
	OnAutosave func(tick uint64)

	game  *Game
	save  SaveFunc
	phase *fsm.FSM

	ctx      context.Context
	cancel   context.CancelFunc
	stopOnce sync.Once
	saving   atomic.Bool
	inflight sync.WaitGroup
	speed    atomic.Uint64 // float64 bits
}

// NewEngine wires a game to the loop. save may be nil to disable autosave.
func NewEngine(g *Game, save SaveFunc) *Engine {
	e := &Engine{
		Interval:      DefaultInterval,
		AIEvery:       DefaultAIEvery,
		AutosaveEvery: DefaultAutosaveEvery,
		game:          g,
		save:          save,
	}
	e.SetSpeed(1.0)
	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.OnTick = func(uint64) { g.Tick() }
	e.OnAITurn = func(uint64) {
		if rep := g.AITurn(); rep.Action != "" {
			slog.Debug("ai turn", "turn", rep.Turn, "action", rep.Action)
		}
	}
	e.OnAutosave = func(uint64) { e.autosave() }

	e.phase = fsm.NewFSM(
		PhaseIdle,
		fsm.Events{
			{Name: "start", Src: []string{PhaseIdle}, Dst: PhasePlaying},
			{Name: "stop", Src: []string{PhaseIdle, PhasePlaying}, Dst: PhaseStopped},
		},
		fsm.Callbacks{
			"enter_" + PhasePlaying: func(_ context.Context, ev *fsm.Event) {
				slog.Info("session playing", "tick", e.Tick)
			},
			"enter_" + PhaseStopped: func(_ context.Context, ev *fsm.Event) {
				e.cancel()
				slog.Info("session stopped", "tick", e.Tick, "from", ev.Src)
			},
		},
	)
	return e
}

// Speed returns the tick rate multiplier: 1.0 is real time, 0 is paused.
func (e *Engine) Speed() float64 {
	return math.Float64frombits(e.speed.Load())
}

// SetSpeed changes the multiplier. It is safe to call while Run is going.
func (e *Engine) SetSpeed(v float64) {
	e.speed.Store(math.Float64bits(v))
}

// Phase returns the current session phase.
func (e *Engine) Phase() string {
	return e.phase.Current()
}

// Playing reports whether callbacks may mutate state.
func (e *Engine) Playing() bool {
	return e.phase.Is(PhasePlaying)
}

// Run starts the loop and blocks until Stop is called or ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.phase.Event(ctx, "start"); err != nil {
		return err
	}
	slog.Info("session engine started", "tick", e.Tick, "speed", e.Speed(), "interval", e.Interval)

	defer e.inflight.Wait()
	for {
		speed := e.Speed()
		if speed <= 0 {
			if !e.sleep(ctx, 100*time.Millisecond) {
				break
			}
			continue
		}

		start := time.Now()
		e.Step()

		target := time.Duration(float64(e.Interval) / speed)
		if !e.sleep(ctx, target-time.Since(start)) {
			break
		}
	}
	e.Stop()
	return nil
}

// sleep waits for d and reports whether the loop should keep going.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		d = 0
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-e.ctx.Done():
		return false
	case <-t.C:
		return e.Playing()
	}
}

// Stop ends the session. Calling it more than once is safe.
func (e *Engine) Stop() {
	e.stopOnce.Do(func() {
		if err := e.phase.Event(context.Background(), "stop"); err != nil {
			slog.Warn("stop transition", "err", err)
			e.cancel()
		}
	})
}

// Step advances one economy tick and fans out to the slower layers. It is
// a no-op outside the playing phase.
func (e *Engine) Step() {
	if !e.Playing() {
		return
	}
	e.Tick++

	if e.OnTick != nil {
		e.OnTick(e.Tick)
	}
	if e.AIEvery > 0 && e.Tick%e.AIEvery == 0 && e.OnAITurn != nil {
		e.OnAITurn(e.Tick)
	}
	if e.AutosaveEvery > 0 && e.Tick%e.AutosaveEvery == 0 && e.OnAutosave != nil {
		e.OnAutosave(e.Tick)
	}
}

// Start moves an idle engine into the playing phase without running the
// loop, for callers that drive Step themselves.
func (e *Engine) Start() error {
	return e.phase.Event(context.Background(), "start")
}

// autosave captures the game under its lock and writes it in the
// background. A save still in flight causes this one to be skipped.
func (e *Engine) autosave() {
	if e.save == nil {
		return
	}
	if !e.saving.CompareAndSwap(false, true) {
		slog.Debug("autosave skipped, previous save still running", "tick", e.Tick)
		return
	}
	st := e.game.Export()
	e.inflight.Add(1)
	go func() {
		defer e.inflight.Done()
		defer e.saving.Store(false)
		if err := e.save(context.WithoutCancel(e.ctx), st); err != nil {
			slog.Error("autosave failed", "err", err)
			return
		}
		slog.Debug("autosaved", "tick", st.Tick)
	}()
}

// SaveNow writes the game synchronously, waiting for any autosave first.
func (e *Engine) SaveNow(ctx context.Context) error {
	e.inflight.Wait()
	if e.save == nil {
		return nil
	}
	return e.save(ctx, e.game.Export())
}
