// Package engine implements the macro execution engine: a background loop that
// runs the top frame of a macro stack one step at a time, gated on environment
// readiness and a pause signal, plus the control API callers use to drive it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"peon/internal/logger"
	"peon/pkg/macrotypes"
)

// Engine errors.
var (
	ErrEngineAlreadyStarted = errors.New("engine already started")
	ErrEngineStopped        = errors.New("engine stopped")
	ErrInvalidLoopCount     = errors.New("invalid craft loop count")
	ErrStepPanicked         = errors.New("step panicked")
)

// Config contains engine configuration.
type Config struct {
	// CraftLoop controls the crafting-loop expansion of new frames.
	CraftLoop CraftLoopOptions
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{}
}

// Engine owns the macro stack and the background execution loop.
type Engine struct {
	config   Config
	parser   Parser
	env      macrotypes.Environment
	reporter macrotypes.Reporter
	source   macrotypes.MacroSource
	logger   *log.Logger

	// mu guards the stack, every frame cursor, the state, the boundary
	// flags and the lifecycle fields below.
	mu          sync.Mutex
	stack       []*Frame
	state       macrotypes.LoopState
	pauseAtLoop bool
	stopAtLoop  bool
	generation  uint64

	ready    *Gate
	unpaused *Gate

	started  bool
	stopped  bool
	cancel   context.CancelFunc
	done     chan struct{}
	shutdown sync.Once
}

// New creates an engine. The loop does not run until Start is called.
func New(config Config, parser Parser, env macrotypes.Environment, reporter macrotypes.Reporter) *Engine {
	if reporter == nil {
		reporter = nopReporter{}
	}

	e := &Engine{
		config:   config,
		parser:   parser,
		env:      env,
		reporter: reporter,
		logger:   logger.NewStyledLogger("Engine"),
		state:    macrotypes.StateNotReady,
		ready:    NewGate(false),
		unpaused: NewGate(true),
	}

	if env.Available() {
		e.ready.Set()
		e.state = macrotypes.StateIdle
	}

	return e
}

// SetMacroSource wires the lookup used by /runmacro.
// Must be called before Start.
func (e *Engine) SetMacroSource(source macrotypes.MacroSource) {
	e.source = source
}

// Start launches the background loop. The loop runs until ctx is cancelled
// or Shutdown is called.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return ErrEngineStopped
	}
	if e.started {
		return ErrEngineAlreadyStarted
	}

	loopCtx, cancel := context.WithCancel(ctx)
	e.started = true
	e.cancel = cancel
	e.done = make(chan struct{})

	e.logger.Debug("Engine starting", "state", e.state)
	go e.eventLoop(loopCtx, e.done)
	return nil
}

// Shutdown stops the loop permanently and waits for it to exit. It is safe to
// call more than once, before Start, or after the loop has already exited.
func (e *Engine) Shutdown() {
	e.shutdown.Do(func() {
		e.mu.Lock()
		e.stopped = true
		cancel, done := e.cancel, e.done
		e.mu.Unlock()

		if cancel != nil {
			cancel()
			<-done
		}

		e.mu.Lock()
		e.setStateLocked(macrotypes.StateStopped)
		e.mu.Unlock()
	})
}

// OnBecameAvailable opens the environment-ready gate.
func (e *Engine) OnBecameAvailable() {
	e.ready.Set()

	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.stack) == 0 && e.state != macrotypes.StateStopped {
		e.setStateLocked(macrotypes.StateIdle)
	}
}

// OnBecameUnavailable closes the environment-ready gate. Frames stacked at this
// point are discarded by the loop on its next iteration.
func (e *Engine) OnBecameUnavailable() {
	e.mu.Lock()
	e.generation++
	if e.state != macrotypes.StateStopped {
		e.setStateLocked(macrotypes.StateNotReady)
	}
	e.mu.Unlock()

	e.ready.Reset()
}

func (e *Engine) eventLoop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		err := e.iterate(ctx)
		if err == nil {
			continue
		}

		if ctx.Err() != nil {
			e.logger.Debug("Event loop has been cancelled")
			e.mu.Lock()
			e.setStateLocked(macrotypes.StateStopped)
			e.mu.Unlock()
			return
		}

		if errors.Is(err, macrotypes.ErrEnvironmentUnavailable) && !e.env.Available() {
			e.logger.Warn("Environment went away mid-step", "error", err)
			e.OnBecameUnavailable()
			continue
		}

		e.logger.Error("Unhandled failure occurred", "error", err)
		e.reporter.Report(macrotypes.Message{
			Text:     fmt.Sprintf("Peon has died unexpectedly: %v", err),
			Severity: macrotypes.SeverityError,
			Hint:     macrotypes.ColorRed,
		})
		e.clearStack()
	}
}

// iterate runs one pass of the loop: wait for the environment, wait for the
// pause gate, then execute or retire the top frame's current step.
func (e *Engine) iterate(ctx context.Context) (err error) {
	var frame *Frame
	var index int

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrStepPanicked, r)
		}
		if err != nil && frame != nil && ctx.Err() == nil {
			err = fmt.Errorf("macro %q step %d: %w", frame.Name(), index+1, err)
		}
	}()

	if !e.ready.IsSet() {
		e.mu.Lock()
		e.setStateLocked(macrotypes.StateNotReady)
		e.mu.Unlock()
	}
	e.dropStaleFrames()

	if err := e.ready.Wait(ctx); err != nil {
		return err
	}

	if !e.unpaused.IsSet() {
		e.mu.Lock()
		if len(e.stack) == 0 {
			e.setStateLocked(macrotypes.StateIdle)
		} else {
			e.setStateLocked(macrotypes.StatePaused)
		}
		e.mu.Unlock()
	}

	if err := e.unpaused.Wait(ctx); err != nil {
		return err
	}
	if !e.ready.IsSet() {
		// Lost the environment while paused.
		return nil
	}

	e.mu.Lock()
	if len(e.stack) == 0 {
		// Checked under the same lock Enqueue pushes under, so a new frame
		// can never be stranded behind a closed gate.
		e.unpaused.Reset()
		e.mu.Unlock()
		return nil
	}

	frame = e.stack[len(e.stack)-1]
	e.setStateLocked(macrotypes.StateRunning)
	if frame.StepIndex() < 0 {
		// Rewound while no step was in flight.
		frame.Advance()
	}
	step := frame.CurrentStep()
	index = frame.StepIndex()
	if step == nil {
		e.removeFrameLocked(frame)
		e.mu.Unlock()
		e.logger.Debug("Macro completed", "macro", frame.Name(), "frame", frame.ID())
		frame = nil
		return nil
	}
	e.mu.Unlock()

	return e.runStep(ctx, frame, step, index)
}

func (e *Engine) runStep(ctx context.Context, frame *Frame, step macrotypes.Command, index int) error {
	e.logger.Debug("Executing step", "macro", frame.Name(), "step", index+1, "command", step.Text())

	rt := &stepRuntime{engine: e, frame: frame, index: index}
	outcome, err := step.Execute(ctx, rt)
	if err != nil {
		return err
	}

	switch outcome.Kind {
	case macrotypes.OutcomeOK:
		if wait := step.Wait(); !wait.IsZero() {
			if err := wait.Sleep(ctx); err != nil {
				return err
			}
		}
		e.mu.Lock()
		frame.Advance()
		e.mu.Unlock()

	case macrotypes.OutcomeStepFailure:
		e.logger.Warn("Step failed", "macro", frame.Name(), "step", index+1, "error", outcome.Reason)
		hint := outcome.Hint
		if hint == macrotypes.ColorDefault {
			hint = macrotypes.ColorRed
		}
		e.reporter.Report(macrotypes.Message{
			Text:     fmt.Sprintf("%s: Failure while running %s in %s (step %d)", outcome.Reason, step.Text(), frame.Name(), index+1),
			Severity: macrotypes.SeverityError,
			Hint:     hint,
		})
		e.unpaused.Reset()

	case macrotypes.OutcomePauseRequested:
		e.logger.Info("Step requested pause", "macro", frame.Name(), "step", index+1, "reason", outcome.Reason)
		e.reporter.Report(macrotypes.Message{
			Text:     outcome.Reason,
			Severity: macrotypes.SeverityWarning,
			Hint:     outcome.Hint,
		})
		e.unpaused.Reset()

	default:
		return fmt.Errorf("unknown step outcome %s", outcome.Kind)
	}

	return nil
}

// dropStaleFrames discards frames stacked before the last environment loss.
func (e *Engine) dropStaleFrames() {
	e.mu.Lock()
	defer e.mu.Unlock()

	kept := e.stack[:0]
	for _, f := range e.stack {
		if f.generation == e.generation {
			kept = append(kept, f)
			continue
		}
		e.logger.Debug("Discarding macro after environment loss", "macro", f.Name(), "frame", f.ID())
	}
	for i := len(kept); i < len(e.stack); i++ {
		e.stack[i] = nil
	}
	e.stack = kept
}

func (e *Engine) clearStack() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stack = nil
}

func (e *Engine) removeFrameLocked(frame *Frame) {
	for i := len(e.stack) - 1; i >= 0; i-- {
		if e.stack[i] == frame {
			e.stack = append(e.stack[:i], e.stack[i+1:]...)
			return
		}
	}
}

func (e *Engine) setStateLocked(state macrotypes.LoopState) {
	if e.state == state {
		return
	}
	if e.state == macrotypes.StateStopped {
		return
	}
	e.logger.Debug("State transition", "from", e.state, "state", state)
	e.state = state
}

type nopReporter struct{}

func (nopReporter) Report(macrotypes.Message) {}
func (nopReporter) ClearQueued()              {}
