package engine

import (
	"fmt"

	"peon/pkg/macrotypes"
)

// Enqueue parses the macro and pushes it on top of the stack. A macro pushed
// while another runs is nested ahead of it. Parse failures reject the macro
// as a whole and nothing is scheduled.
func (e *Engine) Enqueue(def macrotypes.MacroDefinition) error {
	if def.CraftLoopCount < macrotypes.InfiniteLoops {
		return fmt.Errorf("enqueue macro %q: %w: %d", def.Name, ErrInvalidLoopCount, def.CraftLoopCount)
	}

	frame, err := NewFrame(def, e.parser, e.config.CraftLoop)
	if err != nil {
		return fmt.Errorf("enqueue macro %q: %w", def.Name, err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped {
		return ErrEngineStopped
	}

	frame.generation = e.generation
	e.stack = append(e.stack, frame)
	e.unpaused.Set()

	e.logger.Debug("Macro enqueued", "macro", def.Name, "frame", frame.ID(), "steps", len(frame.steps), "depth", len(e.stack))
	return nil
}

// Pause holds execution. With atLoop set it instead toggles a pause at the
// next /loop and cancels any pending stop at loop.
func (e *Engine) Pause(atLoop bool) {
	e.mu.Lock()
	if atLoop {
		e.pauseAtLoop = !e.pauseAtLoop
		e.stopAtLoop = false
		e.mu.Unlock()
		return
	}
	e.pauseAtLoop = false
	e.stopAtLoop = false
	e.unpaused.Reset()
	e.mu.Unlock()

	e.reporter.ClearQueued()
}

// Resume releases a paused engine; execution continues at the current step.
func (e *Engine) Resume() {
	e.unpaused.Set()
}

// Stop discards every stacked macro. With atLoop set it instead toggles a stop
// at the next /loop and cancels any pending pause at loop.
func (e *Engine) Stop(atLoop bool) {
	e.mu.Lock()
	if atLoop {
		e.pauseAtLoop = false
		e.stopAtLoop = !e.stopAtLoop
		e.mu.Unlock()
		return
	}
	e.pauseAtLoop = false
	e.stopAtLoop = false
	e.unpaused.Set()
	e.stack = nil
	e.mu.Unlock()

	e.reporter.ClearQueued()
}

// LoopBoundaryCheckForPause pauses immediately when a pause at loop is pending.
func (e *Engine) LoopBoundaryCheckForPause() bool {
	e.mu.Lock()
	pending := e.pauseAtLoop
	e.mu.Unlock()

	if pending {
		e.Pause(false)
	}
	return pending
}

// LoopBoundaryCheckForStop stops immediately when a stop at loop is pending.
func (e *Engine) LoopBoundaryCheckForStop() bool {
	e.mu.Lock()
	pending := e.stopAtLoop
	e.mu.Unlock()

	if pending {
		e.Stop(false)
	}
	return pending
}

// RequestLoop rewinds the top frame so its first step runs next.
func (e *Engine) RequestLoop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	// The stack can be empty if it was cleared during a loop.
	if top := e.topLocked(); top != nil {
		top.Reset()
	}
}

// RequestNextStep skips the top frame's current step. It is ignored while a
// step is executing, since the loop advances past that step itself.
func (e *Engine) RequestNextStep() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == macrotypes.StateRunning {
		e.logger.Debug("Ignoring next step request while running")
		return
	}
	if top := e.topLocked(); top != nil {
		top.Advance()
	}
}

// State returns the current loop state.
func (e *Engine) State() macrotypes.LoopState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// PauseAtLoop reports whether a pause at the next loop is pending.
func (e *Engine) PauseAtLoop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pauseAtLoop
}

// StopAtLoop reports whether a stop at the next loop is pending.
func (e *Engine) StopAtLoop() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stopAtLoop
}

// MacroStatus returns the name and 1-based step of every stacked macro, top first.
func (e *Engine) MacroStatus() []macrotypes.MacroStatus {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]macrotypes.MacroStatus, 0, len(e.stack))
	for i := len(e.stack) - 1; i >= 0; i-- {
		f := e.stack[i]
		out = append(out, macrotypes.MacroStatus{Name: f.Name(), Step: f.StepIndex() + 1})
	}
	return out
}

// CurrentMacroContent returns the step texts of the top macro.
func (e *Engine) CurrentMacroContent() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	top := e.topLocked()
	if top == nil {
		return []string{}
	}
	return top.StepTexts()
}

// CurrentMacroStep returns the zero-based step index of the top macro.
func (e *Engine) CurrentMacroStep() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	top := e.topLocked()
	if top == nil {
		return 0
	}
	return top.StepIndex()
}

func (e *Engine) topLocked() *Frame {
	if len(e.stack) == 0 {
		return nil
	}
	return e.stack[len(e.stack)-1]
}
