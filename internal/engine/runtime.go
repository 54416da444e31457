package engine

import (
	"fmt"

	"peon/pkg/macrotypes"
)

// stepRuntime is the engine view handed to an executing command.
type stepRuntime struct {
	engine *Engine
	frame  *Frame
	index  int
}

var _ macrotypes.Runtime = (*stepRuntime)(nil)

func (r *stepRuntime) Environment() macrotypes.Environment {
	return r.engine.env
}

func (r *stepRuntime) Reporter() macrotypes.Reporter {
	return r.engine.reporter
}

func (r *stepRuntime) LoopBoundaryCheckForPause() bool {
	return r.engine.LoopBoundaryCheckForPause()
}

func (r *stepRuntime) LoopBoundaryCheckForStop() bool {
	return r.engine.LoopBoundaryCheckForStop()
}

// RequestLoop rewinds the frame that owns the executing step, which is the
// top frame unless a macro was pushed while the step ran.
func (r *stepRuntime) RequestLoop() {
	r.engine.mu.Lock()
	defer r.engine.mu.Unlock()
	r.frame.Reset()
}

func (r *stepRuntime) ConsumeLoop(count int) (int, bool) {
	r.engine.mu.Lock()
	defer r.engine.mu.Unlock()
	return r.frame.consumeLoop(r.index, count)
}

func (r *stepRuntime) RunMacro(name string) error {
	if r.engine.source == nil {
		return fmt.Errorf("%w: %s", macrotypes.ErrMacroNotFound, name)
	}
	def, ok := r.engine.source.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", macrotypes.ErrMacroNotFound, name)
	}
	return r.engine.Enqueue(def)
}
