package testutils

import (
	"context"
	"fmt"
	"sync"

	"peon/pkg/macrotypes"
)

// FakeEnvironment is an in-memory environment with settable state.
type FakeEnvironment struct {
	mu        sync.Mutex
	available bool
	state     map[string]string
	failures  map[string]error
	actions   []string
}

// NewFakeEnvironment creates an environment in the given availability.
func NewFakeEnvironment(available bool) *FakeEnvironment {
	return &FakeEnvironment{
		available: available,
		state:     make(map[string]string),
		failures:  make(map[string]error),
	}
}

// SetAvailable toggles availability.
func (f *FakeEnvironment) SetAvailable(available bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.available = available
}

// Set stores a selector value; the selector becomes present.
func (f *FakeEnvironment) Set(selector, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state[selector] = value
}

// Delete removes a selector.
func (f *FakeEnvironment) Delete(selector string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.state, selector)
}

// FailAction makes the kind:target action return err.
func (f *FakeEnvironment) FailAction(kind, target string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[kind+":"+target] = err
}

// Actions returns every performed action as "kind:target".
func (f *FakeEnvironment) Actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.actions))
	copy(out, f.actions)
	return out
}

// Available reports availability.
func (f *FakeEnvironment) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.available
}

// QueryState reads a selector.
func (f *FakeEnvironment) QueryState(_ context.Context, selector string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return "", false, macrotypes.ErrEnvironmentUnavailable
	}
	v, ok := f.state[selector]
	return v, ok, nil
}

// PerformAction records an action.
func (f *FakeEnvironment) PerformAction(_ context.Context, kind, target string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.available {
		return macrotypes.ErrEnvironmentUnavailable
	}
	key := kind + ":" + target
	if err, ok := f.failures[key]; ok {
		return fmt.Errorf("%s: %w", key, err)
	}
	f.actions = append(f.actions, key)
	return nil
}

// FakeRuntime is a Runtime for exercising commands outside the engine.
type FakeRuntime struct {
	Env      macrotypes.Environment
	Rep      *RecordingReporter
	Macros   map[string]macrotypes.MacroDefinition
	PauseSet bool
	StopSet  bool

	mu       sync.Mutex
	loops    int
	budget   *int
	paused   bool
	stopped  bool
	enqueued []string
}

// NewFakeRuntime creates a runtime over env.
func NewFakeRuntime(env macrotypes.Environment) *FakeRuntime {
	return &FakeRuntime{Env: env, Rep: NewRecordingReporter(), Macros: map[string]macrotypes.MacroDefinition{}}
}

func (r *FakeRuntime) Environment() macrotypes.Environment { return r.Env }
func (r *FakeRuntime) Reporter() macrotypes.Reporter       { return r.Rep }

func (r *FakeRuntime) LoopBoundaryCheckForPause() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.PauseSet {
		r.PauseSet = false
		r.paused = true
		return true
	}
	return false
}

func (r *FakeRuntime) LoopBoundaryCheckForStop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.StopSet {
		r.StopSet = false
		r.stopped = true
		return true
	}
	return false
}

func (r *FakeRuntime) RequestLoop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loops++
}

func (r *FakeRuntime) ConsumeLoop(count int) (int, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.budget == nil {
		c := count
		r.budget = &c
	}
	if *r.budget <= 0 {
		r.budget = nil
		return 0, false
	}
	*r.budget--
	return *r.budget, true
}

func (r *FakeRuntime) RunMacro(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.Macros[name]; !ok {
		return fmt.Errorf("%w: %s", macrotypes.ErrMacroNotFound, name)
	}
	r.enqueued = append(r.enqueued, name)
	return nil
}

// Loops returns how many times RequestLoop was called.
func (r *FakeRuntime) Loops() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loops
}

// Paused reports whether a boundary pause fired.
func (r *FakeRuntime) Paused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// Stopped reports whether a boundary stop fired.
func (r *FakeRuntime) Stopped() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopped
}

// Enqueued returns the macro names passed to RunMacro.
func (r *FakeRuntime) Enqueued() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.enqueued...)
}
