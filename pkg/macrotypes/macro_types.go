package macrotypes

// InfiniteLoops is the CraftLoopCount value meaning "loop until stopped".
const InfiniteLoops = -1

// MacroDefinition is a named, user-authored script. It is treated as immutable
// once handed to the engine.
type MacroDefinition struct {
	Name           string `yaml:"name"`             // Unique macro name
	Contents       string `yaml:"contents"`         // Raw text body, one command per line
	CraftingLoop   bool   `yaml:"crafting_loop"`    // Inject the crafting synchronization steps
	CraftLoopCount int    `yaml:"craft_loop_count"` // 0 = no loop, -1 = infinite, >0 = repeat count
}

// LoopState is the single authoritative state of the execution engine.
type LoopState int

const (
	// StateNotReady - the environment is unavailable
	StateNotReady LoopState = iota
	// StateIdle - the environment is ready and no macro is stacked
	StateIdle
	// StatePaused - macros are stacked but execution is held
	StatePaused
	// StateRunning - a step is being executed
	StateRunning
	// StateStopped - the background loop has exited permanently
	StateStopped
)

// String returns a human-readable representation of the loop state.
func (s LoopState) String() string {
	switch s {
	case StateNotReady:
		return "NotReady"
	case StateIdle:
		return "Idle"
	case StatePaused:
		return "Paused"
	case StateRunning:
		return "Running"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// MacroStatus describes one frame on the macro stack.
type MacroStatus struct {
	Name string // macro name
	Step int    // 1-based step number
}
