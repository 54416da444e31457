package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"peon/pkg/macrotypes"
)

// Parser converts macro text into commands.
type Parser interface {
	Parse(text string) ([]macrotypes.Command, error)
	ParseLine(line string) (macrotypes.Command, error)
}

// CraftLoopOptions controls the crafting-loop expansion of a frame.
type CraftLoopOptions struct {
	// FromRecipeNote injects the synchronization steps before the body
	// instead of after it.
	FromRecipeNote bool
	// MaxWait bounds each injected /waitaddon; zero uses the command default.
	MaxWait time.Duration
	// Echo announces loop progress.
	Echo bool
}

// Frame is one running instance of a macro: an immutable step sequence and a
// cursor. Frame is not safe for concurrent use; the Engine serializes access.
type Frame struct {
	id         string
	definition macrotypes.MacroDefinition
	steps      []macrotypes.Command
	stepIndex  int
	generation uint64
	loops      map[int]int
}

// NewFrame parses the definition and applies the crafting-loop expansion.
func NewFrame(def macrotypes.MacroDefinition, parser Parser, opts CraftLoopOptions) (*Frame, error) {
	steps, err := parser.Parse(def.Contents)
	if err != nil {
		return nil, err
	}

	if def.CraftingLoop {
		steps, err = expandCraftLoop(steps, def.CraftLoopCount, parser, opts)
		if err != nil {
			return nil, err
		}
	}

	return &Frame{
		id:         uuid.New().String(),
		definition: def,
		steps:      steps,
		loops:      make(map[int]int),
	}, nil
}

func expandCraftLoop(steps []macrotypes.Command, loops int, parser Parser, opts CraftLoopOptions) ([]macrotypes.Command, error) {
	maxWait := ""
	if opts.MaxWait > 0 {
		maxWait = fmt.Sprintf(" <maxwait.%g>", opts.MaxWait.Seconds())
	}

	triad, err := parseLines(parser,
		`/waitaddon "RecipeNote"`+maxWait,
		`/click synthesize`,
		`/waitaddon "Synthesis"`+maxWait,
	)
	if err != nil {
		return nil, err
	}

	if opts.FromRecipeNote {
		steps = append(triad, steps...)
	} else if loops != 0 {
		// A single pass has nothing to synchronize with afterwards.
		steps = append(steps, triad...)
	}

	if loops > 0 || loops == macrotypes.InfiniteLoops {
		line := "/loop"
		if loops > 0 {
			line += fmt.Sprintf(" %d", loops)
		}
		if opts.Echo {
			line += " <echo>"
		}
		loopStep, err := parser.ParseLine(line)
		if err != nil {
			return nil, err
		}
		steps = append(steps, loopStep)
	}

	return steps, nil
}

func parseLines(parser Parser, lines ...string) ([]macrotypes.Command, error) {
	out := make([]macrotypes.Command, 0, len(lines))
	for _, line := range lines {
		cmd, err := parser.ParseLine(line)
		if err != nil {
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

// ID returns the unique frame identifier.
func (f *Frame) ID() string {
	return f.id
}

// Name returns the macro name.
func (f *Frame) Name() string {
	return f.definition.Name
}

// Definition returns the macro the frame was built from.
func (f *Frame) Definition() macrotypes.MacroDefinition {
	return f.definition
}

// Steps returns a copy of the step sequence.
func (f *Frame) Steps() []macrotypes.Command {
	out := make([]macrotypes.Command, len(f.steps))
	copy(out, f.steps)
	return out
}

// StepTexts returns the original text of every step.
func (f *Frame) StepTexts() []string {
	out := make([]string, len(f.steps))
	for i, s := range f.steps {
		out[i] = s.Text()
	}
	return out
}

// StepIndex returns the zero-based cursor, -1 after Reset.
func (f *Frame) StepIndex() int {
	return f.stepIndex
}

// CurrentStep returns the command under the cursor, or nil when the cursor is
// outside the sequence.
func (f *Frame) CurrentStep() macrotypes.Command {
	if f.stepIndex < 0 || f.stepIndex >= len(f.steps) {
		return nil
	}
	return f.steps[f.stepIndex]
}

// Advance moves the cursor forward by one step.
func (f *Frame) Advance() {
	f.stepIndex++
}

// Reset moves the cursor before the first step; the next Advance lands on it.
func (f *Frame) Reset() {
	f.stepIndex = -1
}

// consumeLoop takes one repetition from the loop budget of the step at index.
func (f *Frame) consumeLoop(index, count int) (int, bool) {
	remaining, ok := f.loops[index]
	if !ok {
		remaining = count
	}
	if remaining <= 0 {
		delete(f.loops, index)
		return 0, false
	}
	remaining--
	f.loops[index] = remaining
	return remaining, true
}
