package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peon/internal/commands"
	"peon/pkg/macrotypes"
)

func catalogParser() Parser {
	return commands.NewParser(commands.DefaultOptions())
}

func TestNewFrame_PlainMacro(t *testing.T) {
	def := macrotypes.MacroDefinition{Name: "plain", Contents: "/echo one\n\n# note\n/echo two"}

	frame, err := NewFrame(def, catalogParser(), CraftLoopOptions{})
	require.NoError(t, err)

	assert.NotEmpty(t, frame.ID())
	assert.Equal(t, "plain", frame.Name())
	assert.Equal(t, []string{"/echo one", "/echo two"}, frame.StepTexts())
	assert.Equal(t, 0, frame.StepIndex())
}

func TestNewFrame_SyntaxErrorRejectsMacro(t *testing.T) {
	def := macrotypes.MacroDefinition{Name: "bad", Contents: "/echo one\n/nonsense"}

	frame, err := NewFrame(def, catalogParser(), CraftLoopOptions{})
	require.Error(t, err)
	assert.Nil(t, frame)

	var syntaxErr *macrotypes.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 2, syntaxErr.Line)
	assert.Equal(t, "/nonsense", syntaxErr.Text)
}

func TestNewFrame_CraftLoopExpansion(t *testing.T) {
	body := `/ac "Basic Synthesis"`

	tests := []struct {
		name     string
		count    int
		opts     CraftLoopOptions
		expected []string
	}{
		{
			name:  "from recipe note with count",
			count: 3,
			opts:  CraftLoopOptions{FromRecipeNote: true, MaxWait: 5 * time.Second},
			expected: []string{
				`/waitaddon "RecipeNote" <maxwait.5>`,
				`/click synthesize`,
				`/waitaddon "Synthesis" <maxwait.5>`,
				body,
				`/loop 3`,
			},
		},
		{
			name:     "single pass after body",
			count:    0,
			opts:     CraftLoopOptions{},
			expected: []string{body},
		},
		{
			name:  "single pass from recipe note",
			count: 0,
			opts:  CraftLoopOptions{FromRecipeNote: true},
			expected: []string{
				`/waitaddon "RecipeNote"`,
				`/click synthesize`,
				`/waitaddon "Synthesis"`,
				body,
			},
		},
		{
			name:  "infinite after body",
			count: macrotypes.InfiniteLoops,
			opts:  CraftLoopOptions{},
			expected: []string{
				body,
				`/waitaddon "RecipeNote"`,
				`/click synthesize`,
				`/waitaddon "Synthesis"`,
				`/loop`,
			},
		},
		{
			name:  "echo with fractional wait",
			count: 2,
			opts:  CraftLoopOptions{MaxWait: 2500 * time.Millisecond, Echo: true},
			expected: []string{
				body,
				`/waitaddon "RecipeNote" <maxwait.2.5>`,
				`/click synthesize`,
				`/waitaddon "Synthesis" <maxwait.2.5>`,
				`/loop 2 <echo>`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			def := macrotypes.MacroDefinition{
				Name:           "craft",
				Contents:       body,
				CraftingLoop:   true,
				CraftLoopCount: tt.count,
			}

			frame, err := NewFrame(def, catalogParser(), tt.opts)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, frame.StepTexts())
		})
	}
}

func TestNewFrame_InjectedStepsAreTyped(t *testing.T) {
	def := macrotypes.MacroDefinition{
		Name:           "craft",
		Contents:       "/echo body",
		CraftingLoop:   true,
		CraftLoopCount: 4,
	}

	frame, err := NewFrame(def, catalogParser(), CraftLoopOptions{MaxWait: 3 * time.Second, Echo: true})
	require.NoError(t, err)

	steps := frame.Steps()
	require.Len(t, steps, 5)

	waitAddon, ok := steps[1].(*commands.WaitAddonCommand)
	require.True(t, ok)
	assert.Equal(t, "RecipeNote", waitAddon.Addon())
	assert.Equal(t, 3*time.Second, waitAddon.MaxWait())

	loop, ok := steps[4].(*commands.LoopCommand)
	require.True(t, ok)
	assert.Equal(t, 4, loop.Count())
	assert.True(t, loop.Echo())
}

func TestFrame_CursorMovement(t *testing.T) {
	def := macrotypes.MacroDefinition{Name: "m", Contents: "/echo a\n/echo b"}
	frame, err := NewFrame(def, catalogParser(), CraftLoopOptions{})
	require.NoError(t, err)

	require.NotNil(t, frame.CurrentStep())
	assert.Equal(t, "/echo a", frame.CurrentStep().Text())

	frame.Advance()
	assert.Equal(t, "/echo b", frame.CurrentStep().Text())

	frame.Advance()
	assert.Nil(t, frame.CurrentStep(), "cursor past the end has no step")

	frame.Reset()
	assert.Equal(t, -1, frame.StepIndex())
	assert.Nil(t, frame.CurrentStep(), "reset cursor has no step until advanced")

	frame.Advance()
	assert.Equal(t, "/echo a", frame.CurrentStep().Text())
}

func TestFrame_ConsumeLoop(t *testing.T) {
	frame := &Frame{loops: make(map[int]int)}

	remaining, ok := frame.consumeLoop(3, 2)
	assert.True(t, ok)
	assert.Equal(t, 1, remaining)

	remaining, ok = frame.consumeLoop(3, 2)
	assert.True(t, ok)
	assert.Equal(t, 0, remaining)

	_, ok = frame.consumeLoop(3, 2)
	assert.False(t, ok, "budget exhausted")

	remaining, ok = frame.consumeLoop(3, 2)
	assert.True(t, ok, "budget is refilled after exhaustion")
	assert.Equal(t, 1, remaining)

	_, ok = frame.consumeLoop(7, 0)
	assert.False(t, ok)
}
