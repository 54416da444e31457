package grammar

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peon/pkg/macrotypes"
)

// fakeCommand records the line it was parsed from.
type fakeCommand struct {
	keyword string
	text    string
	wait    macrotypes.WaitModifier
}

func (c *fakeCommand) Text() string                  { return c.text }
func (c *fakeCommand) Wait() macrotypes.WaitModifier { return c.wait }
func (c *fakeCommand) Execute(context.Context, macrotypes.Runtime) (macrotypes.Outcome, error) {
	return macrotypes.OK(), nil
}

func recognizer(keyword string, aliases ...string) Recognizer {
	return Recognizer{
		Keywords: append([]string{keyword}, aliases...),
		Parse: func(line string) (macrotypes.Command, error) {
			rest, wait, _ := ExtractWait(line)
			if strings.Contains(rest, "!") {
				return nil, &macrotypes.SyntaxError{Text: line, Reason: "bang not allowed"}
			}
			return &fakeCommand{keyword: keyword, text: line, wait: wait}, nil
		},
	}
}

func setupParser() *Parser {
	return NewParser(
		recognizer("loop"),
		recognizer("ac", "action"),
		recognizer("wait"),
	)
}

func TestParser_Parse(t *testing.T) {
	p := setupParser()

	body := strings.Join([]string{
		"# opener",
		`/ac "Muscle Memory" <wait.3>`,
		"",
		"   // spacer",
		`/action Veneration`,
		"\t/wait 2  ",
		"/loop",
	}, "\r\n")

	steps, err := p.Parse(body)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	assert.Equal(t, `/ac "Muscle Memory" <wait.3>`, steps[0].Text())
	assert.Equal(t, "ac", steps[0].(*fakeCommand).keyword)
	assert.Equal(t, "ac", steps[1].(*fakeCommand).keyword, "aliases resolve to the same recognizer")
	assert.Equal(t, "/wait 2", steps[2].Text())
	assert.Equal(t, "loop", steps[3].(*fakeCommand).keyword)
	assert.False(t, steps[0].Wait().IsZero())
}

func TestParser_EmptyBody(t *testing.T) {
	steps, err := setupParser().Parse("\n# nothing here\n\n")
	require.NoError(t, err)
	assert.Empty(t, steps)
}

func TestParser_UnknownCommandFailsWholeParse(t *testing.T) {
	steps, err := setupParser().Parse("/ac Innovation\n/ac Veneration\n/dance\n/loop")
	require.Error(t, err)
	assert.Nil(t, steps)

	var syntaxErr *macrotypes.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 3, syntaxErr.Line)
	assert.Equal(t, "/dance", syntaxErr.Text)
	assert.Equal(t, `syntax error on line 3: "/dance": unknown command /dance`, err.Error())
}

func TestParser_RecognizerErrorKeepsReason(t *testing.T) {
	_, err := setupParser().Parse("/ac Innovation\n/ac Bang!")

	var syntaxErr *macrotypes.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 2, syntaxErr.Line)
	assert.Equal(t, "bang not allowed", syntaxErr.Reason)
}

func TestParser_NonCommandLine(t *testing.T) {
	_, err := setupParser().ParseLine("just some text")

	var syntaxErr *macrotypes.SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, "just some text", syntaxErr.Text)
	assert.Zero(t, syntaxErr.Line)
}

func TestParser_WaitModifierBeforeArguments(t *testing.T) {
	cmd, err := setupParser().ParseLine("/ac<wait.2> Innovation")
	require.NoError(t, err)
	assert.Equal(t, "ac", cmd.(*fakeCommand).keyword)
}

func TestParser_PrecedenceFollowsRegistrationOrder(t *testing.T) {
	first := Recognizer{Keywords: []string{"ac"}, Parse: func(line string) (macrotypes.Command, error) {
		return &fakeCommand{keyword: "first", text: line}, nil
	}}
	second := Recognizer{Keywords: []string{"AC"}, Parse: func(line string) (macrotypes.Command, error) {
		return &fakeCommand{keyword: "second", text: line}, nil
	}}

	cmd, err := NewParser(first, second).ParseLine("/ac Innovation")
	require.NoError(t, err)
	assert.Equal(t, "first", cmd.(*fakeCommand).keyword)
}

func TestParser_Keywords(t *testing.T) {
	assert.Equal(t, []string{"loop", "ac", "action", "wait"}, setupParser().Keywords())
}
