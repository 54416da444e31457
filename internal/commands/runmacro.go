package commands

import (
	"context"
	"errors"
	"regexp"

	"peon/internal/grammar"
	"peon/pkg/macrotypes"
)

var runMacroRe = regexp.MustCompile(`(?i)^/runmacro\s+(.+?)\s*$`)

// RunMacroCommand implements /runmacro "name". The named macro is pushed on
// top of the stack and runs to completion before the caller continues.
type RunMacroCommand struct {
	baseCommand
	name string
}

// ParseRunMacro parses a /runmacro line.
func ParseRunMacro(line string) (macrotypes.Command, error) {
	base, m, err := matchLine(runMacroRe, line)
	if err != nil {
		return nil, err
	}
	return &RunMacroCommand{baseCommand: base, name: grammar.Unquote(m[1])}, nil
}

// Execute enqueues the nested macro.
func (c *RunMacroCommand) Execute(_ context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	err := rt.RunMacro(c.name)
	if err == nil {
		return macrotypes.OK(), nil
	}

	if errors.Is(err, context.Canceled) {
		return macrotypes.Outcome{}, err
	}
	return macrotypes.StepFailure("Unable to run macro %q: %v", c.name, err), nil
}
