package commands

import (
	"context"
	"regexp"

	"peon/internal/grammar"
	"peon/pkg/macrotypes"
)

var actionRe = regexp.MustCompile(`(?i)^/(?:ac|action)\s+(.+?)\s*$`)

// ActionCommand implements /ac "Action Name" (alias /action).
type ActionCommand struct {
	baseCommand
	name string
}

// ParseAction parses an /ac or /action line.
func ParseAction(line string) (macrotypes.Command, error) {
	base, m, err := matchLine(actionRe, line)
	if err != nil {
		return nil, err
	}
	return &ActionCommand{baseCommand: base, name: grammar.Unquote(m[1])}, nil
}

// Execute uses the action.
func (c *ActionCommand) Execute(ctx context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	err := rt.Environment().PerformAction(ctx, "action", c.name)
	return actionOutcome(err, "Unable to use %s", c.name)
}
