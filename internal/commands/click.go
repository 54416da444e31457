package commands

import (
	"context"
	"regexp"

	"peon/internal/grammar"
	"peon/pkg/macrotypes"
)

var clickRe = regexp.MustCompile(`(?i)^/click\s+(.+?)\s*$`)

// ClickCommand implements /click <name>.
type ClickCommand struct {
	baseCommand
	name string
}

// ParseClick parses a /click line.
func ParseClick(line string) (macrotypes.Command, error) {
	base, m, err := matchLine(clickRe, line)
	if err != nil {
		return nil, err
	}
	return &ClickCommand{baseCommand: base, name: grammar.Unquote(m[1])}, nil
}

// Execute performs the click.
func (c *ClickCommand) Execute(ctx context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	err := rt.Environment().PerformAction(ctx, "click", c.name)
	return actionOutcome(err, "Unable to click %s", c.name)
}
