package commands

import (
	"context"
	"regexp"

	"peon/internal/grammar"
	"peon/pkg/macrotypes"
)

var waitRe = regexp.MustCompile(`(?i)^/wait\s+(\d+(?:\.\d+)?)(?:\s*,\s*(\d+(?:\.\d+)?))?\s*$`)

// WaitCommand implements /wait N[,M], a pure delay in seconds.
type WaitCommand struct {
	baseCommand
	delay macrotypes.WaitModifier
}

// ParseWait parses a /wait line.
func ParseWait(line string) (macrotypes.Command, error) {
	base, m, err := matchLine(waitRe, line)
	if err != nil {
		return nil, err
	}

	minWait, err := grammar.ParseSeconds(m[1])
	if err != nil {
		return nil, &macrotypes.SyntaxError{Text: line, Reason: err.Error()}
	}
	maxWait := minWait
	if m[2] != "" {
		if maxWait, err = grammar.ParseSeconds(m[2]); err != nil {
			return nil, &macrotypes.SyntaxError{Text: line, Reason: err.Error()}
		}
	}
	if maxWait < minWait {
		minWait, maxWait = maxWait, minWait
	}

	return &WaitCommand{baseCommand: base, delay: macrotypes.WaitModifier{Min: minWait, Max: maxWait}}, nil
}

// Execute sleeps for the configured delay.
func (c *WaitCommand) Execute(ctx context.Context, _ macrotypes.Runtime) (macrotypes.Outcome, error) {
	if err := c.delay.Sleep(ctx); err != nil {
		return macrotypes.Outcome{}, err
	}
	return macrotypes.OK(), nil
}

