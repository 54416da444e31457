package commands

import (
	"context"
	"regexp"
	"strings"

	"peon/pkg/macrotypes"
)

var sendRe = regexp.MustCompile(`(?i)^/send\s+([A-Za-z0-9_+]+)\s*$`)

// SendCommand implements /send <KEY>, a simulated key press.
type SendCommand struct {
	baseCommand
	key string
}

// ParseSend parses a /send line.
func ParseSend(line string) (macrotypes.Command, error) {
	base, m, err := matchLine(sendRe, line)
	if err != nil {
		return nil, err
	}
	return &SendCommand{baseCommand: base, key: strings.ToUpper(m[1])}, nil
}

// Execute sends the key.
func (c *SendCommand) Execute(ctx context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	err := rt.Environment().PerformAction(ctx, "send", c.key)
	return actionOutcome(err, "Unable to send %s", c.key)
}
