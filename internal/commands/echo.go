package commands

import (
	"context"
	"regexp"

	"peon/pkg/macrotypes"
)

var echoRe = regexp.MustCompile(`(?i)^/echo(?:\s+(.*?))?\s*$`)

// EchoCommand implements /echo <text>.
type EchoCommand struct {
	baseCommand
	message string
}

// ParseEcho parses an /echo line.
func ParseEcho(line string) (macrotypes.Command, error) {
	base, m, err := matchLine(echoRe, line)
	if err != nil {
		return nil, err
	}
	return &EchoCommand{baseCommand: base, message: m[1]}, nil
}

// Execute reports the message.
func (c *EchoCommand) Execute(_ context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	rt.Reporter().Report(macrotypes.Message{Text: c.message, Severity: macrotypes.SeverityInfo})
	return macrotypes.OK(), nil
}
