package commands

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"peon/internal/grammar"
	"peon/pkg/macrotypes"
)

var loopRe = regexp.MustCompile(`(?i)^/loop(?:\s+(\d+))?\s*$`)

// LoopCommand implements /loop [count] [<echo>]. It sends its own frame back
// to the first step, count times when a count is given, forever otherwise.
type LoopCommand struct {
	baseCommand
	count int
	echo  bool
}

// ParseLoop parses a /loop line.
func ParseLoop(line string) (macrotypes.Command, error) {
	rest, echo := grammar.ExtractEcho(line)
	base, m, err := matchLine(loopRe, rest)
	if err != nil {
		return nil, &macrotypes.SyntaxError{Text: line}
	}
	base.text = line

	count := macrotypes.InfiniteLoops
	if m[1] != "" {
		count, err = strconv.Atoi(m[1])
		if err != nil {
			return nil, &macrotypes.SyntaxError{Text: line, Reason: "invalid loop count"}
		}
	}

	return &LoopCommand{baseCommand: base, count: count, echo: echo}, nil
}

// Count returns the repeat count, or InfiniteLoops.
func (c *LoopCommand) Count() int {
	return c.count
}

// Echo reports whether loop progress is announced.
func (c *LoopCommand) Echo() bool {
	return c.echo
}

// Execute checks the loop boundary flags and rewinds the frame.
func (c *LoopCommand) Execute(_ context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	if c.count != macrotypes.InfiniteLoops {
		remaining, ok := rt.ConsumeLoop(c.count)
		if !ok {
			c.announce(rt, "Loops completed")
			return macrotypes.OK(), nil
		}
		c.announce(rt, fmt.Sprintf("%d loops remaining", remaining))
	} else {
		c.announce(rt, "Looping")
	}

	rt.LoopBoundaryCheckForPause()
	if rt.LoopBoundaryCheckForStop() {
		return macrotypes.OK(), nil
	}

	rt.RequestLoop()
	return macrotypes.OK(), nil
}

func (c *LoopCommand) announce(rt macrotypes.Runtime, text string) {
	if !c.echo {
		return
	}
	rt.Reporter().Report(macrotypes.Message{Text: text, Severity: macrotypes.SeverityInfo})
}
