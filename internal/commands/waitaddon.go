package commands

import (
	"context"
	"regexp"
	"time"

	"peon/internal/grammar"
	"peon/pkg/macrotypes"
)

var waitAddonRe = regexp.MustCompile(`(?i)^/waitaddon\s+(.+?)\s*$`)

// WaitAddonCommand implements /waitaddon "Name" [<maxwait.N>]. It polls the
// environment until the named UI surface is visible.
type WaitAddonCommand struct {
	baseCommand
	addon        string
	maxWait      time.Duration
	pollInterval time.Duration
}

// ParseWaitAddon parses a /waitaddon line with the catalog defaults.
func ParseWaitAddon(line string) (macrotypes.Command, error) {
	return waitAddonParser(DefaultOptions())(line)
}

func waitAddonParser(opts Options) grammar.ParseFunc {
	return func(line string) (macrotypes.Command, error) {
		if err := grammar.CheckModifiers(line); err != nil {
			return nil, err
		}
		rest, maxWait, ok := grammar.ExtractMaxWait(line)
		if !ok {
			maxWait = opts.DefaultMaxWait
		}
		base, m, err := matchLine(waitAddonRe, rest)
		if err != nil {
			return nil, &macrotypes.SyntaxError{Text: line}
		}
		base.text = line

		return &WaitAddonCommand{
			baseCommand:  base,
			addon:        grammar.Unquote(m[1]),
			maxWait:      maxWait,
			pollInterval: opts.PollInterval,
		}, nil
	}
}

// Addon returns the awaited surface name.
func (c *WaitAddonCommand) Addon() string {
	return c.addon
}

// MaxWait returns the polling bound.
func (c *WaitAddonCommand) MaxWait() time.Duration {
	return c.maxWait
}

// Execute polls until the addon is present or the bound elapses.
func (c *WaitAddonCommand) Execute(ctx context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	deadline := time.Now().Add(c.maxWait)
	selector := "addon:" + c.addon

	for {
		_, present, err := rt.Environment().QueryState(ctx, selector)
		if err != nil {
			return actionOutcome(err, "Could not query addon %s", c.addon)
		}
		if present {
			return macrotypes.OK(), nil
		}
		if !time.Now().Before(deadline) {
			return macrotypes.StepFailure("Could not find Addon %q", c.addon), nil
		}
		if err := sleep(ctx, c.pollInterval); err != nil {
			return macrotypes.Outcome{}, err
		}
	}
}
