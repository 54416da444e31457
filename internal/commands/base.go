// Package commands provides the macro command catalog. Each command owns a
// parse function for its own grammar and an Execute implementation against
// the engine runtime.
package commands

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"peon/internal/grammar"
	"peon/pkg/macrotypes"
)

// baseCommand carries the fields every command shares.
type baseCommand struct {
	text string
	wait macrotypes.WaitModifier
}

// Text returns the original line.
func (c baseCommand) Text() string {
	return c.text
}

// Wait returns the attached wait modifier.
func (c baseCommand) Wait() macrotypes.WaitModifier {
	return c.wait
}

// String returns the original line.
func (c baseCommand) String() string {
	return c.text
}

// matchLine strips the wait modifier from line and matches the remainder
// against re. It returns a syntax error naming the line on mismatch.
func matchLine(re *regexp.Regexp, line string) (baseCommand, []string, error) {
	if err := grammar.CheckModifiers(line); err != nil {
		return baseCommand{}, nil, err
	}
	rest, wait, _ := grammar.ExtractWait(line)
	m := re.FindStringSubmatch(rest)
	if m == nil {
		return baseCommand{}, nil, &macrotypes.SyntaxError{Text: line}
	}
	return baseCommand{text: line, wait: wait}, m, nil
}

// actionOutcome maps an environment action error onto a step outcome. Session
// loss and cancellation stay errors; anything else is a recoverable failure.
func actionOutcome(err error, format string, args ...any) (macrotypes.Outcome, error) {
	if err == nil {
		return macrotypes.OK(), nil
	}
	if errors.Is(err, macrotypes.ErrEnvironmentUnavailable) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return macrotypes.Outcome{}, err
	}
	return macrotypes.StepFailure("%s: %v", fmt.Sprintf(format, args...), err), nil
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
