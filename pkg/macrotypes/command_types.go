// Package macrotypes defines the core types shared by the macro parser, the command
// catalog and the execution engine. This file contains the command contract, the
// tagged step outcome and the wait modifier.
package macrotypes

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// Command is a single parsed macro step.
type Command interface {
	// Text returns the original line the command was parsed from.
	Text() string
	// Wait returns the post-execution delay attached to the line, if any.
	Wait() WaitModifier
	// Execute performs the step. A non-nil error is an unexpected failure;
	// expected failures and soft pauses are reported through the Outcome.
	Execute(ctx context.Context, rt Runtime) (Outcome, error)
}

// OutcomeKind tags the result of a step execution.
type OutcomeKind int

const (
	// OutcomeOK - the step completed and the cursor may advance
	OutcomeOK OutcomeKind = iota
	// OutcomeStepFailure - an expected failure; the engine reports it and pauses in place
	OutcomeStepFailure
	// OutcomePauseRequested - the step asked for a deliberate pause with a user-facing reason
	OutcomePauseRequested
)

// String returns a human-readable representation of the outcome kind.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeOK:
		return "OK"
	case OutcomeStepFailure:
		return "StepFailure"
	case OutcomePauseRequested:
		return "PauseRequested"
	default:
		return "Unknown"
	}
}

// Outcome is the tagged result returned by Command.Execute.
type Outcome struct {
	Kind   OutcomeKind
	Reason string // failure or pause reason shown to the user
	Hint   Color  // display color for pause requests
}

// OK returns a successful outcome.
func OK() Outcome {
	return Outcome{Kind: OutcomeOK}
}

// StepFailure returns a recoverable failure outcome.
func StepFailure(format string, args ...any) Outcome {
	return Outcome{Kind: OutcomeStepFailure, Reason: fmt.Sprintf(format, args...), Hint: ColorRed}
}

// PauseRequested returns a soft pause outcome.
func PauseRequested(reason string, hint Color) Outcome {
	return Outcome{Kind: OutcomePauseRequested, Reason: reason, Hint: hint}
}

// WaitModifier is the optional delay performed after a step succeeds.
// The zero value means no delay. When Max is greater than Min the delay is
// drawn uniformly from [Min, Max].
type WaitModifier struct {
	Min time.Duration
	Max time.Duration
}

// FixedWait returns a modifier with a constant delay.
func FixedWait(d time.Duration) WaitModifier {
	return WaitModifier{Min: d, Max: d}
}

// IsZero reports whether the modifier carries no delay.
func (w WaitModifier) IsZero() bool {
	return w.Min <= 0 && w.Max <= 0
}

// Duration returns the delay to apply for one execution.
func (w WaitModifier) Duration() time.Duration {
	if w.Max <= w.Min {
		return w.Min
	}
	return w.Min + time.Duration(rand.Int64N(int64(w.Max-w.Min)+1))
}

// Sleep blocks for one drawn duration or until ctx is done.
func (w WaitModifier) Sleep(ctx context.Context) error {
	d := w.Duration()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// String renders the modifier in macro syntax.
func (w WaitModifier) String() string {
	if w.IsZero() {
		return ""
	}
	if w.Max <= w.Min {
		return fmt.Sprintf("<wait.%g>", w.Min.Seconds())
	}
	return fmt.Sprintf("<wait.%g,%g>", w.Min.Seconds(), w.Max.Seconds())
}
