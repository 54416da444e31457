package macrotypes

import (
	"context"
	"errors"
)

// Errors shared across packages.
var (
	// ErrEnvironmentUnavailable is returned by environments while the session is down.
	ErrEnvironmentUnavailable = errors.New("environment unavailable")
	// ErrMacroNotFound is returned when a macro name cannot be resolved.
	ErrMacroNotFound = errors.New("macro not found")
)

// Environment is the query/act capability against the live external system.
type Environment interface {
	// Available reports whether the session is currently usable.
	Available() bool
	// QueryState reads a piece of live state. present is false when the selector
	// does not resolve to anything.
	QueryState(ctx context.Context, selector string) (value string, present bool, err error)
	// PerformAction triggers an effect such as a click or a key press.
	PerformAction(ctx context.Context, kind, target string) error
}

// SessionListener receives environment availability transitions.
type SessionListener interface {
	OnBecameAvailable()
	OnBecameUnavailable()
}

// Severity classifies user-facing messages.
type Severity int

const (
	// SeverityInfo is a plain notification
	SeverityInfo Severity = iota
	// SeverityWarning is a pause or other attention-worthy notice
	SeverityWarning
	// SeverityError is a failure
	SeverityError
)

// String returns the lowercase severity name.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Color is a display hint understood by lipgloss (ANSI 256 code or hex).
type Color string

// Display colors used by commands and the engine.
const (
	ColorDefault Color = ""
	ColorRed     Color = "196"
	ColorOrange  Color = "214"
	ColorYellow  Color = "226"
	ColorGreen   Color = "46"
	ColorBlue    Color = "39"
)

// Message is a user-visible notification.
type Message struct {
	Text     string
	Severity Severity
	Hint     Color
}

// Reporter is the user-visible notification channel.
type Reporter interface {
	Report(msg Message)
	// ClearQueued drops messages that have not been delivered yet.
	ClearQueued()
}

// MacroSource resolves macro definitions by name.
type MacroSource interface {
	Get(name string) (MacroDefinition, bool)
}

// Runtime is what a command sees of the engine while it executes.
type Runtime interface {
	Environment() Environment
	Reporter() Reporter
	// LoopBoundaryCheckForPause pauses immediately if a pause was requested for
	// the next loop boundary. It reports whether it paused.
	LoopBoundaryCheckForPause() bool
	// LoopBoundaryCheckForStop stops immediately if a stop was requested for
	// the next loop boundary. It reports whether it stopped.
	LoopBoundaryCheckForStop() bool
	// RequestLoop resets the top frame so that its first step runs next.
	RequestLoop()
	// ConsumeLoop takes one repetition from the executing step's loop budget,
	// initialised to count on first use. ok is false once the budget is spent,
	// at which point the budget is reset for the next pass.
	ConsumeLoop(count int) (remaining int, ok bool)
	// RunMacro pushes the named macro on top of the stack.
	RunMacro(name string) error
}
