package commands

import (
	"time"

	"peon/internal/grammar"
)

// Options tunes commands that poll the environment.
type Options struct {
	// DefaultMaxWait bounds /waitaddon when the line has no <maxwait.N>.
	DefaultMaxWait time.Duration
	// PollInterval is how often waiting commands re-query the environment.
	PollInterval time.Duration
}

// DefaultOptions returns the catalog defaults.
func DefaultOptions() Options {
	return Options{
		DefaultMaxWait: 5 * time.Second,
		PollInterval:   100 * time.Millisecond,
	}
}

// Recognizers returns the catalog in precedence order.
func Recognizers(opts Options) []grammar.Recognizer {
	if opts.DefaultMaxWait <= 0 {
		opts.DefaultMaxWait = DefaultOptions().DefaultMaxWait
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}

	return []grammar.Recognizer{
		{Keywords: []string{"loop"}, Parse: ParseLoop},
		{Keywords: []string{"wait"}, Parse: ParseWait},
		{Keywords: []string{"echo"}, Parse: ParseEcho},
		{Keywords: []string{"waitaddon"}, Parse: waitAddonParser(opts)},
		{Keywords: []string{"click"}, Parse: ParseClick},
		{Keywords: []string{"ac", "action"}, Parse: ParseAction},
		{Keywords: []string{"send"}, Parse: ParseSend},
		{Keywords: []string{"requirequality"}, Parse: ParseRequireQuality},
		{Keywords: []string{"runmacro"}, Parse: ParseRunMacro},
	}
}

// NewParser returns a parser over the full catalog.
func NewParser(opts Options) *grammar.Parser {
	return grammar.NewParser(Recognizers(opts)...)
}
