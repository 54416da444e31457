// Package testutils provides scripted commands, parsers, reporters and
// environments for exercising the engine deterministically in tests.
package testutils

import (
	"context"
	"strings"
	"sync"

	"peon/pkg/macrotypes"
)

// StepFunc scripts one execution of a command. call is 1 on the first execution.
type StepFunc func(ctx context.Context, rt macrotypes.Runtime, call int) (macrotypes.Outcome, error)

// ScriptedCommand is a command whose behaviour is supplied by the test.
type ScriptedCommand struct {
	text string
	wait macrotypes.WaitModifier
	fn   StepFunc

	mu    sync.Mutex
	calls int
}

// NewScriptedCommand creates a command; a nil fn always succeeds.
func NewScriptedCommand(text string, fn StepFunc) *ScriptedCommand {
	return &ScriptedCommand{text: text, fn: fn}
}

// WithWait attaches a wait modifier.
func (c *ScriptedCommand) WithWait(w macrotypes.WaitModifier) *ScriptedCommand {
	c.wait = w
	return c
}

// Text returns the command text.
func (c *ScriptedCommand) Text() string { return c.text }

// Wait returns the wait modifier.
func (c *ScriptedCommand) Wait() macrotypes.WaitModifier { return c.wait }

// Calls returns how many times the command has executed.
func (c *ScriptedCommand) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// Execute runs the scripted behaviour.
func (c *ScriptedCommand) Execute(ctx context.Context, rt macrotypes.Runtime) (macrotypes.Outcome, error) {
	c.mu.Lock()
	c.calls++
	call := c.calls
	c.mu.Unlock()

	if c.fn == nil {
		return macrotypes.OK(), nil
	}
	return c.fn(ctx, rt, call)
}

// Blocker lets a test hold a step mid-execution.
type Blocker struct {
	started chan struct{}
	release chan macrotypes.Outcome
	once    sync.Once
}

// NewBlocker creates a blocker.
func NewBlocker() *Blocker {
	return &Blocker{
		started: make(chan struct{}),
		release: make(chan macrotypes.Outcome, 1),
	}
}

// Started is closed when the step first begins executing.
func (b *Blocker) Started() <-chan struct{} {
	return b.started
}

// Release lets the step finish with the given outcome.
func (b *Blocker) Release(outcome macrotypes.Outcome) {
	b.release <- outcome
}

// Step is a StepFunc that blocks until released or cancelled.
func (b *Blocker) Step(ctx context.Context, _ macrotypes.Runtime, _ int) (macrotypes.Outcome, error) {
	b.once.Do(func() { close(b.started) })
	select {
	case outcome := <-b.release:
		return outcome, nil
	case <-ctx.Done():
		return macrotypes.Outcome{}, ctx.Err()
	}
}

// StubParser resolves each line to a pre-registered command.
type StubParser struct {
	mu       sync.Mutex
	commands map[string]macrotypes.Command
}

// NewStubParser creates a parser over the given commands, keyed by Text().
func NewStubParser(cmds ...macrotypes.Command) *StubParser {
	p := &StubParser{commands: make(map[string]macrotypes.Command)}
	for _, c := range cmds {
		p.commands[c.Text()] = c
	}
	return p
}

// Add registers more commands.
func (p *StubParser) Add(cmds ...macrotypes.Command) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range cmds {
		p.commands[c.Text()] = c
	}
}

// Parse maps every non-blank line to its registered command.
func (p *StubParser) Parse(text string) ([]macrotypes.Command, error) {
	var out []macrotypes.Command
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		cmd, err := p.ParseLine(line)
		if err != nil {
			err.(*macrotypes.SyntaxError).Line = i + 1
			return nil, err
		}
		out = append(out, cmd)
	}
	return out, nil
}

// ParseLine maps one line to its registered command.
func (p *StubParser) ParseLine(line string) (macrotypes.Command, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cmd, ok := p.commands[strings.TrimSpace(line)]
	if !ok {
		return nil, &macrotypes.SyntaxError{Text: line}
	}
	return cmd, nil
}

// Script joins commands' texts into a macro body.
func Script(cmds ...macrotypes.Command) string {
	lines := make([]string, len(cmds))
	for i, c := range cmds {
		lines[i] = c.Text()
	}
	return strings.Join(lines, "\n")
}
