// Package console is the interactive control surface for a running engine.
// Handlers are plain methods so they can be driven from tests; Register wires
// them onto an ishell shell.
package console

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/charmbracelet/glamour"

	"peon/internal/grammar"
	"peon/internal/logger"
	"peon/pkg/macrotypes"
)

// Console errors.
var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing argument")
)

// Engine is the control API the console drives.
type Engine interface {
	Enqueue(def macrotypes.MacroDefinition) error
	Pause(atLoop bool)
	Resume()
	Stop(atLoop bool)
	RequestLoop()
	RequestNextStep()
	State() macrotypes.LoopState
	PauseAtLoop() bool
	StopAtLoop() bool
	MacroStatus() []macrotypes.MacroStatus
	CurrentMacroContent() []string
	CurrentMacroStep() int
}

// Library lists and resolves named macros.
type Library interface {
	macrotypes.MacroSource
	Names() []string
}

// Session controls the environment session.
type Session interface {
	Login()
	Logout()
	Available() bool
}

type handler struct {
	help string
	fn   func(args []string) error
}

// Console dispatches control commands.
type Console struct {
	engine   Engine
	library  Library
	session  Session
	out      io.Writer
	handlers map[string]handler
}

// New creates a console writing its output to out. session may be nil when
// the environment is not under local control.
func New(engine Engine, library Library, session Session, out io.Writer) *Console {
	c := &Console{engine: engine, library: library, session: session, out: out}
	c.handlers = map[string]handler{
		"run":    {"run <name>: queue a macro from the library", c.run},
		"pause":  {"pause [loop]: pause now, or toggle pausing at the next /loop", c.pause},
		"resume": {"resume: continue from the current step", c.resume},
		"stop":   {"stop [loop]: discard every macro, or toggle stopping at the next /loop", c.stop},
		"loop":   {"loop: restart the current macro from its first step", c.loop},
		"next":   {"next: skip the current step", c.next},
		"status": {"status: show the engine state and macro stack", c.status},
		"steps":  {"steps: list the current macro's steps", c.steps},
		"login":  {"login: start a client session", c.login},
		"logout": {"logout: end the client session", c.logout},
		"macros": {"macros: list library macros", c.macros},
		"help":   {"help: show this help", c.help},
	}
	return c
}

// Names returns the command names, sorted.
func (c *Console) Names() []string {
	names := make([]string, 0, len(c.handlers))
	for name := range c.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Execute runs one command line such as "pause loop".
func (c *Console) Execute(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return c.Dispatch(fields[0], fields[1:])
}

// Dispatch runs a named command.
func (c *Console) Dispatch(name string, args []string) error {
	h, ok := c.handlers[strings.ToLower(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	return h.fn(args)
}

// Register adds every command to sh.
func (c *Console) Register(sh *ishell.Shell) {
	for _, name := range c.Names() {
		sh.AddCmd(&ishell.Cmd{
			Name: name,
			Help: c.handlers[name].help,
			Func: func(ctx *ishell.Context) {
				if err := c.Dispatch(name, ctx.Args); err != nil {
					ctx.Err(err)
				}
			},
		})
	}
}

func (c *Console) printf(format string, args ...any) {
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: run <name>", ErrMissingArgument)
	}
	name := grammar.Unquote(strings.Join(args, " "))

	def, ok := c.library.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", macrotypes.ErrMacroNotFound, name)
	}
	if err := c.engine.Enqueue(def); err != nil {
		return err
	}
	c.printf("Queued %s\n", name)
	return nil
}

func atLoop(args []string) bool {
	return len(args) > 0 && strings.EqualFold(args[0], "loop")
}

func (c *Console) pause(args []string) error {
	if !atLoop(args) {
		c.engine.Pause(false)
		c.printf("Paused\n")
		return nil
	}
	c.engine.Pause(true)
	if c.engine.PauseAtLoop() {
		c.printf("Pausing at next loop\n")
	} else {
		c.printf("Pause at loop cancelled\n")
	}
	return nil
}

func (c *Console) resume([]string) error {
	c.engine.Resume()
	c.printf("Resumed\n")
	return nil
}

func (c *Console) stop(args []string) error {
	if !atLoop(args) {
		c.engine.Stop(false)
		c.printf("Stopped\n")
		return nil
	}
	c.engine.Stop(true)
	if c.engine.StopAtLoop() {
		c.printf("Stopping at next loop\n")
	} else {
		c.printf("Stop at loop cancelled\n")
	}
	return nil
}

func (c *Console) loop([]string) error {
	c.engine.RequestLoop()
	c.printf("Restarting current macro\n")
	return nil
}

func (c *Console) next([]string) error {
	c.engine.RequestNextStep()
	c.printf("Skipped to step %d\n", c.engine.CurrentMacroStep()+1)
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (c *Console) status([]string) error {
	c.printf("State: %s\n", c.engine.State())
	c.printf("Pause at loop: %s\n", yesNo(c.engine.PauseAtLoop()))
	c.printf("Stop at loop: %s\n", yesNo(c.engine.StopAtLoop()))

	stack := c.engine.MacroStatus()
	if len(stack) == 0 {
		c.printf("No macros running\n")
		return nil
	}
	c.printf("Macros:\n")
	for i, s := range stack {
		c.printf("  %d. %s (step %d)\n", i+1, s.Name, s.Step)
	}
	return nil
}

func (c *Console) steps([]string) error {
	content := c.engine.CurrentMacroContent()
	if len(content) == 0 {
		c.printf("No macro running\n")
		return nil
	}
	current := c.engine.CurrentMacroStep()
	for i, text := range content {
		marker := " "
		if i == current {
			marker = ">"
		}
		c.printf("%s %2d  %s\n", marker, i+1, text)
	}
	return nil
}

func (c *Console) login([]string) error {
	if c.session == nil {
		return errors.New("no local session to control")
	}
	c.session.Login()
	c.printf("Logged in\n")
	return nil
}

func (c *Console) logout([]string) error {
	if c.session == nil {
		return errors.New("no local session to control")
	}
	c.session.Logout()
	c.printf("Logged out\n")
	return nil
}

func (c *Console) macros([]string) error {
	names := c.library.Names()
	if len(names) == 0 {
		c.printf("No macros loaded\n")
		return nil
	}
	for _, name := range names {
		c.printf("%s\n", name)
	}
	return nil
}

func (c *Console) help([]string) error {
	var b strings.Builder
	b.WriteString("# peon\n\n")
	for _, name := range c.Names() {
		usage, desc, _ := strings.Cut(c.handlers[name].help, ": ")
		fmt.Fprintf(&b, "- `%s` %s\n", usage, desc)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		logger.Debug("Falling back to plain help", "error", err)
		c.printf("%s", b.String())
		return nil
	}
	rendered, err := renderer.Render(b.String())
	if err != nil {
		logger.Debug("Falling back to plain help", "error", err)
		rendered = b.String()
	}
	c.printf("%s", rendered)
	return nil
}
