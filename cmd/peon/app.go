package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/abiosoft/ishell/v2"
	"github.com/spf13/cobra"

	"peon/internal/chat"
	"peon/internal/commands"
	"peon/internal/config"
	"peon/internal/console"
	"peon/internal/engine"
	"peon/internal/gameclient"
	"peon/internal/logger"
	"peon/internal/macros"
	"peon/internal/version"
	"peon/pkg/macrotypes"
)

var (
	// errMacroPaused is returned by run when the macro stops on a failure.
	errMacroPaused = errors.New("macro paused")
	// errMacroAborted is returned by run when the engine discarded the macro.
	errMacroAborted = errors.New("macro aborted")
)

// failureWatch forwards reports and remembers the last error-severity message.
type failureWatch struct {
	macrotypes.Reporter

	mu   sync.Mutex
	last string
}

func (w *failureWatch) Report(msg macrotypes.Message) {
	if msg.Severity == macrotypes.SeverityError {
		w.mu.Lock()
		w.last = msg.Text
		w.mu.Unlock()
	}
	w.Reporter.Report(msg)
}

// take returns and forgets the last error message.
func (w *failureWatch) take() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	last := w.last
	w.last = ""
	return last
}

// app is one wired engine with its client, library and chat output.
type app struct {
	cfg      config.Config
	client   *gameclient.Client
	library  *macros.Library
	reporter *chat.Reporter
	failures *failureWatch
	engine   *engine.Engine
}

func newApp(cfg config.Config) (*app, error) {
	scenario := gameclient.DefaultScenario()
	if cfg.ScenarioPath != "" {
		s, err := gameclient.LoadScenario(cfg.ScenarioPath)
		if err != nil {
			return nil, err
		}
		scenario = s
	}

	library := macros.NewLibrary()
	if cfg.MacrosPath != "" {
		lib, err := macros.LoadFile(cfg.MacrosPath)
		if err != nil {
			return nil, err
		}
		library = lib
	}

	var reporterOpts []chat.Option
	if cfg.TestMode {
		reporterOpts = append(reporterOpts, chat.PlainText())
	}

	a := &app{
		cfg:      cfg,
		client:   gameclient.New(scenario),
		library:  library,
		reporter: chat.NewReporter(reporterOpts...),
	}
	a.failures = &failureWatch{Reporter: a.reporter}
	a.engine = engine.New(engineConfig(cfg), newParser(cfg), a.client, a.failures)
	a.engine.SetMacroSource(a.library)
	a.client.Subscribe(a.engine)
	return a, nil
}

func newParser(cfg config.Config) engine.Parser {
	return commands.NewParser(commands.Options{
		DefaultMaxWait: commands.DefaultOptions().DefaultMaxWait,
		PollInterval:   cfg.AddonPollInterval,
	})
}

func engineConfig(cfg config.Config) engine.Config {
	c := engine.DefaultConfig()
	c.CraftLoop = engine.CraftLoopOptions{
		FromRecipeNote: cfg.CraftLoopFromRecipeNote,
		MaxWait:        cfg.CraftLoopMaxWait,
		Echo:           cfg.CraftLoopEcho,
	}
	return c
}

// start launches the engine and the chat flusher.
func (a *app) start(ctx context.Context, out io.Writer) error {
	if err := a.engine.Start(ctx); err != nil {
		return err
	}
	go func() {
		if err := a.reporter.Run(ctx, out, a.cfg.FlushInterval); err != nil {
			logger.Error("Chat output failed", "error", err)
		}
	}()
	return nil
}

// runUntilSettled enqueues def and waits until the stack drains, the engine
// pauses, or the macro is lost to a fatal failure or a closed session.
func (a *app) runUntilSettled(ctx context.Context, def macrotypes.MacroDefinition, poll time.Duration) error {
	a.failures.take()
	if err := a.engine.Enqueue(def); err != nil {
		return err
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		switch a.engine.State() {
		case macrotypes.StatePaused:
			return fmt.Errorf("%w: %s", errMacroPaused, def.Name)
		case macrotypes.StateIdle:
			if len(a.engine.MacroStatus()) > 0 {
				continue
			}
			if msg := a.failures.take(); msg != "" {
				return fmt.Errorf("%w: %s", errMacroAborted, msg)
			}
			return nil
		case macrotypes.StateNotReady:
			return fmt.Errorf("%w: %s", macrotypes.ErrEnvironmentUnavailable, def.Name)
		case macrotypes.StateStopped:
			return engine.ErrEngineStopped
		}
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runShell(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger.Info("Starting peon", "version", version.Version)

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := a.start(ctx, os.Stdout); err != nil {
		return err
	}
	defer a.engine.Shutdown()

	if a.library.Path() != "" {
		go func() {
			if err := a.library.Watch(ctx, nil); err != nil {
				logger.Warn("Macro hot reload disabled", "error", err)
			}
		}()
	}

	sh := ishell.New()
	sh.SetPrompt("peon> ")
	sh.DeleteCmd("help")
	console.New(a.engine, a.library, a.client, os.Stdout).Register(sh)

	sh.Println(version.GetFormattedVersion())
	sh.Println("Type 'help' for commands or 'exit' to quit.")
	sh.Run()
	return nil
}

func runMacro(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	def, ok := a.library.Get(args[0])
	if !ok {
		return fmt.Errorf("%w: %s", macrotypes.ErrMacroNotFound, args[0])
	}

	ctx, cancel := signalContext()
	defer cancel()
	if err := a.start(ctx, cmd.OutOrStdout()); err != nil {
		return err
	}

	runErr := a.runUntilSettled(ctx, def, 50*time.Millisecond)
	a.engine.Shutdown()
	if err := a.reporter.Flush(cmd.OutOrStdout()); err != nil {
		logger.Warn("Could not flush chat", "error", err)
	}
	return runErr
}

func runCheck(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cfg.MacrosPath == "" {
		return errors.New("no macro library given, use --macros")
	}

	library, err := macros.LoadFile(cfg.MacrosPath)
	if err != nil {
		return err
	}

	errs := library.Check(newParser(cfg))
	for _, e := range errs {
		fmt.Fprintln(cmd.ErrOrStderr(), e)
	}
	if len(errs) > 0 {
		return fmt.Errorf("%d of %d macros failed to parse", len(errs), len(library.Names()))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d macros OK\n", len(library.Names()))
	return nil
}
