package console

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"peon/internal/commands"
	"peon/internal/engine"
	"peon/internal/gameclient"
	"peon/internal/macros"
	"peon/pkg/macrotypes"
)

type consoleFixture struct {
	console *Console
	engine  *engine.Engine
	client  *gameclient.Client
	out     *bytes.Buffer
}

func setupConsoleTestEnvironment(t *testing.T) *consoleFixture {
	t.Helper()

	client := gameclient.New(gameclient.DefaultScenario())
	eng := engine.New(engine.DefaultConfig(), commands.NewParser(commands.DefaultOptions()), client, nil)
	client.Subscribe(eng)

	lib := macros.NewLibrary(
		macrotypes.MacroDefinition{Name: "Buffs", Contents: "/ac Innovation\n/ac \"Great Strides\""},
		macrotypes.MacroDefinition{Name: "Broken", Contents: "/waitaddon \"Missing\" <maxwait.0>\n/ac Veneration"},
	)
	eng.SetMacroSource(lib)
	require.NoError(t, eng.Start(context.Background()))
	t.Cleanup(eng.Shutdown)

	out := &bytes.Buffer{}
	return &consoleFixture{
		console: New(eng, lib, client, out),
		engine:  eng,
		client:  client,
		out:     out,
	}
}

func (f *consoleFixture) exec(t *testing.T, line string) string {
	t.Helper()
	f.out.Reset()
	require.NoError(t, f.console.Execute(line))
	return f.out.String()
}

func (f *consoleFixture) waitState(t *testing.T, state macrotypes.LoopState) {
	t.Helper()
	assert.Eventually(t, func() bool { return f.engine.State() == state }, 2*time.Second, 5*time.Millisecond)
}

func TestConsole_RunMacro(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	assert.Equal(t, "Queued Buffs\n", f.exec(t, "run Buffs"))

	assert.Eventually(t, func() bool { return len(f.client.Actions()) == 2 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "action:Innovation", f.client.Actions()[0].String())
	assert.Equal(t, "action:Great Strides", f.client.Actions()[1].String())
}

func TestConsole_RunErrors(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	assert.ErrorIs(t, f.console.Execute("run"), ErrMissingArgument)
	assert.ErrorIs(t, f.console.Execute(`run "Nope"`), macrotypes.ErrMacroNotFound)
}

func TestConsole_StatusIdle(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	out := f.exec(t, "status")
	assert.Contains(t, out, "State: Idle")
	assert.Contains(t, out, "Pause at loop: no")
	assert.Contains(t, out, "No macros running")
}

func TestConsole_FailureStatusStepsAndNext(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	f.exec(t, "run Broken")
	f.waitState(t, macrotypes.StatePaused)

	out := f.exec(t, "status")
	assert.Contains(t, out, "State: Paused")
	assert.Contains(t, out, "1. Broken (step 1)")

	out = f.exec(t, "steps")
	assert.Contains(t, out, `>  1  /waitaddon "Missing" <maxwait.0>`)
	assert.Contains(t, out, "   2  /ac Veneration")

	assert.Equal(t, "Skipped to step 2\n", f.exec(t, "next"))
	f.exec(t, "resume")

	assert.Eventually(t, func() bool { return len(f.client.Actions()) == 1 }, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, "action:Veneration", f.client.Actions()[0].String())
	f.waitState(t, macrotypes.StateIdle)
}

func TestConsole_LoopBoundaryToggles(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	assert.Equal(t, "Pausing at next loop\n", f.exec(t, "pause loop"))
	assert.Equal(t, "Stopping at next loop\n", f.exec(t, "stop LOOP"))
	assert.False(t, f.engine.PauseAtLoop())
	assert.Equal(t, "Stop at loop cancelled\n", f.exec(t, "stop loop"))
	assert.Equal(t, "Pausing at next loop\n", f.exec(t, "pause loop"))
	assert.Equal(t, "Pause at loop cancelled\n", f.exec(t, "pause loop"))
}

func TestConsole_PauseResumeStop(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	assert.Equal(t, "Paused\n", f.exec(t, "pause"))
	assert.Equal(t, "Resumed\n", f.exec(t, "resume"))
	assert.Equal(t, "Stopped\n", f.exec(t, "stop"))
	assert.Equal(t, "Restarting current macro\n", f.exec(t, "loop"))
}

func TestConsole_LoginLogout(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	assert.Equal(t, "Logged out\n", f.exec(t, "logout"))
	assert.False(t, f.client.Available())
	f.waitState(t, macrotypes.StateNotReady)

	assert.Equal(t, "Logged in\n", f.exec(t, "login"))
	f.waitState(t, macrotypes.StateIdle)
}

func TestConsole_NoSession(t *testing.T) {
	c := New(nil, macros.NewLibrary(), nil, &bytes.Buffer{})
	assert.Error(t, c.Execute("login"))
	assert.Error(t, c.Execute("logout"))
}

func TestConsole_Macros(t *testing.T) {
	f := setupConsoleTestEnvironment(t)
	assert.Equal(t, "Broken\nBuffs\n", f.exec(t, "macros"))

	empty := New(nil, macros.NewLibrary(), nil, f.out)
	f.out.Reset()
	require.NoError(t, empty.Execute("macros"))
	assert.Equal(t, "No macros loaded\n", f.out.String())
}

func TestConsole_Help(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	out := f.exec(t, "help")
	for _, name := range f.console.Names() {
		assert.Contains(t, out, name)
	}
	assert.Contains(t, out, "toggle pausing at the next /loop")
}

func TestConsole_UnknownAndBlank(t *testing.T) {
	f := setupConsoleTestEnvironment(t)

	assert.ErrorIs(t, f.console.Execute("dance"), ErrUnknownCommand)
	assert.NoError(t, f.console.Execute("   "))
	assert.Equal(t, "Resumed\n", f.exec(t, "RESUME"))
}
