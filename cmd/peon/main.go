// Package main provides the peon CLI: an interactive console for a macro
// engine driving a simulated game client, plus batch run and check modes.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"peon/internal/config"
	"peon/internal/logger"
	"peon/internal/version"
)

var (
	logLevel   string
	logFile    string
	configFile string
	envFile    string
	testMode   bool
	detailed   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "peon",
	Short: "peon - crafting macro engine",
	Long: `peon runs crafting macros against a game client, one step at a time, with
live pause, resume, stop and loop control.`,
	RunE: runShell,
}

// shellCmd is the explicit form of the default behavior
var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start the interactive console",
	RunE:  runShell,
}

var runCmd = &cobra.Command{
	Use:   "run <macro>",
	Short: "Run one macro to completion",
	Long: `Run one macro from the library against the simulated client and exit when it
finishes. Exits non-zero if the macro pauses on a failure.`,
	Args: cobra.ExactArgs(1),
	RunE: runMacro,
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Parse every macro in the library and report syntax errors",
	Args:  cobra.NoArgs,
	RunE:  runCheck,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		if detailed {
			fmt.Fprintln(cmd.OutOrStdout(), version.GetDetailedVersion())
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), version.GetFormattedVersion())
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&logLevel, config.KeyLogLevel, "", "Set log level (debug|info|warn|error) [default: info]")
	flags.StringVar(&logFile, config.KeyLogFile, "", "Write logs to file instead of stderr")
	flags.BoolVar(&testMode, config.KeyTestMode, false, "Run in deterministic test mode")
	flags.StringVar(&configFile, "config", "", "YAML config file")
	flags.StringVar(&envFile, "env-file", ".env", "dotenv file with PEON_* settings")
	flags.String(config.KeyMacros, "", "Macro library YAML file")
	flags.String(config.KeyScenario, "", "Simulated client scenario YAML file")
	flags.Bool(config.KeyCraftLoopFromRecipeNote, false, "Synchronize crafting loops before the macro body")
	flags.Float64(config.KeyCraftLoopMaxWait, 5, "Seconds each crafting-loop /waitaddon may wait")
	flags.Bool(config.KeyCraftLoopEcho, false, "Announce crafting-loop progress")

	// Bind flags to viper
	for _, key := range []string{config.KeyLogLevel, config.KeyLogFile, config.KeyTestMode} {
		if err := viper.BindPFlag(key, flags.Lookup(key)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", key, err)
			os.Exit(1)
		}
	}

	versionCmd.Flags().BoolVar(&detailed, "detailed", false, "Show detailed build information")

	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	// Configure logger before any command execution
	cobra.OnInitialize(initConfig)
}

func initConfig() {
	if err := logger.Configure(logLevel, logFile, testMode); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(config.Options{
		ConfigFile: configFile,
		EnvFile:    envFile,
		Flags:      cmd.Flags(),
	})
}
