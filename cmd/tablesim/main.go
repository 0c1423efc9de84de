// tablesim drives pool tables headlessly from the terminal.
//
// Usage:
//
//	tablesim levels                                  - List the level table
//	tablesim predict --level 1 --angle 0 --power 0.4 - Print a predicted cue path
//	tablesim play --shot 3.14:0.6 --shot 0.2:1       - Play scripted shots
//
// Global flags:
//
//	--settings <path>  - Settings YAML (default: embedded)
//	--hz <rate>        - Physics rate (default: 60)
//	--verbose          - Log to stderr
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/playmatatu/pocketpool/internal/level"
	"github.com/playmatatu/pocketpool/internal/logging"
)

var (
	flagSettings string
	flagHz       int
	flagVerbose  bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tablesim",
	Short: "Headless pocket pool table simulator",
	Long: `tablesim runs the match, shot and prediction logic without a server.

Examples:
  tablesim levels
  tablesim predict --level 0 --angle 3.14159 --power 0.5
  tablesim play --level 1 --shot 3.14159:0.8 --shot 0:0.3`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSettings, "settings", "", "Path to settings YAML (empty uses the embedded default)")
	rootCmd.PersistentFlags().IntVar(&flagHz, "hz", 60, "Physics steps per second")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Log to stderr")

	rootCmd.AddCommand(levelsCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(playCmd)
}

func loadSettings() (*level.Settings, error) {
	return level.Load(flagSettings)
}

func newLogger() *zap.Logger {
	if !flagVerbose {
		return zap.NewNop()
	}
	log, err := logging.New("development")
	if err != nil {
		return zap.NewNop()
	}
	return log
}
