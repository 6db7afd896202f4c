package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	verbose   bool
	colorMode string
)

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every executed check to stderr")
	rootCmd.PersistentFlags().StringVar(&colorMode, "color", "auto", "Colorize text output (auto|always|never)")
}

var rootCmd = &cobra.Command{
	Use:   "cmddoctor",
	Short: "Explain why a bot command cannot run",
	Long: "Replays a chat bot's permission pipeline for a member, channel and command\n" +
		"against a snapshot of the bot's configuration, and reports the first step\n" +
		"that blocks the command together with a suggested fix.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging()
		return setupColor()
	},
}

func setupLogging() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

func setupColor() error {
	switch colorMode {
	case "auto":
		// fatih/color disables itself when stdout is not a terminal.
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		return fmt.Errorf("invalid --color %q (want auto, always or never)", colorMode)
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
