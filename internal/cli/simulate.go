package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cmddoctor/internal/sim"
)

var (
	simOld     string
	simNew     string
	simChannel string
	simMember  string
	simCommand string
	simFormat  string
)

func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVar(&simOld, "old", "", "Path to the current snapshot (required)")
	simulateCmd.Flags().StringVar(&simNew, "new", "", "Path to the changed snapshot (required)")
	simulateCmd.Flags().StringVar(&simChannel, "channel", "", "Only this channel (name or ID)")
	simulateCmd.Flags().StringVar(&simMember, "member", "", "Only this member (name or ID)")
	simulateCmd.Flags().StringVar(&simCommand, "command", "", "Only this qualified command")
	simulateCmd.Flags().StringVarP(&simFormat, "format", "f", "text", "Output format (text|json)")
	simulateCmd.MarkFlagRequired("old")
	simulateCmd.MarkFlagRequired("new")
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Compare who can run what between two snapshots",
	Long: "Diagnoses every channel, member and command of the new snapshot against\n" +
		"both snapshots and shows which outcomes changed.\n\n" +
		"Use this to preview permission changes before applying them to the bot.",
	RunE: runSimulate,
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	result, err := sim.Simulate(ctx, simOld, simNew, sim.Filter{
		Channel: simChannel,
		Member:  simMember,
		Command: simCommand,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch simFormat {
	case "json":
		s, err := sim.FormatJSON(result)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, s)
	default:
		fmt.Fprint(out, sim.FormatText(result))
	}

	return nil
}
