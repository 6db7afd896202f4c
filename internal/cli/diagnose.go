package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/cmddoctor/internal/diagnose"
	"github.com/ppiankov/cmddoctor/internal/snapshot"
	"github.com/ppiankov/cmddoctor/internal/watch"
)

var (
	diagSnapshot string
	diagChannel  string
	diagMember   string
	diagCommand  string
	diagFormat   string
	diagWatch    bool
)

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	diagnoseCmd.Flags().StringVarP(&diagSnapshot, "snapshot", "s", "", "Path to bot snapshot (default ~/.cmddoctor/snapshot.yaml)")
	diagnoseCmd.Flags().StringVar(&diagChannel, "channel", "", "Channel name or ID (required)")
	diagnoseCmd.Flags().StringVar(&diagMember, "member", "", "Member name or ID (required)")
	diagnoseCmd.Flags().StringVar(&diagCommand, "command", "", "Qualified command name, e.g. \"playlist start\" (required)")
	diagnoseCmd.Flags().StringVarP(&diagFormat, "format", "f", "text", "Output format (text|json)")
	diagnoseCmd.Flags().BoolVarP(&diagWatch, "watch", "w", false, "Re-run whenever the snapshot file changes")
	diagnoseCmd.MarkFlagRequired("channel")
	diagnoseCmd.MarkFlagRequired("member")
	diagnoseCmd.MarkFlagRequired("command")
}

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Explain why a member cannot run a command in a channel",
	Long: "Replays the bot's permission pipeline for the given member, channel and\n" +
		"command, stops at the first failing step and prints the check trace with a\n" +
		"suggested fix. The exit code is 0 whatever the outcome of the diagnosis.",
	RunE: runDiagnose,
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if diagFormat != "text" && diagFormat != "json" {
		return fmt.Errorf("invalid --format %q (want text or json)", diagFormat)
	}
	out := cmd.OutOrStdout()
	req := snapshot.Request{Channel: diagChannel, Member: diagMember, Command: diagCommand}

	if !diagWatch {
		return diagnoseOnce(cmd.Context(), out, req)
	}

	path := diagSnapshot
	if path == "" {
		path = snapshot.DefaultPath()
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "Watching %s (Ctrl+C to stop)\n", path)
	return watch.Run(ctx, path, func(ctx context.Context) error {
		fmt.Fprintln(out)
		return diagnoseOnce(ctx, out, req)
	})
}

// diagnoseOnce loads the snapshot afresh and prints one report.
func diagnoseOnce(ctx context.Context, out io.Writer, req snapshot.Request) error {
	if ctx == nil {
		ctx = context.Background()
	}
	snap, err := snapshot.Load(diagSnapshot)
	if err != nil {
		return err
	}
	h, err := snapshot.New(snap)
	if err != nil {
		return err
	}

	rep, err := h.Diagnose(ctx, req, diagnose.Options{Logger: slog.Default()})
	var refusal *snapshot.RefusalError
	if errors.As(err, &refusal) {
		// The bot answers a refused request with a plain message.
		fmt.Fprintln(out, refusal.Message)
		return nil
	}
	if err != nil {
		return err
	}

	if diagFormat == "json" {
		data, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal report: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	fmt.Fprintln(out, colorizeReport(rep))
	return nil
}

var (
	passColor = color.New(color.FgGreen)
	failColor = color.New(color.FgRed, color.Bold)
)

// colorizeReport renders the report with the status of each step colored.
func colorizeReport(rep diagnose.Report) string {
	lines := make([]string, len(rep.Lines))
	for i, line := range rep.Lines {
		switch {
		case strings.HasSuffix(line, diagnose.StatusPassed):
			lines[i] = strings.TrimSuffix(line, diagnose.StatusPassed) + passColor.Sprint(diagnose.StatusPassed)
		case strings.HasSuffix(line, diagnose.StatusFailed):
			lines[i] = strings.TrimSuffix(line, diagnose.StatusFailed) + failColor.Sprint(diagnose.StatusFailed)
		default:
			lines[i] = line
		}
	}
	rep.Lines = lines
	return rep.String()
}
