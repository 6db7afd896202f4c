package cli

import (
	"fmt"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ppiankov/cmddoctor/internal/snapshot"
)

var validateSnapshot string

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateSnapshot, "snapshot", "s", "", "Path to bot snapshot (default ~/.cmddoctor/snapshot.yaml)")
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check a bot snapshot for inconsistencies",
	Long: "Parses the snapshot and lists every problem found: unknown roles,\n" +
		"permissions, cogs or commands, and a bot missing from a guild.\n" +
		"Warnings are reported but do not fail validation.",
	RunE: runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	path := validateSnapshot
	if path == "" {
		path = snapshot.DefaultPath()
	}

	snap, err := snapshot.Load(path)
	if err != nil {
		fmt.Fprintf(out, "%s %-20s %s\n", failColor.Sprint("✗"), "snapshot:", err)
		return fmt.Errorf("validate found issues")
	}
	fmt.Fprintf(out, "%s %-20s %s\n", passColor.Sprint("✓"), "snapshot:", filepath.Clean(path))
	fmt.Fprintf(out, "%s %-20s %d guild(s), %d top-level command(s), %d cog(s)\n",
		passColor.Sprint("✓"), "contents:", len(snap.Guilds), len(snap.Commands), len(snap.Cogs))

	problems := snap.Validate()
	warn := color.New(color.FgYellow)
	errorCount := 0
	for _, p := range problems {
		mark := warn.Sprint("!")
		if p.Severity == snapshot.SevError {
			mark = failColor.Sprint("✗")
			errorCount++
		}
		fmt.Fprintf(out, "%s %-20s %s\n", mark, p.Path+":", p.Message)
	}

	fmt.Fprintln(out)
	if errorCount > 0 {
		fmt.Fprintf(out, "%d error(s), %d warning(s). Fix the errors before diagnosing.\n", errorCount, len(problems)-errorCount)
		return fmt.Errorf("validate found issues")
	}
	if len(problems) > 0 {
		fmt.Fprintf(out, "Snapshot is usable with %d warning(s).\n", len(problems))
		return nil
	}
	fmt.Fprintln(out, "Snapshot is valid.")
	return nil
}
