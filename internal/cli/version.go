package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/ppiankov/cmddoctor/internal/host"
	"github.com/ppiankov/cmddoctor/internal/snapshot"
)

const version = "0.3.0"

// versionInfo tells users which snapshot files this build can read.
type versionInfo struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	SnapshotFormat int    `json:"snapshot_format"`
	Permissions    int    `json:"permission_flags"`
	Go             string `json:"go"`
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and supported snapshot format",
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, args []string) error {
	out, err := json.MarshalIndent(versionInfo{
		Name:           "cmddoctor",
		Version:        version,
		SnapshotFormat: snapshot.FormatVersion,
		Permissions:    len(host.Known),
		Go:             runtime.Version(),
	}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
