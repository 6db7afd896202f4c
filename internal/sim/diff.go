package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// Outcomes of one simulated diagnosis.
const (
	OutcomePass   = "pass"
	OutcomeFail   = "fail"
	OutcomeRefuse = "refuse"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// DiffEntry represents one combination whose outcome changed.
type DiffEntry struct {
	Channel    string `json:"channel"`
	Member     string `json:"member"`
	Command    string `json:"command"`
	OldOutcome string `json:"old_outcome"`
	NewOutcome string `json:"new_outcome"`
	OldStep    string `json:"old_step,omitempty"`
	NewStep    string `json:"new_step,omitempty"`
}

// SimResult holds the complete simulation output.
type SimResult struct {
	OldPath             string      `json:"old_path"`
	NewPath             string      `json:"new_path"`
	TotalCombinations   int         `json:"total_combinations"`
	ChangedCombinations int         `json:"changed_combinations"`
	NewlyBlocked        int         `json:"newly_blocked"`
	NewlyAllowed        int         `json:"newly_allowed"`
	Changes             []DiffEntry `json:"changes"`
}

// FormatText renders the simulation result as human-readable text.
func FormatText(r *SimResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Simulating %s against %s over %d combinations...\n", r.NewPath, r.OldPath, r.TotalCombinations)

	if len(r.Changes) == 0 {
		b.WriteString("\nNo changes detected.\n")
		return b.String()
	}

	b.WriteString("\n")
	for _, d := range r.Changes {
		subject := fmt.Sprintf("%s in #%s", d.Member, d.Channel)
		if len(subject) > 32 {
			subject = subject[:29] + "..."
		}
		fmt.Fprintf(&b, "  CHANGED  %-32s %-20s %s → %s\n",
			subject, d.Command, d.OldOutcome, d.NewOutcome)
		if d.NewStep != "" && d.NewOutcome != OutcomePass {
			fmt.Fprintf(&b, "           now blocked at: %s\n", d.NewStep)
		}
	}

	fmt.Fprintf(&b, "\n%d of %d combinations changed.", r.ChangedCombinations, r.TotalCombinations)
	if r.NewlyBlocked > 0 || r.NewlyAllowed > 0 {
		fmt.Fprintf(&b, " %d newly blocked, %d newly allowed.", r.NewlyBlocked, r.NewlyAllowed)
	}
	b.WriteString("\n")

	return b.String()
}

// FormatJSON renders the simulation result as JSON.
func FormatJSON(r *SimResult) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sim result: %w", err)
	}
	return string(data), nil
}
