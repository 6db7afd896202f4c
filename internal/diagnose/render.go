package diagnose

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/cmddoctor/internal/chatfmt"
)

// Status markers appended to every outline line.
const (
	StatusPassed = "Passed ✅"
	StatusFailed = "Failed ⛔️"
)

const successMessage = "All checks passed and no issues were detected." +
	" Make sure that the given parameters correspond to" +
	" the channel, user, and command name that have been problematic.\n\n" +
	"If you still can't find the issue, it is likely that one of the 3rd-party cogs" +
	" you're using adds a global or cog local before invoke hook that prevents" +
	" the command from getting invoked as this can't be diagnosed with this tool."

const identifiedPrefix = "The bot has been able to identify the issue."

// Lines flattens a result tree into a numbered outline ("1.", "1.1.", "2.").
// A leaf's explanation follows its line as-is; results without details add nothing.
func Lines(r Result) []string {
	return outline(r, "")
}

func outline(r Result, prefix string) []string {
	switch d := r.Details.(type) {
	case Text:
		if d == "" {
			return nil
		}
		return []string{string(d)}
	case Children:
		var lines []string
		for i, sub := range d {
			status := StatusPassed
			if !sub.Success {
				status = StatusFailed
			}
			lines = append(lines, fmt.Sprintf("%s%d. %s: %s", prefix, i+1, sub.Label, status))
			lines = append(lines, outline(sub, fmt.Sprintf("%s%d.", prefix, i+1))...)
		}
		return lines
	}
	return nil
}

// Conclusion is the closing text of a report: the success caveat, or the
// best available resolution.
func Conclusion(r Result) string {
	if r.Success {
		return successMessage
	}
	if r.Resolution != "" {
		return identifiedPrefix + " " + r.Resolution
	}
	return identifiedPrefix + " Read the details above for more information."
}

// Report is a rendered diagnosis.
type Report struct {
	Header     string   `json:"header"`
	Result     Result   `json:"result"`
	Lines      []string `json:"lines"`
	Conclusion string   `json:"conclusion"`
}

// String joins the report into the message sent back to the requester.
func (r Report) String() string {
	parts := make([]string, 0, len(r.Lines)+4)
	parts = append(parts, r.Header, "")
	parts = append(parts, r.Lines...)
	parts = append(parts, "", r.Conclusion)
	return strings.Join(parts, "\n")
}

// Report runs the diagnosis and renders it.
func (d *Diagnoser) Report(ctx context.Context) (Report, error) {
	res, err := d.Run(ctx)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Header:     d.header(),
		Result:     res,
		Lines:      Lines(res),
		Conclusion: Conclusion(res),
	}, nil
}

func (d *Diagnoser) header() string {
	// The original context's prefix is used: a bot author's message is not
	// parsed far enough to resolve one.
	return chatfmt.Bold(fmt.Sprintf(
		"Diagnose results for issues of %s when trying to run %s command in %s channel:",
		d.author, d.formatCommandName(d.command.QualifiedName()), d.channel.Mention(),
	))
}
