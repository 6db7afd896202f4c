package diagnose

import "encoding/json"

// Details is the payload of a Result: either Text (a leaf explanation) or
// Children (the ordered trace of sub-checks attempted). Nil means no details.
type Details interface {
	isDetails()
}

// Text is the explanation carried by a leaf.
type Text string

// Children is the ordered list of sub-results carried by a composite.
type Children []Result

func (Text) isDetails()     {}
func (Children) isDetails() {}

// Result is the outcome of one check. It is never mutated after construction.
type Result struct {
	Success    bool
	Label      string
	Details    Details
	Resolution string
}

// Pass is a successful result without details.
func Pass(label string) Result {
	return Result{Success: true, Label: label}
}

// Fail is a failed leaf carrying an explanation and a suggested fix.
func Fail(label, detail, resolution string) Result {
	return Result{Label: label, Details: Text(detail), Resolution: resolution}
}

// Children returns the sub-results of a composite, or nil for a leaf.
func (r Result) Children() []Result {
	if c, ok := r.Details.(Children); ok {
		return c
	}
	return nil
}

// Text returns the explanation of a leaf, or "" for a composite.
func (r Result) Text() string {
	if t, ok := r.Details.(Text); ok {
		return string(t)
	}
	return ""
}

// FailingStep descends through failed composites to the step that explains
// the failure. A passing result is returned as is.
func (r Result) FailingStep() Result {
	for _, c := range r.Children() {
		if !c.Success {
			return c.FailingStep()
		}
	}
	return r
}

// Empty reports whether the result carries no details at all.
func (r Result) Empty() bool {
	switch d := r.Details.(type) {
	case Text:
		return d == ""
	case Children:
		return len(d) == 0
	default:
		return true
	}
}

type resultJSON struct {
	Success    bool     `json:"success"`
	Label      string   `json:"label"`
	Detail     string   `json:"detail,omitempty"`
	Checks     []Result `json:"checks,omitempty"`
	Resolution string   `json:"resolution,omitempty"`
}

// MarshalJSON encodes the Details variant as either "detail" or "checks".
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal(resultJSON{
		Success:    r.Success,
		Label:      r.Label,
		Detail:     r.Text(),
		Checks:     r.Children(),
		Resolution: r.Resolution,
	})
}
