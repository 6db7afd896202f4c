package scenario

import "github.com/ppiankov/cmddoctor/internal/snapshot"

// Case is one diagnosis expectation within a scenario.
type Case struct {
	snapshot.Request `yaml:",inline"`

	// Expect is "pass", "fail" or "refuse".
	Expect string `yaml:"expect"`
	// Label, when set, must appear in the label of the failing step.
	Label string `yaml:"label,omitempty"`
	// Resolution, when set, must appear in the reported resolution or the
	// refusal message.
	Resolution string `yaml:"resolution,omitempty"`
}

// Scenario is a named collection of diagnosis cases against one snapshot.
type Scenario struct {
	Name string `yaml:"name"`
	// Snapshot is resolved relative to the scenario file. A snapshot given
	// on the command line takes precedence.
	Snapshot string `yaml:"snapshot,omitempty"`
	Cases    []Case `yaml:"cases"`
}

// CaseResult is the outcome of evaluating one test case.
type CaseResult struct {
	Index    int    `json:"index"`
	Passed   bool   `json:"passed"`
	Channel  string `json:"channel"`
	Member   string `json:"member"`
	Command  string `json:"command"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Step     string `json:"step,omitempty"`
	Reason   string `json:"reason"`
}

// RunResult is the outcome of running all cases in one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Cases  []CaseResult `json:"cases"`
}
