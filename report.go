package lorekeep

import (
	"fmt"

	"github.com/agentstation/utc"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/changeset"
	"github.com/lorekeep/lorekeep/pkg/facts"
	"github.com/lorekeep/lorekeep/pkg/validator"
)

// Report is the outcome of processing one story.
type Report struct {
	RunID       string               `json:"run_id" yaml:"run_id"`
	GeneratedAt utc.Time             `json:"generated_at" yaml:"generated_at"`
	OK          bool                 `json:"ok" yaml:"ok"` // No error-level issues
	Issues      []validator.Issue    `json:"issues" yaml:"issues"`
	Proposed    *changeset.Changeset `json:"proposed" yaml:"proposed"`
	Notes       []string             `json:"notes,omitempty" yaml:"notes,omitempty"`
	Usage       capability.Usage     `json:"usage,omitempty" yaml:"usage,omitempty"`
}

// newReport assembles a report from pipeline results.
func newReport(runID string, issues []validator.Issue, proposed *changeset.Changeset, usage capability.Usage) *Report {
	if issues == nil {
		issues = []validator.Issue{}
	}
	return &Report{
		RunID:       runID,
		GeneratedAt: utc.Now(),
		OK:          !validator.HasErrors(issues),
		Issues:      issues,
		Proposed:    proposed,
		Usage:       usage,
	}
}

// Errors returns the error-level issues only.
func (r *Report) Errors() []validator.Issue {
	var errs []validator.Issue
	for _, issue := range r.Issues {
		if issue.Level == validator.LevelError {
			errs = append(errs, issue)
		}
	}
	return errs
}

// summarizeRun produces the human-readable notes for a processed story.
func summarizeRun(incoming *facts.Graph, attempts int) []string {
	notes := []string{
		fmt.Sprintf("Extracted %d entit(ies) and %d event(s) in %d attempt(s).",
			len(incoming.Entities), len(incoming.Events), attempts),
	}
	return notes
}
