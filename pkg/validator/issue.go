// Package validator checks an incoming fact graph against the current
// canon and reports consistency issues. Validation is advisory: it
// always returns its findings and never fails, so a broken capability
// can degrade the legend check but cannot block a story.
package validator

import (
	"sort"
	"strings"
)

// Level grades how serious an issue is.
type Level string

// Issue severity levels.
const (
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Valid reports whether l is one of the recognized levels.
func (l Level) Valid() bool {
	switch l {
	case LevelError, LevelWarning, LevelInfo:
		return true
	}
	return false
}

// ParseLevel normalizes raw text into a level, coercing anything
// unrecognized to LevelError so a sloppy model response can only make
// an issue louder, never quieter.
func ParseLevel(raw string) Level {
	l := Level(strings.ToLower(strings.TrimSpace(raw)))
	if l.Valid() {
		return l
	}
	return LevelError
}

// Issue codes. Codes are stable identifiers consumers can dispatch on;
// messages are for humans.
const (
	CodeEntityTypeConflict      = "entity_type_conflict"
	CodeNewEntity               = "new_entity"
	CodeMissingEntity           = "missing_entity"
	CodeTemporalMismatch        = "temporal_mismatch"
	CodeLegendBreach            = "legend_breach"
	CodeLegendBreachCheckSkip   = "legend_breach_check_skipped"
	CodeLegendBreachCheckFailed = "legend_breach_check_failed"
)

// Issue is one consistency finding.
type Issue struct {
	Level   Level    `json:"level" yaml:"level"`
	Code    string   `json:"code" yaml:"code"`
	Message string   `json:"message" yaml:"message"`
	Refs    []string `json:"refs,omitempty" yaml:"refs,omitempty"` // Ids of the entities or events involved
}

// sortIssues orders issues deterministically by code, then joined refs,
// then message, so repeated runs report identically.
func sortIssues(issues []Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		if issues[i].Code != issues[j].Code {
			return issues[i].Code < issues[j].Code
		}
		ri := strings.Join(issues[i].Refs, ",")
		rj := strings.Join(issues[j].Refs, ",")
		if ri != rj {
			return ri < rj
		}
		return issues[i].Message < issues[j].Message
	})
}

// HasErrors reports whether any issue is error-level.
func HasErrors(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Level == LevelError {
			return true
		}
	}
	return false
}
