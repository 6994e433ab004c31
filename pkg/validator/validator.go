package validator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/facts"
	"github.com/lorekeep/lorekeep/pkg/logging"
)

// legendSystemPrompt steers the legend-breach check.
const legendSystemPrompt = `You are a continuity checker for a fictional universe. You receive the
universe's core truths and the facts a new story establishes.

Report every way the new facts contradict a core truth. Respond ONLY
with a JSON object:
{
  "findings": [
    {"message": <what is contradicted and how>, "refs": [<entity or event ids>], "level": "error"|"warning"|"info"}
  ]
}

An empty "findings" list means the story honors every core truth. Do
not report style concerns, only contradictions.`

// Validator checks incoming fact graphs against the canon.
type Validator struct {
	capability capability.Analyzer
	logger     zerolog.Logger
}

// Option configures the validator.
type Option func(*Validator)

// WithCapability supplies the capability used for the legend-breach
// check. Without a JSON-capable backend the check is skipped with an
// informational issue.
func WithCapability(cap capability.Analyzer) Option {
	return func(v *Validator) {
		v.capability = cap
	}
}

// WithLogger sets the logger used for legend-check diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(v *Validator) {
		v.logger = logger
	}
}

// New creates a validator.
func New(opts ...Option) *Validator {
	v := &Validator{
		logger: logging.Nop,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate runs every rule independently and returns the concatenated,
// deterministically sorted findings. It never fails: rules that cannot
// run degrade to informational issues.
func (v *Validator) Validate(ctx context.Context, current, incoming *facts.Graph) []Issue {
	currentIndex := current.EntityIndex()
	union := current.EntityIndex()
	for id, entity := range incoming.EntityIndex() {
		if _, ok := union[id]; !ok {
			union[id] = entity
		}
	}

	issues := []Issue{}
	issues = append(issues, checkEntityTypes(currentIndex, incoming)...)
	issues = append(issues, checkMissingEntities(union, incoming)...)
	issues = append(issues, checkTemporal(union, incoming)...)
	issues = append(issues, v.checkLegends(ctx, current, incoming)...)

	sortIssues(issues)
	return issues
}

// checkEntityTypes flags incoming entities whose type disagrees with
// the canon and notes the genuinely new ones.
func checkEntityTypes(current map[string]facts.Entity, incoming *facts.Graph) []Issue {
	var issues []Issue
	if incoming == nil {
		return issues
	}
	for _, entity := range incoming.Entities {
		existing, known := current[entity.ID]
		if !known {
			issues = append(issues, Issue{
				Level:   LevelInfo,
				Code:    CodeNewEntity,
				Message: fmt.Sprintf("entity %q is new to the canon", entity.ID),
				Refs:    []string{entity.ID},
			})
			continue
		}
		if existing.Type != entity.Type {
			issues = append(issues, Issue{
				Level: LevelError,
				Code:  CodeEntityTypeConflict,
				Message: fmt.Sprintf("entity %q is a %s in the canon but the story treats it as a %s",
					entity.ID, existing.Type, entity.Type),
				Refs: []string{entity.ID},
			})
		}
	}
	return issues
}

// checkMissingEntities flags incoming events that reference entities
// neither the canon nor the story establishes.
func checkMissingEntities(union map[string]facts.Entity, incoming *facts.Graph) []Issue {
	var issues []Issue
	if incoming == nil {
		return issues
	}
	for _, event := range incoming.Events {
		refs := make([]string, 0, len(event.Participants)+1)
		refs = append(refs, event.Participants...)
		if event.Location != "" {
			refs = append(refs, event.Location)
		}
		for _, ref := range refs {
			if _, ok := union[ref]; ok {
				continue
			}
			issues = append(issues, Issue{
				Level:   LevelError,
				Code:    CodeMissingEntity,
				Message: fmt.Sprintf("event %q references entity %q, which neither the canon nor the story establishes", event.ID, ref),
				Refs:    []string{event.ID, ref},
			})
		}
	}
	return issues
}

// checkTemporal flags incoming events dated outside the era of an
// entity they involve.
func checkTemporal(union map[string]facts.Entity, incoming *facts.Graph) []Issue {
	var issues []Issue
	if incoming == nil {
		return issues
	}
	for _, event := range incoming.Events {
		year, dated := event.Year()
		if !dated {
			continue
		}
		involved := append([]string{}, event.Participants...)
		if event.Location != "" {
			involved = append(involved, event.Location)
		}
		for _, id := range involved {
			entity, known := union[id]
			if !known {
				continue
			}
			start, end, hasEra := entity.Era()
			if !hasEra || (year >= start && year <= end) {
				continue
			}
			issues = append(issues, Issue{
				Level: LevelWarning,
				Code:  CodeTemporalMismatch,
				Message: fmt.Sprintf("event %q is dated %d but entity %q belongs to the era %d-%d",
					event.ID, year, id, start, end),
				Refs: []string{event.ID, id},
			})
		}
	}
	return issues
}

// legendFinding is one entry of the legend-check response.
type legendFinding struct {
	Message string   `json:"message"`
	Refs    []string `json:"refs"`
	Level   string   `json:"level"`
}

// legendResponse is the JSON shape expected from the capability.
type legendResponse struct {
	Findings []legendFinding `json:"findings"`
}

// checkLegends asks the capability whether the incoming facts
// contradict any core truth. The check only runs when the canon carries
// core truths; a missing or failing capability degrades to a single
// informational issue.
func (v *Validator) checkLegends(ctx context.Context, current, incoming *facts.Graph) []Issue {
	if current == nil || len(current.CoreTruths) == 0 {
		return nil
	}

	generator, ok := v.capability.(capability.JSONGenerator)
	if !ok {
		return []Issue{{
			Level:   LevelInfo,
			Code:    CodeLegendBreachCheckSkip,
			Message: "legend breach check skipped: no JSON-capable capability configured",
		}}
	}

	payload, err := json.Marshal(map[string]any{
		"core_truths": current.CoreTruths,
		"new_facts":   incoming,
	})
	if err != nil {
		return v.legendCheckFailed(err)
	}

	result, err := generator.GenerateJSON(ctx, legendSystemPrompt, string(payload))
	if err != nil {
		return v.legendCheckFailed(err)
	}

	findings, err := decodeLegendFindings(result)
	if err != nil {
		return v.legendCheckFailed(err)
	}

	var issues []Issue
	for _, finding := range findings {
		message := strings.TrimSpace(finding.Message)
		if message == "" {
			continue
		}
		issues = append(issues, Issue{
			Level:   ParseLevel(finding.Level),
			Code:    CodeLegendBreach,
			Message: message,
			Refs:    finding.Refs,
		})
	}
	return issues
}

// decodeLegendFindings reads the legend-check response. Backends are
// asked for a {"findings": [...]} object but some return the bare list,
// so both shapes are accepted.
func decodeLegendFindings(result capability.Result) ([]legendFinding, error) {
	var response legendResponse
	objErr := result.Decode(&response)
	if objErr == nil {
		return response.Findings, nil
	}
	var findings []legendFinding
	if err := result.Decode(&findings); err != nil {
		return nil, objErr
	}
	return findings, nil
}

// legendCheckFailed records a failed legend check as an informational
// issue rather than a validation error.
func (v *Validator) legendCheckFailed(err error) []Issue {
	v.logger.Warn().Err(err).Msg("legend breach check failed")
	return []Issue{{
		Level:   LevelInfo,
		Code:    CodeLegendBreachCheckFailed,
		Message: fmt.Sprintf("legend breach check failed: %v", err),
	}}
}
