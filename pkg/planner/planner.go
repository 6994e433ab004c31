package planner

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/errors"
	"github.com/lorekeep/lorekeep/pkg/facts"
	"github.com/lorekeep/lorekeep/pkg/logging"
)

// matchSystemPrompt steers the ambiguous-match call. The bias toward
// matching keeps the canon from accumulating near-duplicate entities
// that only differ in spelling.
const matchSystemPrompt = `You reconcile entities of a fictional universe. You receive two JSON
lists: "existing_unmatched" are canon entities no incoming entity matched
by id, and "potential_new" are incoming entities with unknown ids.

Find entities that plausibly describe the same subject despite differing
ids, comparing names, types, and descriptions. Prefer matching an
incoming entity to an existing one over declaring it new; duplicates are
worse than conservative matches.

Respond ONLY with a JSON object:
{
  "truly_new_entities": [ <incoming entities that match nothing> ],
  "matched_updates": [ {"id": <existing id>, "existing": <existing entity>, "incoming": <incoming entity>} ]
}

Every "id" MUST be taken from "existing_unmatched" and every incoming
entity's "id" from "potential_new". Copy entities verbatim; do not
invent fields.`

// Planner classifies incoming entities as creations or updates against
// the current canon.
type Planner struct {
	capability capability.Analyzer
	logger     zerolog.Logger
}

// Option configures the planner.
type Option func(*Planner)

// WithCapability supplies the intelligence capability used for the
// ambiguous-match phase. Without a JSON-capable backend the planner
// stays fully deterministic.
func WithCapability(cap capability.Analyzer) Option {
	return func(p *Planner) {
		p.capability = cap
	}
}

// WithLogger sets the logger used for match diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// New creates a planner.
func New(opts ...Option) *Planner {
	p := &Planner{
		logger: logging.Nop,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// matchPools carries the two unresolved pools between phases.
type matchPools struct {
	potentialNew      []facts.Entity
	existingUnmatched []facts.Entity
}

// matchResponse is the JSON shape expected from the capability.
type matchResponse struct {
	TrulyNewEntities []facts.Entity       `json:"truly_new_entities"`
	MatchedUpdates   []facts.EntityUpdate `json:"matched_updates"`
}

// Plan reconciles incoming entities against current ones. Entities
// sharing an id become updates; the rest go through an optional
// AI-assisted matching pass before defaulting to creations. No incoming
// entity is ever dropped: anything the match phase does not claim is
// appended as a creation.
//
// Creations precede updates in the result; within each group the
// discovery order is kept, but callers must not rely on ordering across
// the AI-assisted phase.
func (p *Planner) Plan(ctx context.Context, current, incoming *facts.EntityGraph) (*ChangeSet, error) {
	currentIndex := current.Index()

	var updates []Operation
	pools := matchPools{}
	matchedIDs := map[string]struct{}{}

	var incomingEntities []facts.Entity
	if incoming != nil {
		incomingEntities = incoming.Entities
	}
	for _, entity := range incomingEntities {
		if existing, ok := currentIndex[entity.ID]; ok {
			updates = append(updates, newUpdate(facts.NewEntityUpdate(existing, entity)))
			matchedIDs[entity.ID] = struct{}{}
			continue
		}
		pools.potentialNew = append(pools.potentialNew, entity)
	}

	if current != nil {
		for _, entity := range current.Entities {
			if _, ok := matchedIDs[entity.ID]; !ok {
				pools.existingUnmatched = append(pools.existingUnmatched, entity)
			}
		}
	}

	creates, fuzzyUpdates, usage := p.resolveAmbiguous(ctx, pools, matchedIDs)
	updates = append(updates, fuzzyUpdates...)

	operations := make([]Operation, 0, len(creates)+len(updates))
	operations = append(operations, creates...)
	operations = append(operations, updates...)

	return &ChangeSet{Operations: operations, Usage: usage}, nil
}

// resolveAmbiguous runs the optional AI-assisted matching pass over the
// unresolved pools. Any failure degrades to treating every potential
// new entity as a creation; the planner never fails because of it.
func (p *Planner) resolveAmbiguous(ctx context.Context, pools matchPools, deterministicIDs map[string]struct{}) (creates, updates []Operation, usage capability.Usage) {
	if len(pools.potentialNew) == 0 {
		return nil, nil, usage
	}

	_, hasGenerator := p.capability.(capability.JSONGenerator)
	if !hasGenerator || len(pools.existingUnmatched) == 0 {
		for _, entity := range pools.potentialNew {
			creates = append(creates, newCreate(entity))
		}
		return creates, nil, usage
	}

	response, callUsage, err := p.requestMatches(ctx, pools)
	usage.Add(callUsage)
	if err != nil {
		p.logger.Warn().Err(err).Msg("ambiguous-match call failed, treating all unmatched entities as new")
		for _, entity := range pools.potentialNew {
			creates = append(creates, newCreate(entity))
		}
		return creates, nil, usage
	}

	existingByID := map[string]facts.Entity{}
	for _, entity := range pools.existingUnmatched {
		existingByID[entity.ID] = entity
	}
	potentialByID := map[string]facts.Entity{}
	for _, entity := range pools.potentialNew {
		potentialByID[entity.ID] = entity
	}

	claimed := map[string]struct{}{}
	for _, match := range response.MatchedUpdates {
		existing, known := existingByID[match.ID]
		if !known {
			p.logger.Warn().Str("id", match.ID).Msg("dropping matched update referencing unknown existing id")
			continue
		}
		incoming, isIncoming := potentialByID[match.Incoming.ID]
		if !isIncoming {
			p.logger.Warn().
				Str("id", match.ID).
				Str("incoming_id", match.Incoming.ID).
				Msg("dropping matched update referencing unknown incoming id")
			continue
		}
		updates = append(updates, newUpdate(facts.NewEntityUpdate(existing, incoming)))
		claimed[incoming.ID] = struct{}{}
		delete(existingByID, match.ID)
	}

	emitted := map[string]struct{}{}
	for _, entity := range response.TrulyNewEntities {
		if entity.ID == "" {
			continue
		}
		if _, dup := claimed[entity.ID]; dup {
			// Duplicate protection: a matched update already owns it.
			continue
		}
		if _, dup := deterministicIDs[entity.ID]; dup {
			continue
		}
		if _, dup := emitted[entity.ID]; dup {
			continue
		}
		if original, ok := potentialByID[entity.ID]; ok {
			entity = original
		}
		creates = append(creates, newCreate(entity))
		emitted[entity.ID] = struct{}{}
	}

	// Safety net: no incoming entity is silently dropped.
	for _, entity := range pools.potentialNew {
		if _, ok := claimed[entity.ID]; ok {
			continue
		}
		if _, ok := emitted[entity.ID]; ok {
			continue
		}
		creates = append(creates, newCreate(entity))
		emitted[entity.ID] = struct{}{}
	}

	return creates, updates, usage
}

// requestMatches issues the single bounded capability call of the
// ambiguous-match phase.
func (p *Planner) requestMatches(ctx context.Context, pools matchPools) (*matchResponse, capability.Usage, error) {
	payload, err := json.Marshal(map[string]any{
		"existing_unmatched": compactEntities(pools.existingUnmatched),
		"potential_new":      compactEntities(pools.potentialNew),
	})
	if err != nil {
		return nil, capability.Usage{}, errors.WrapCapability("", "generate_json", err)
	}

	generator := p.capability.(capability.JSONGenerator)
	result, err := generator.GenerateJSON(ctx, matchSystemPrompt, string(payload))
	if err != nil {
		return nil, capability.Usage{}, err
	}

	var response matchResponse
	if err := result.Decode(&response); err != nil {
		return nil, result.Usage, err
	}
	return &response, result.Usage, nil
}

// compactEntities strips empty fields so the match prompt stays small.
func compactEntities(entities []facts.Entity) []map[string]any {
	compact := make([]map[string]any, 0, len(entities))
	for _, entity := range entities {
		item := map[string]any{
			"id":   entity.ID,
			"type": entity.Type.String(),
		}
		if len(entity.Labels) > 0 {
			item["labels"] = entity.Labels
		}
		if strings.TrimSpace(entity.Summary) != "" {
			item["summary"] = entity.Summary
		}
		if len(entity.Attributes) > 0 {
			item["attributes"] = entity.Attributes
		}
		compact = append(compact, item)
	}
	return compact
}
