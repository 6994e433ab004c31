// Package extractor turns raw story text into a normalized fact graph
// using an intelligence capability. Extraction is the one loud failure
// in the engine: when no attempt yields valid structured output there
// is no safe default graph to substitute, so the caller receives a
// typed extraction error.
package extractor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/constants"
	"github.com/lorekeep/lorekeep/pkg/errors"
	"github.com/lorekeep/lorekeep/pkg/facts"
	"github.com/lorekeep/lorekeep/pkg/logging"
)

// systemPrompt instructs the capability to answer with strict JSON.
const systemPrompt = `You are an information extraction agent. Read the provided story text
and extract all entities and events it establishes.

Respond ONLY with a JSON object of the form {"entities": [...], "events": [...]}.

Each entity object MUST include:
- "id": a lowercase ASCII identifier with words joined by underscores.
- "name": the primary name of the entity.
- "type": one of "person", "place", "artifact", "organization", "concept", "event", "other".
- "labels": (optional) a list of alternative names found in the text.
- "summary": (optional) a brief description based on the text.
- "attributes": (optional) an object of structured facts such as {"era": "1200-1250"}.

Each event object MUST include:
- "id": identifier in the same slug form.
- "title": a short display title.
- "date": (optional) the in-universe date or era, verbatim from the text.
- "location": (optional) the id of the place entity where it happened.
- "participants": (optional) a list of entity ids involved.
- "description": (optional) one or two sentences of detail.

Focus on accuracy and completeness based ONLY on the provided text.`

// strictRetryPrefix is prepended to the prompt on the second attempt.
const strictRetryPrefix = "Return ONLY JSON. If you cannot comply, respond with an empty JSON object.\n"

// Extractor converts stories into fact graphs.
type Extractor struct {
	capability capability.Analyzer
	logger     zerolog.Logger
}

// Option configures the extractor.
type Option func(*Extractor)

// WithLogger sets the logger used for attempt diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(x *Extractor) {
		x.logger = logger
	}
}

// New creates an extractor around the given capability.
func New(cap capability.Analyzer, opts ...Option) *Extractor {
	x := &Extractor{
		capability: cap,
		logger:     logging.Nop,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Result carries the extracted graph plus token accounting accumulated
// across all attempts.
type Result struct {
	Graph    *facts.Graph
	Usage    capability.Usage
	Attempts int
}

// Extract converts the story into a fact graph. The first attempt uses
// the base prompt; if its output cannot be parsed, one corrective
// attempt follows with a stricter JSON-only instruction. Exhaustion
// surfaces an *errors.ExtractionError wrapping the last failure.
func (x *Extractor) Extract(ctx context.Context, story string) (*Result, error) {
	if strings.TrimSpace(story) == "" {
		return nil, errors.NewValidationError("story", story, "story text must not be empty")
	}

	var usage capability.Usage
	var lastErr error
	lastPayload := ""

	for attempt := 1; attempt <= constants.MaxExtractionAttempts; attempt++ {
		prompt := story
		if attempt > 1 {
			prompt = strictRetryPrefix + story
		}

		result, err := x.invoke(ctx, prompt)
		if err != nil {
			lastErr = err
			x.logger.Warn().Err(err).Int("attempt", attempt).Msg("extraction call failed")
			continue
		}
		usage.Add(result.Usage)
		if result.IsText() {
			lastPayload = capability.CleanJSON(result.Text())
		}

		var wire wireGraph
		if err := result.Decode(&wire); err != nil {
			lastErr = err
			x.logger.Warn().Err(err).Int("attempt", attempt).Msg("extraction payload rejected")
			continue
		}

		graph := wire.normalize()
		x.logger.Debug().
			Int("attempt", attempt).
			Int("entities", len(graph.Entities)).
			Int("events", len(graph.Events)).
			Msg("extraction succeeded")
		return &Result{Graph: graph, Usage: usage, Attempts: attempt}, nil
	}

	return nil, errors.NewExtractionError(constants.MaxExtractionAttempts, lastPayload, lastErr)
}

// invoke issues one capability call, preferring the structured JSON
// contract when the backend offers it. The Analyse fallback receives
// the story alone; the aspect already selects extraction.
func (x *Extractor) invoke(ctx context.Context, prompt string) (capability.Result, error) {
	if generator, ok := x.capability.(capability.JSONGenerator); ok {
		return generator.GenerateJSON(ctx, systemPrompt, prompt)
	}
	return x.capability.Analyse(ctx, prompt, capability.AspectExtraction)
}

// wireGraph mirrors the JSON shape the capability is asked to return.
// Fields are deliberately loose; normalization tightens them.
type wireGraph struct {
	Entities []wireEntity `json:"entities"`
	Events   []wireEvent  `json:"events"`
}

type wireEntity struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Labels     []string       `json:"labels"`
	Aliases    []string       `json:"aliases"`
	Summary    string         `json:"summary"`
	Attributes map[string]any `json:"attributes"`
}

type wireEvent struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Title        string   `json:"title"`
	Date         string   `json:"date"`
	Location     string   `json:"location"`
	Participants []string `json:"participants"`
	Description  string   `json:"description"`
}

// normalize converts the wire payload into a canonical fact graph.
func (w wireGraph) normalize() *facts.Graph {
	graph := &facts.Graph{
		Entities: make([]facts.Entity, 0, len(w.Entities)),
		Events:   make([]facts.Event, 0, len(w.Events)),
	}

	for i, raw := range w.Entities {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			id = strings.TrimSpace(raw.Name)
		}
		if id == "" {
			id = fmt.Sprintf("entity_%d", i+1)
		}

		labels := make([]string, 0, 1+len(raw.Labels)+len(raw.Aliases))
		seen := map[string]struct{}{}
		for _, label := range append(append([]string{raw.Name}, raw.Labels...), raw.Aliases...) {
			label = strings.TrimSpace(label)
			if label == "" {
				continue
			}
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			labels = append(labels, label)
		}

		attributes := raw.Attributes
		if attributes == nil {
			attributes = map[string]any{}
		}

		graph.Entities = append(graph.Entities, facts.Entity{
			ID:         facts.Slugify(id),
			Type:       facts.ParseEntityType(raw.Type),
			Labels:     labels,
			Summary:    strings.TrimSpace(raw.Summary),
			Attributes: attributes,
		})
	}

	for i, raw := range w.Events {
		title := strings.TrimSpace(raw.Title)
		if title == "" {
			title = strings.TrimSpace(raw.Name)
		}
		if title == "" {
			title = fmt.Sprintf("Event %d", i+1)
		}

		id := strings.TrimSpace(raw.ID)
		if id == "" {
			id = title
		}

		participants := make([]string, 0, len(raw.Participants))
		for _, participant := range raw.Participants {
			if strings.TrimSpace(participant) == "" {
				continue
			}
			participants = append(participants, facts.Slugify(participant))
		}

		location := ""
		if strings.TrimSpace(raw.Location) != "" {
			location = facts.Slugify(raw.Location)
		}

		graph.Events = append(graph.Events, facts.Event{
			ID:           facts.Slugify(id),
			Title:        title,
			Date:         strings.TrimSpace(raw.Date),
			Location:     location,
			Participants: participants,
			Description:  strings.TrimSpace(raw.Description),
		})
	}

	graph.Normalize()
	return graph
}
