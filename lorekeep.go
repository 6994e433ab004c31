// Package lorekeep keeps a collaborative fictional universe consistent.
// The Engine takes a new story, extracts the facts it establishes,
// reconciles them against the canon repository, proposes the file
// changes that absorb them, and reports every consistency issue found
// along the way.
//
// The engine is read-only: it computes changesets but never touches
// the repository. Applying changes is the caller's job.
//
// Example usage:
//
//	engine, err := lorekeep.New(
//	    lorekeep.WithCapability(gemini),
//	)
//	if err != nil {
//	    return err
//	}
//	report, err := engine.ProcessStory(ctx, story, "/path/to/universe")
//	if err != nil {
//	    return err
//	}
//	if !report.OK {
//	    // error-level issues found, inspect report.Issues
//	}
package lorekeep

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/pkg/canon"
	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/changeset"
	"github.com/lorekeep/lorekeep/pkg/extractor"
	"github.com/lorekeep/lorekeep/pkg/facts"
	"github.com/lorekeep/lorekeep/pkg/logging"
	"github.com/lorekeep/lorekeep/pkg/planner"
	"github.com/lorekeep/lorekeep/pkg/validator"
)

// Engine is the consistency engine facade. It wires the extractor,
// planner, changeset builder, and validator around a shared
// intelligence capability.
type Engine struct {
	capability capability.Analyzer
	writer     capability.Analyzer
	logger     zerolog.Logger

	extractor *extractor.Extractor
	planner   *planner.Planner
	builder   *changeset.Builder
	validator *validator.Validator
}

// New creates an engine. Without options it runs fully offline on the
// deterministic heuristic backend.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		logger: logging.Nop,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	if e.capability == nil {
		e.capability = defaultCapability()
	}
	if e.writer == nil {
		e.writer = e.capability
	}

	e.extractor = extractor.New(e.capability, extractor.WithLogger(e.logger))
	e.planner = planner.New(
		planner.WithCapability(e.capability),
		planner.WithLogger(e.logger),
	)
	e.builder = changeset.New(
		changeset.WithWriter(e.writer),
		changeset.WithLogger(e.logger),
	)
	e.validator = validator.New(
		validator.WithCapability(e.capability),
		validator.WithLogger(e.logger),
	)
	return e, nil
}

// Capability returns the configured intelligence capability.
func (e *Engine) Capability() capability.Analyzer {
	return e.capability
}

// LoadCanon reads the universe repository at root into a fact graph.
func (e *Engine) LoadCanon(root string) (*facts.Graph, error) {
	return canon.Open(root, canon.WithLogger(e.logger)).LoadGraph()
}

// Extract converts a story into the fact graph it establishes.
func (e *Engine) Extract(ctx context.Context, story string) (*extractor.Result, error) {
	return e.extractor.Extract(ctx, story)
}

// Plan reconciles incoming entities against the current ones.
func (e *Engine) Plan(ctx context.Context, current, incoming *facts.EntityGraph) (*planner.ChangeSet, error) {
	return e.planner.Plan(ctx, current, incoming)
}

// BuildChangeset proposes the file changes that absorb the incoming
// graph into the repository at root.
func (e *Engine) BuildChangeset(ctx context.Context, current, incoming *facts.Graph, root string) (*changeset.Changeset, error) {
	return e.builder.Build(ctx, current, incoming, root)
}

// Validate checks the incoming graph against the current canon.
func (e *Engine) Validate(ctx context.Context, current, incoming *facts.Graph) []validator.Issue {
	return e.validator.Validate(ctx, current, incoming)
}

// ProcessStory runs the full pipeline for one story against the
// repository at root: load the canon, extract facts, validate them,
// and build the changeset. Only extraction can fail; everything after
// it degrades into report content.
func (e *Engine) ProcessStory(ctx context.Context, story, root string) (*Report, error) {
	runID := uuid.NewString()
	ctx = logging.WithRun(logging.WithLogger(ctx, &e.logger), runID)
	logger := logging.FromContext(ctx)

	current, err := e.LoadCanon(root)
	if err != nil {
		return nil, err
	}

	extracted, err := e.Extract(ctx, story)
	if err != nil {
		return nil, err
	}
	incoming := extracted.Graph

	issues := e.Validate(ctx, current, incoming)

	proposed, err := e.BuildChangeset(ctx, current, incoming, root)
	if err != nil {
		return nil, err
	}

	report := newReport(runID, issues, proposed, extracted.Usage)
	report.Notes = append(report.Notes, summarizeRun(incoming, extracted.Attempts)...)

	logger.Info().
		Int("entities", len(incoming.Entities)).
		Int("events", len(incoming.Events)).
		Int("issues", len(report.Issues)).
		Int("files", len(proposed.Files)).
		Bool("ok", report.OK).
		Msg("story processed")
	return report, nil
}
