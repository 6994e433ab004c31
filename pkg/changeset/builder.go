package changeset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/pkg/canon"
	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/facts"
	"github.com/lorekeep/lorekeep/pkg/logging"
	"github.com/lorekeep/lorekeep/pkg/planner"
)

// Writer instructions. The writer is asked for plain prose; any heading
// it returns anyway is stripped.
const (
	describeInstruction = "Write a short markdown description of this entity for a universe encyclopedia. Do not include a heading."
	updateInstruction   = "Write one short paragraph recording what the new information adds about this entity. Do not include a heading."
)

// Builder computes file changesets. It reads the canon repository but
// never writes to it.
type Builder struct {
	writer capability.Analyzer
	logger zerolog.Logger
}

// Option configures the builder.
type Option func(*Builder)

// WithWriter supplies the capability used to phrase entity documents
// and to drive the planner's ambiguous-match phase. Without one the
// builder writes summaries verbatim and plans deterministically.
func WithWriter(writer capability.Analyzer) Option {
	return func(b *Builder) {
		b.writer = writer
	}
}

// WithLogger sets the logger used for degradation diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

// New creates a builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		logger: logging.Nop,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build reconciles the incoming graph against the current one and
// proposes the file changes that absorb it into the repository at
// repoRoot: one document per created or revised entity under Objekty,
// plus a timeline merge when the story adds events.
func (b *Builder) Build(ctx context.Context, current, incoming *facts.Graph, repoRoot string) (*Changeset, error) {
	repo := canon.Open(repoRoot, canon.WithLogger(b.logger))
	plan := b.plan(ctx, current, incoming)

	var files []File
	for _, op := range plan.Operations {
		var (
			file File
			ok   bool
		)
		switch op.Type {
		case planner.OperationCreate:
			file, ok = b.entityCreate(ctx, repo, *op.Create)
		case planner.OperationUpdate:
			file, ok = b.entityUpdate(ctx, repo, *op.Update)
		}
		if ok {
			files = append(files, file)
		}
	}

	if file, ok := b.timelineFile(repo, incoming); ok {
		files = append(files, file)
	}

	return &Changeset{Files: files, Summary: summarize(len(files))}, nil
}

// plan runs the reconciliation planner on the entity projections. A
// planner failure degrades to treating every incoming entity as a
// creation rather than failing the build.
func (b *Builder) plan(ctx context.Context, current, incoming *facts.Graph) *planner.ChangeSet {
	opts := []planner.Option{planner.WithLogger(b.logger)}
	if b.writer != nil {
		opts = append(opts, planner.WithCapability(b.writer))
	}
	plan, err := planner.New(opts...).Plan(ctx, current.EntityGraph(), incoming.EntityGraph())
	if err == nil {
		return plan
	}

	b.logger.Warn().Err(err).Msg("planning failed, treating every incoming entity as new")
	fallback := &planner.ChangeSet{}
	for _, entity := range incoming.EntityGraph().Entities {
		entity := entity
		fallback.Operations = append(fallback.Operations, planner.Operation{
			Type:   planner.OperationCreate,
			Create: &entity,
		})
	}
	return fallback
}

// entityCreate proposes the document for a newly introduced entity.
// When the document already exists on disk the creation degrades to an
// update append, so a stale plan never clobbers canon content.
func (b *Builder) entityCreate(ctx context.Context, repo *canon.Repository, entity facts.Entity) (File, bool) {
	relPath := canon.EntityDocPath(entity.ID)
	old, exists := readRepoFile(repo.Root(), relPath)
	if exists {
		return b.appendUpdate(ctx, relPath, old, entity)
	}

	body := strings.TrimSpace(entity.Summary)
	if body != "" {
		body = b.compose(ctx, describeInstruction, entity, body)
	}

	content := "# " + entity.ID + "\n"
	if body != "" {
		content += body + "\n"
	} else {
		content += "\n"
	}
	return File{Path: relPath, Old: "", New: content}, true
}

// entityUpdate proposes the revision of an existing entity document.
// Without a new summary the document is left untouched; a missing
// document falls back to creating it from the merged snapshot.
func (b *Builder) entityUpdate(ctx context.Context, repo *canon.Repository, update facts.EntityUpdate) (File, bool) {
	relPath := canon.EntityDocPath(update.ID)
	old, exists := readRepoFile(repo.Root(), relPath)
	if !exists {
		merged := update.Merged()
		return b.entityCreate(ctx, repo, merged)
	}
	if strings.TrimSpace(update.Incoming.Summary) == "" {
		return File{}, false
	}
	return b.appendUpdate(ctx, relPath, old, update.Merged())
}

// appendUpdate adds an "## Update" block to an existing document unless
// the document already records the same text, either as its trailing
// update block or as its body.
func (b *Builder) appendUpdate(ctx context.Context, relPath, old string, entity facts.Entity) (File, bool) {
	text := strings.TrimSpace(entity.Summary)
	if text == "" {
		return File{}, false
	}
	text = b.compose(ctx, updateInstruction, entity, text)

	block := "## Update\n\n" + text
	if strings.HasSuffix(strings.TrimSpace(old), block) {
		return File{}, false
	}
	if docBody(old) == text {
		return File{}, false
	}

	content := old
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += "\n" + block + "\n"
	return File{Path: relPath, Old: old, New: content}, true
}

// compose asks the writer to phrase the text when markdown generation
// is available, falling back to the raw text on any failure.
func (b *Builder) compose(ctx context.Context, instruction string, entity facts.Entity, fallback string) string {
	writer, ok := b.writer.(capability.MarkdownGenerator)
	if !ok {
		return fallback
	}
	generated, err := writer.GenerateMarkdown(ctx, instruction, entityContext(entity))
	if err != nil {
		b.logger.Warn().Err(err).Str("entity", entity.ID).Msg("markdown generation failed, keeping raw summary")
		return fallback
	}
	generated = strings.TrimSpace(stripLeadingHeading(generated))
	if generated == "" {
		return fallback
	}
	return generated
}

// timelineFile merges the incoming events into the repository timeline.
// Events already present, verbatim or under the same duplicate key, are
// skipped; with nothing new to add the timeline stays untouched.
func (b *Builder) timelineFile(repo *canon.Repository, incoming *facts.Graph) (File, bool) {
	if incoming == nil || len(incoming.Events) == 0 {
		return File{}, false
	}

	content, relPath, found := repo.Timeline()
	doc := canon.ParseTimeline(content)

	added := false
	for _, event := range incoming.Events {
		line, ok := canon.ParseLine(canon.FormatEvent(event))
		if !ok || doc.Contains(line) {
			continue
		}
		doc.Lines = append(doc.Lines, line)
		added = true
	}
	if !added {
		return File{}, false
	}

	doc.Sort()
	rendered := doc.Render()

	old := content
	if !found {
		old = ""
	}
	if rendered == old {
		return File{}, false
	}
	return File{Path: relPath, Old: old, New: rendered}, true
}

// entityContext serializes an entity for writer prompts.
func entityContext(entity facts.Entity) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %s\n", entity.ID)
	fmt.Fprintf(&b, "name: %s\n", entity.Label())
	fmt.Fprintf(&b, "type: %s\n", entity.Type)
	if len(entity.Labels) > 1 {
		fmt.Fprintf(&b, "also known as: %s\n", strings.Join(entity.Labels[1:], ", "))
	}
	if strings.TrimSpace(entity.Summary) != "" {
		fmt.Fprintf(&b, "summary: %s\n", strings.TrimSpace(entity.Summary))
	}
	for key, value := range entity.Attributes {
		fmt.Fprintf(&b, "%s: %v\n", key, value)
	}
	return b.String()
}

// docBody extracts the plain body of an entity document: the text after
// the H1 heading up to the first section heading.
func docBody(content string) string {
	var lines []string
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if strings.HasPrefix(line, "##") {
			break
		}
		if strings.HasPrefix(line, "#") || line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " ")
}

// stripLeadingHeading drops a leading markdown heading line and the
// blank lines after it.
func stripLeadingHeading(text string) string {
	trimmed := strings.TrimLeft(text, "\n ")
	if !strings.HasPrefix(trimmed, "#") {
		return text
	}
	_, rest, found := strings.Cut(trimmed, "\n")
	if !found {
		return ""
	}
	return strings.TrimLeft(rest, "\n")
}

// readRepoFile reads one repository-relative file, reporting whether it
// exists.
func readRepoFile(root, relPath string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
	if err != nil {
		return "", false
	}
	return string(data), true
}
