package canon

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/lorekeep/lorekeep/pkg/errors"
	"github.com/lorekeep/lorekeep/pkg/facts"
)

// frontMatter is the optional YAML block at the top of an entity
// document, delimited by "---" lines.
type frontMatter struct {
	Type       string         `yaml:"type"`
	Labels     []string       `yaml:"labels"`
	Summary    string         `yaml:"summary"`
	Attributes map[string]any `yaml:"attributes"`
}

// LoadGraph reads the whole repository into a fact graph: entity docs
// from Objekty, legend docs from Legendy (as concept entities plus core
// truths), and the timeline as events. Missing directories yield an
// empty graph; unreadable or malformed files are logged and skipped so
// one broken document never hides the rest of the canon.
func (r *Repository) LoadGraph() (*facts.Graph, error) {
	if info, err := os.Stat(r.root); err == nil && !info.IsDir() {
		return nil, errors.NewIOError("open", r.root, errors.ErrInvalidInput)
	}

	graph := &facts.Graph{}

	for _, name := range r.listDocs(EntitiesDir) {
		content, ok := r.readDoc(EntitiesDir, name)
		if !ok {
			continue
		}
		entity, err := parseEntityDoc(name, content)
		if err != nil {
			r.logger.Warn().Err(err).Str("file", name).Msg("skipping malformed entity doc")
			continue
		}
		graph.Entities = append(graph.Entities, entity)
	}

	for _, name := range r.listDocs(LegendsDir) {
		content, ok := r.readDoc(LegendsDir, name)
		if !ok {
			continue
		}
		entity, truths := parseLegendDoc(name, content)
		graph.Entities = append(graph.Entities, entity)
		graph.CoreTruths = append(graph.CoreTruths, truths...)
	}

	if content, _ := r.timelineIfPresent(); content != "" {
		for _, line := range ParseTimeline(content).Lines {
			graph.Events = append(graph.Events, line.Event())
		}
	}

	graph.Normalize()
	return graph, nil
}

// listDocs returns the markdown file names of a canon subdirectory,
// empty when the directory does not exist.
func (r *Repository) listDocs(dir string) []string {
	entries, err := os.ReadDir(filepath.Join(r.root, dir))
	if err != nil {
		if !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("dir", dir).Msg("skipping unreadable canon directory")
		}
		return nil
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		names = append(names, entry.Name())
	}
	return names
}

// readDoc reads one canon document, logging and skipping on failure.
func (r *Repository) readDoc(dir, name string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(r.root, dir, name))
	if err != nil {
		r.logger.Warn().Err(err).Str("file", name).Msg("skipping unreadable canon doc")
		return "", false
	}
	return string(data), true
}

// timelineIfPresent returns the on-disk timeline only; the scaffold is
// not part of the loaded graph.
func (r *Repository) timelineIfPresent() (content, relPath string) {
	for _, name := range timelineCandidates {
		data, err := os.ReadFile(filepath.Join(r.root, name))
		if err == nil {
			return string(data), name
		}
	}
	return "", ""
}

// parseEntityDoc converts one Objekty document into an entity. The H1
// heading names the entity id; front matter supplies type, labels, and
// attributes; the first body paragraph becomes the summary unless the
// front matter carries one.
func parseEntityDoc(filename, content string) (facts.Entity, error) {
	meta, body, err := splitFrontMatter(content)
	if err != nil {
		return facts.Entity{}, err
	}

	entity := facts.Entity{
		ID:         facts.Slugify(strings.TrimSuffix(filename, ".md")),
		Type:       facts.ParseEntityType(meta.Type),
		Labels:     meta.Labels,
		Summary:    strings.TrimSpace(meta.Summary),
		Attributes: meta.Attributes,
	}
	if entity.Attributes == nil {
		entity.Attributes = map[string]any{}
	}

	heading, paragraph := firstHeadingAndParagraph(body)
	if heading != "" {
		entity.ID = facts.Slugify(heading)
	}
	if entity.Summary == "" {
		entity.Summary = paragraph
	}
	return entity, nil
}

// parseLegendDoc converts one Legendy document into a concept entity
// plus the core truths its bullet lines state.
func parseLegendDoc(filename, content string) (facts.Entity, []string) {
	id := facts.Slugify(strings.TrimSuffix(filename, ".md"))
	entity := facts.Entity{
		ID:         id,
		Type:       facts.EntityTypeConcept,
		Attributes: map[string]any{},
	}

	var truths []string
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if heading, ok := strings.CutPrefix(line, "# "); ok && len(entity.Labels) == 0 {
			entity.Labels = []string{strings.TrimSpace(heading)}
			continue
		}
		bullet, ok := strings.CutPrefix(line, "- ")
		if !ok {
			bullet, ok = strings.CutPrefix(line, "* ")
		}
		if !ok {
			continue
		}
		if truth := strings.TrimSpace(bullet); truth != "" {
			truths = append(truths, truth)
		}
	}
	return entity, truths
}

// splitFrontMatter separates an optional leading YAML block from the
// markdown body.
func splitFrontMatter(content string) (frontMatter, string, error) {
	var meta frontMatter
	trimmed := strings.TrimPrefix(content, "\uFEFF")
	if !strings.HasPrefix(trimmed, "---\n") && trimmed != "---" {
		return meta, content, nil
	}
	rest := strings.TrimPrefix(trimmed, "---\n")
	block, body, found := strings.Cut(rest, "\n---")
	if !found {
		return meta, content, nil
	}
	if err := yaml.Unmarshal([]byte(block), &meta); err != nil {
		return meta, "", errors.WrapParse("yaml", "front matter", err)
	}
	body = strings.TrimPrefix(body, "\n")
	return meta, body, nil
}

// firstHeadingAndParagraph scans a markdown body for its H1 text and
// the first plain paragraph after it. Update sections and other
// headings end the paragraph scan.
func firstHeadingAndParagraph(body string) (heading, paragraph string) {
	var lines []string
	for _, raw := range strings.Split(body, "\n") {
		line := strings.TrimSpace(raw)
		if h1, ok := strings.CutPrefix(line, "# "); ok && heading == "" {
			heading = strings.TrimSpace(h1)
			continue
		}
		if strings.HasPrefix(line, "#") {
			if len(lines) > 0 {
				break
			}
			continue
		}
		if line == "" {
			if len(lines) > 0 {
				break
			}
			continue
		}
		lines = append(lines, line)
	}
	return heading, strings.Join(lines, " ")
}
