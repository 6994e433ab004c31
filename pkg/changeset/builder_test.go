package changeset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lorekeep/lorekeep/pkg/canon"
	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/facts"
)

// apply writes a changeset to disk the way the CLI collaborator would.
func apply(t *testing.T, root string, cs *Changeset) {
	t.Helper()
	for _, file := range cs.Files {
		path := filepath.Join(root, filepath.FromSlash(file.Path))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(file.New), 0o644))
	}
}

func storyGraph() *facts.Graph {
	graph := &facts.Graph{
		Entities: []facts.Entity{
			{ID: "rytir_jan", Type: facts.EntityTypePerson, Labels: []string{"Rytíř Jan"}, Summary: "A knight sworn to the ford."},
			{ID: "hrad_kamenec", Type: facts.EntityTypePlace, Summary: "A castle above the river."},
		},
		Events: []facts.Event{
			{ID: "bitva_u_brodu", Title: "Bitva u brodu", Date: "1342", Location: "hrad_kamenec"},
		},
	}
	graph.Normalize()
	return graph
}

func TestBuildCreatesEntityDocsAndTimeline(t *testing.T) {
	root := t.TempDir()
	incoming := storyGraph()

	cs, err := New().Build(context.Background(), &facts.Graph{}, incoming, root)
	require.NoError(t, err)

	require.Len(t, cs.Files, 3)
	assert.Equal(t, "Planned updates for 3 universe file(s).", cs.Summary)
	assert.False(t, cs.Breaking)

	byPath := map[string]File{}
	for _, file := range cs.Files {
		byPath[file.Path] = file
	}

	jan := byPath["Objekty/rytir_jan.md"]
	assert.True(t, jan.IsNew())
	assert.Equal(t, "# rytir_jan\nA knight sworn to the ford.\n", jan.New)

	timeline := byPath["timeline.md"]
	assert.True(t, timeline.IsNew())
	assert.Contains(t, timeline.New, "1342 Bitva u brodu @ hrad_kamenec")
}

func TestBuildIdempotent(t *testing.T) {
	root := t.TempDir()
	incoming := storyGraph()

	first, err := New().Build(context.Background(), &facts.Graph{}, incoming, root)
	require.NoError(t, err)
	require.False(t, first.IsEmpty())
	apply(t, root, first)

	current, err := canon.Open(root).LoadGraph()
	require.NoError(t, err)

	second, err := New().Build(context.Background(), current, incoming, root)
	require.NoError(t, err)
	assert.True(t, second.IsEmpty(), "re-running the same story proposes nothing: %+v", second.Files)
	assert.Equal(t, "No universe files require updates.", second.Summary)
}

func TestBuildAppendsUpdateBlock(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Objekty"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "Objekty", "rytir_jan.md"),
		[]byte("# rytir_jan\nA knight sworn to the ford.\n"), 0o644))

	current := &facts.Graph{Entities: []facts.Entity{
		{ID: "rytir_jan", Type: facts.EntityTypePerson, Summary: "A knight sworn to the ford."},
	}}
	incoming := &facts.Graph{Entities: []facts.Entity{
		{ID: "rytir_jan", Type: facts.EntityTypePerson, Summary: "Later he held the castle."},
	}}

	cs, err := New().Build(context.Background(), current, incoming, root)
	require.NoError(t, err)

	require.Len(t, cs.Files, 1)
	file := cs.Files[0]
	assert.Equal(t, "Objekty/rytir_jan.md", file.Path)
	assert.False(t, file.IsNew())
	assert.True(t, strings.HasSuffix(file.New, "\n## Update\n\nLater he held the castle.\n"), "got %q", file.New)

	// A second pass with the update already on disk proposes nothing.
	apply(t, root, cs)
	again, err := New().Build(context.Background(), current, incoming, root)
	require.NoError(t, err)
	assert.True(t, again.IsEmpty())
}

func TestBuildUntouchedWithoutNewSummary(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Objekty"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "Objekty", "rytir_jan.md"),
		[]byte("# rytir_jan\nA knight.\n"), 0o644))

	current := &facts.Graph{Entities: []facts.Entity{{ID: "rytir_jan", Type: facts.EntityTypePerson}}}
	incoming := &facts.Graph{Entities: []facts.Entity{
		{ID: "rytir_jan", Type: facts.EntityTypePlace}, // type changed, no summary
	}}

	cs, err := New().Build(context.Background(), current, incoming, root)
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty())
}

func TestBuildTimelineDuplicateSuppression(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "timeline.md"),
		[]byte("# Timeline\n\nSpring 1202 Battle of Dawn\n"), 0o644))

	incoming := &facts.Graph{Events: []facts.Event{
		{ID: "battle_of_dawn", Title: "Battle of Dawn", Date: "1202"},
	}}

	cs, err := New().Build(context.Background(), &facts.Graph{}, incoming, root)
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty(), "same year and title is the same occurrence")
}

func TestBuildTimelineOrdering(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(root, "timeline.md"),
		[]byte("# Timeline\n\n1300 War of the Marches\n"), 0o644))

	incoming := &facts.Graph{Events: []facts.Event{
		{ID: "undated", Title: "Dávná legenda"},
		{ID: "founding", Title: "Founding of Kamenec", Date: "1100"},
	}}

	cs, err := New().Build(context.Background(), &facts.Graph{}, incoming, root)
	require.NoError(t, err)

	require.Len(t, cs.Files, 1)
	file := cs.Files[0]
	assert.Equal(t, "timeline.md", file.Path)
	assert.Equal(t, "# Timeline\n\n1100 Founding of Kamenec\n1300 War of the Marches\nDávná legenda\n", file.New)
}

// phrasingWriter rewrites entity prose via markdown generation.
type phrasingWriter struct {
	markdown string
	err      error
	calls    int
}

func (w *phrasingWriter) Analyse(context.Context, string, string) (capability.Result, error) {
	return capability.Result{}, nil
}

func (w *phrasingWriter) Summarise(context.Context, string) (string, error) {
	return "", nil
}

func (w *phrasingWriter) GenerateMarkdown(context.Context, string, string) (string, error) {
	w.calls++
	return w.markdown, w.err
}

func TestBuildWriterRewritesBody(t *testing.T) {
	writer := &phrasingWriter{markdown: "# Rytíř Jan\n\nA knight of the ford, sworn and stubborn."}
	incoming := &facts.Graph{Entities: []facts.Entity{
		{ID: "rytir_jan", Type: facts.EntityTypePerson, Summary: "A knight."},
	}}

	cs, err := New(WithWriter(writer)).Build(context.Background(), &facts.Graph{}, incoming, t.TempDir())
	require.NoError(t, err)

	require.Len(t, cs.Files, 1)
	assert.Equal(t, 1, writer.calls)
	assert.Equal(t, "# rytir_jan\nA knight of the ford, sworn and stubborn.\n", cs.Files[0].New,
		"writer heading stripped, engine heading kept")
}

func TestBuildWriterFailureKeepsRawSummary(t *testing.T) {
	writer := &phrasingWriter{err: assert.AnError}
	incoming := &facts.Graph{Entities: []facts.Entity{
		{ID: "rytir_jan", Type: facts.EntityTypePerson, Summary: "A knight."},
	}}

	cs, err := New(WithWriter(writer)).Build(context.Background(), &facts.Graph{}, incoming, t.TempDir())
	require.NoError(t, err)
	require.Len(t, cs.Files, 1)
	assert.Equal(t, "# rytir_jan\nA knight.\n", cs.Files[0].New)
}

func TestBuildEmptyIncoming(t *testing.T) {
	cs, err := New().Build(context.Background(), &facts.Graph{}, &facts.Graph{}, t.TempDir())
	require.NoError(t, err)
	assert.True(t, cs.IsEmpty())
	assert.Equal(t, "No universe files require updates.", cs.Summary)
}
