// Package canon reads a universe repository from disk: entity documents,
// legend documents, and the shared timeline. It also owns the timeline
// grammar the changeset builder uses when it merges new events, so both
// sides agree on what a timeline line means.
//
// Layout of a canon repository:
//
//	Objekty/<slug>.md   one document per entity, H1 is the entity id
//	Legendy/*.md        legend documents, bullet lines are core truths
//	timeline.md         the shared timeline (timeline.txt also accepted)
package canon

import (
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/lorekeep/lorekeep/pkg/facts"
	"github.com/lorekeep/lorekeep/pkg/logging"
)

// Directory and file names of the canon layout. The Czech names are the
// convention the universe repositories established; the engine treats
// them as opaque identifiers.
const (
	EntitiesDir = "Objekty"
	LegendsDir  = "Legendy"
)

// timelineCandidates lists the accepted timeline file names in lookup
// order.
var timelineCandidates = []string{"timeline.md", "timeline.txt"}

// EntityDocPath returns the repository-relative path of an entity
// document. Paths use forward slashes regardless of platform.
func EntityDocPath(id string) string {
	return path.Join(EntitiesDir, facts.Slugify(id)+".md")
}

// Repository is a read-only view over a canon repository root.
type Repository struct {
	root   string
	logger zerolog.Logger
}

// Option configures a repository view.
type Option func(*Repository)

// WithLogger sets the logger used when files are skipped.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Repository) {
		r.logger = logger
	}
}

// Open creates a repository view rooted at the given directory. The root
// does not need to exist; a missing repository loads as an empty graph
// and serves the bundled timeline scaffold.
func Open(root string, opts ...Option) *Repository {
	r := &Repository{
		root:   root,
		logger: logging.Nop,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Root returns the repository root path.
func (r *Repository) Root() string {
	return r.root
}

// Timeline returns the timeline content and its repository-relative
// path. When no timeline file exists the bundled scaffold is returned
// under the default name with found=false, so callers always have
// something to merge into and still know the file is new.
func (r *Repository) Timeline() (content, relPath string, found bool) {
	for _, name := range timelineCandidates {
		data, err := os.ReadFile(filepath.Join(r.root, name))
		if err == nil {
			return string(data), name, true
		}
		if !os.IsNotExist(err) {
			r.logger.Warn().Err(err).Str("file", name).Msg("skipping unreadable timeline")
		}
	}
	return ScaffoldTimeline(), timelineCandidates[0], false
}
