// Package changeset turns a reconciliation plan into concrete file
// edits against a canon repository. The builder only proposes: it reads
// the repository to compute old/new content pairs and leaves applying
// them to the caller.
package changeset

import "fmt"

// File is one proposed file change. Old is the current content, empty
// when the file does not exist yet; New is the proposed content. The
// builder never emits a File with Old == New.
type File struct {
	Path string `json:"path" yaml:"path"` // Repository-relative, forward slashes
	Old  string `json:"old" yaml:"old"`
	New  string `json:"new" yaml:"new"`
}

// IsNew reports whether the change creates a file.
func (f File) IsNew() bool {
	return f.Old == ""
}

// Changeset is the full set of proposed file changes for one story.
type Changeset struct {
	Files   []File `json:"files" yaml:"files"`
	Summary string `json:"summary" yaml:"summary"`
	// Breaking is reserved for future severity signaling; builders
	// always leave it false today.
	Breaking bool `json:"breaking" yaml:"breaking"`
}

// IsEmpty reports whether the changeset proposes no file changes.
func (cs *Changeset) IsEmpty() bool {
	return cs == nil || len(cs.Files) == 0
}

// summarize produces the human-readable summary line for n changed
// files.
func summarize(n int) string {
	if n == 0 {
		return "No universe files require updates."
	}
	return fmt.Sprintf("Planned updates for %d universe file(s).", n)
}
