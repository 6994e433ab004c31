package canon

import _ "embed"

// scaffoldTimeline is the timeline served for repositories that have no
// timeline file yet, so the first changeset can create one.
//
//go:embed scaffold/timeline.md
var scaffoldTimeline string

// ScaffoldTimeline returns the bundled empty-timeline content.
func ScaffoldTimeline() string {
	return scaffoldTimeline
}
