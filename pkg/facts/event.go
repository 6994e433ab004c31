package facts

import (
	"regexp"
	"strconv"
	"strings"
)

// yearPattern matches a standalone 3-4 digit year inside a free-form date.
var yearPattern = regexp.MustCompile(`\b(\d{3,4})\b`)

// Event is a single timeline occurrence.
type Event struct {
	ID           string   `json:"id" yaml:"id"`                                         // Slug identifier
	Title        string   `json:"title" yaml:"title"`                                   // Display title used on timeline lines
	Date         string   `json:"date,omitempty" yaml:"date,omitempty"`                 // Free-form in-universe date, kept verbatim
	Location     string   `json:"location,omitempty" yaml:"location,omitempty"`         // Entity id or free text
	Participants []string `json:"participants,omitempty" yaml:"participants,omitempty"` // Entity ids involved
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`   // Prose details
}

// Year extracts the first 3-4 digit year from the event date. The second
// return value reports whether a year was found.
func (ev Event) Year() (int, bool) {
	match := yearPattern.FindString(ev.Date)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return year, true
}

// normalize slugifies the id, deriving it from the title when missing,
// and trims the date. Events with neither id nor title normalize to an
// empty id and are dropped by Graph.Normalize.
func (ev *Event) normalize() {
	id := ev.ID
	if strings.TrimSpace(id) == "" {
		id = ev.Title
	}
	if strings.TrimSpace(id) == "" {
		ev.ID = ""
		return
	}
	ev.ID = Slugify(id)
	if strings.TrimSpace(ev.Title) == "" {
		ev.Title = ev.ID
	}
	ev.Date = strings.TrimSpace(ev.Date)
}
