package canon

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/lorekeep/lorekeep/pkg/facts"
)

// Date key defaults. Undated lines sort last; a bare year sorts after
// every dated line of the same year, so "1342" lands below "1342-05-12".
// Season dates carry day 0 and open their part of the year.
const (
	defaultYear  = 9999
	defaultMonth = 12
	defaultDay   = 31
	seasonDay    = 0
)

// seasonMonths maps Czech and English season names onto a sortable
// month. Seasons are coarse; the month anchors them inside the year.
var seasonMonths = map[string]int{
	"jaro":   4,
	"spring": 4,
	"léto":   7,
	"leto":   7,
	"summer": 7,
	"podzim": 10,
	"autumn": 10,
	"fall":   10,
	"zima":   1,
	"winter": 1,
}

// lineGrammar splits a timeline line into an optional date and a title.
// Dates are either digit groups ("1342", "1342-05", "1342/5/12") or a
// season name followed by a year ("jaro 1202", "Spring 1202"). The
// separator between date and title may be a dash, an en/em dash, or a
// colon.
var lineGrammar = regexp.MustCompile(
	`^(?i)((?:\d{3,4}(?:[-/]\d{1,2}){0,2})|(?:jaro|léto|leto|podzim|zima|spring|summer|autumn|fall|winter)\s+\d{3,4})?\s*(?:[-–—:]\s*)?(.+)$`)

// DateKey orders timeline lines. Keys compare by year, month, day, then
// title slug, with missing components filled by the defaults above.
type DateKey struct {
	Year  int
	Month int
	Day   int
	Slug  string
}

// Less reports whether k sorts before other.
func (k DateKey) Less(other DateKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	if k.Month != other.Month {
		return k.Month < other.Month
	}
	if k.Day != other.Day {
		return k.Day < other.Day
	}
	return k.Slug < other.Slug
}

// DuplicateKey identifies a timeline line for dedup purposes: two lines
// with the same year and title slug describe the same occurrence even
// when their date precision differs ("1202" vs "jaro 1202").
type DuplicateKey struct {
	Year int
	Slug string
}

// Line is one parsed timeline entry.
type Line struct {
	Date  string // Date prefix verbatim, empty for undated lines
	Title string // Everything after the date and separator
	Raw   string // The original line, kept for round-tripping
}

// ParseLine parses a single timeline line. Blank lines and markdown
// headings are not timeline entries and return ok=false.
func ParseLine(raw string) (Line, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return Line{}, false
	}
	match := lineGrammar.FindStringSubmatch(trimmed)
	if match == nil {
		return Line{Title: trimmed, Raw: trimmed}, true
	}
	return Line{
		Date:  strings.TrimSpace(match[1]),
		Title: strings.TrimSpace(match[2]),
		Raw:   trimmed,
	}, true
}

// Key returns the line's sort key.
func (l Line) Key() DateKey {
	year, month, day := parseDate(l.Date)
	return DateKey{Year: year, Month: month, Day: day, Slug: facts.Slugify(l.Title)}
}

// Dup returns the line's duplicate-detection key.
func (l Line) Dup() DuplicateKey {
	year, _, _ := parseDate(l.Date)
	return DuplicateKey{Year: year, Slug: facts.Slugify(l.Title)}
}

// Event converts the line into a timeline event for the fact graph.
func (l Line) Event() facts.Event {
	return facts.Event{
		ID:    facts.Slugify(l.Title),
		Title: l.Title,
		Date:  l.Date,
	}
}

// parseDate resolves a date prefix into sortable components.
func parseDate(date string) (year, month, day int) {
	year, month, day = defaultYear, defaultMonth, defaultDay
	date = strings.ToLower(strings.TrimSpace(date))
	if date == "" {
		return year, month, day
	}

	fields := strings.Fields(date)
	if m, isSeason := seasonMonths[fields[0]]; isSeason {
		month, day = m, seasonDay
		if len(fields) > 1 {
			if y, err := strconv.Atoi(fields[1]); err == nil {
				year = y
			}
		}
		return year, month, day
	}

	parts := strings.FieldsFunc(date, func(r rune) bool { return r == '-' || r == '/' })
	for i, part := range parts {
		value, err := strconv.Atoi(part)
		if err != nil {
			break
		}
		switch i {
		case 0:
			year = value
		case 1:
			month = value
		case 2:
			day = value
		}
	}
	return year, month, day
}

// FormatEvent renders an event as a timeline line:
// "[date ]title[ @ location][ – description]".
func FormatEvent(ev facts.Event) string {
	var b strings.Builder
	if strings.TrimSpace(ev.Date) != "" {
		b.WriteString(strings.TrimSpace(ev.Date))
		b.WriteString(" ")
	}
	b.WriteString(strings.TrimSpace(ev.Title))
	if strings.TrimSpace(ev.Location) != "" {
		b.WriteString(" @ ")
		b.WriteString(strings.TrimSpace(ev.Location))
	}
	if strings.TrimSpace(ev.Description) != "" {
		b.WriteString(" – ")
		b.WriteString(strings.TrimSpace(ev.Description))
	}
	return b.String()
}

// TimelineDoc is a parsed timeline: heading lines before the first
// entry, the entries themselves, and any trailing non-entry lines.
type TimelineDoc struct {
	Header []string
	Lines  []Line
	Footer []string
}

// ParseTimeline parses full timeline content. Blank lines separate
// sections and are not preserved; Render reintroduces them.
func ParseTimeline(content string) *TimelineDoc {
	doc := &TimelineDoc{}
	for _, raw := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		line, ok := ParseLine(trimmed)
		if !ok {
			if len(doc.Lines) == 0 {
				doc.Header = append(doc.Header, trimmed)
			} else {
				doc.Footer = append(doc.Footer, trimmed)
			}
			continue
		}
		doc.Lines = append(doc.Lines, line)
	}
	return doc
}

// Contains reports whether the document already records the line,
// either verbatim or under the same duplicate key.
func (d *TimelineDoc) Contains(line Line) bool {
	dup := line.Dup()
	for _, existing := range d.Lines {
		if existing.Raw == line.Raw || existing.Dup() == dup {
			return true
		}
	}
	return false
}

// Sort orders the entries by date key, keeping input order for ties.
func (d *TimelineDoc) Sort() {
	sort.SliceStable(d.Lines, func(i, j int) bool {
		return d.Lines[i].Key().Less(d.Lines[j].Key())
	})
}

// Render reassembles the document: header, entries, footer, separated
// by single blank lines and ending with a trailing newline.
func (d *TimelineDoc) Render() string {
	var sections []string
	if len(d.Header) > 0 {
		sections = append(sections, strings.Join(d.Header, "\n"))
	}
	if len(d.Lines) > 0 {
		raws := make([]string, len(d.Lines))
		for i, line := range d.Lines {
			raws[i] = line.Raw
		}
		sections = append(sections, strings.Join(raws, "\n"))
	}
	if len(d.Footer) > 0 {
		sections = append(sections, strings.Join(d.Footer, "\n"))
	}
	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "\n\n") + "\n"
}
