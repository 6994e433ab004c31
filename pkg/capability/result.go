package capability

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/lorekeep/lorekeep/pkg/errors"
)

// Result is the tagged union a capability call returns. Depending on
// the backend the payload arrives either as raw model text or as an
// already-parsed structure; Decode resolves the union exactly once at
// the boundary so the rest of the pipeline never branches on shape.
type Result struct {
	text   string
	parsed any
	isText bool

	// Usage carries token accounting for the call when the backend
	// reports it.
	Usage Usage
}

// TextResult wraps raw model output.
func TextResult(text string, usage Usage) Result {
	return Result{text: text, isText: true, Usage: usage}
}

// ParsedResult wraps an already-structured value.
func ParsedResult(value any, usage Usage) Result {
	return Result{parsed: value, Usage: usage}
}

// IsText reports whether the result carries raw text.
func (r Result) IsText() bool {
	return r.isText
}

// Text returns the raw text arm, empty for parsed results.
func (r Result) Text() string {
	return r.text
}

// Decode unmarshals the result into v. Text results are cleaned of
// markdown fences and surrounding prose before parsing; parsed results
// are re-marshaled so v sees the same shape either way.
func (r Result) Decode(v any) error {
	if r.isText {
		cleaned := CleanJSON(r.text)
		if cleaned == "" {
			return errors.NewParseError("json", "", "empty response payload", nil)
		}
		if err := json.Unmarshal([]byte(cleaned), v); err != nil {
			return errors.WrapParse("json", "", err)
		}
		return nil
	}

	raw, err := json.Marshal(r.parsed)
	if err != nil {
		return errors.WrapParse("json", "", err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return errors.WrapParse("json", "", err)
	}
	return nil
}

// fencedJSON matches a markdown-fenced JSON block, tolerating a
// language tag after the opening fence.
var fencedJSON = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\}|\\[[\\s\\S]*?\\])\\s*```")

// CleanJSON trims a raw model response down to its outermost JSON
// value. Fenced blocks win; otherwise everything before the first
// opening brace or bracket and after the last closing one is dropped.
func CleanJSON(raw string) string {
	if raw == "" {
		return ""
	}

	if match := fencedJSON.FindStringSubmatch(raw); match != nil {
		return strings.TrimSpace(match[1])
	}

	cleaned := strings.TrimSpace(raw)
	if start := strings.IndexAny(cleaned, "{["); start >= 0 {
		cleaned = cleaned[start:]
	} else {
		return ""
	}
	if end := strings.LastIndexAny(cleaned, "}]"); end >= 0 {
		cleaned = cleaned[:end+1]
	} else {
		return ""
	}
	return strings.TrimSpace(cleaned)
}
