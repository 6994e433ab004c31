// Package heuristic provides the deterministic, offline intelligence
// backend. It implements only capability.Analyzer, so JSON- and
// markdown-dependent features of the engine degrade to their documented
// fallbacks when this backend is in use.
package heuristic

import (
	"context"
	"regexp"
	"strings"
	"unicode"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/constants"
)

// Backend is the name reported in errors and logs.
const Backend = "heuristic"

// Report is the structured analysis the heuristic backend returns for
// non-extraction aspects.
type Report struct {
	Aspect    string   `json:"aspect"`
	Passed    bool     `json:"passed"`
	Messages  []string `json:"messages"`
	WordCount int      `json:"word_count"`
}

// Adapter performs deterministic checks without any network access.
type Adapter struct{}

// New creates a heuristic adapter.
func New() *Adapter {
	return &Adapter{}
}

// interface guard: the heuristic backend is deliberately Analyzer-only.
var _ capability.Analyzer = (*Adapter)(nil)

// Analyse runs the deterministic check for the requested aspect.
func (a *Adapter) Analyse(_ context.Context, text, aspect string) (capability.Result, error) {
	cleaned := strings.TrimSpace(text)
	aspect = strings.ToLower(strings.TrimSpace(aspect))

	if aspect == capability.AspectExtraction {
		return capability.ParsedResult(sketchFacts(cleaned), capability.Usage{}), nil
	}

	wordCount := len(strings.Fields(cleaned))
	passed := cleaned != ""
	messages := []string{}

	if cleaned == "" {
		messages = append(messages, "Story content is empty.")
	} else if wordCount < constants.MinStoryWords {
		messages = append(messages, "Story is very short; consider expanding for richer detail.")
		if aspect != capability.AspectFormat {
			passed = false
		}
	}

	switch aspect {
	case capability.AspectFormat:
		for _, line := range strings.Split(cleaned, "\n") {
			if len(line) > constants.MaxLineLength {
				messages = append(messages, "Some lines exceed the readable length limit.")
				passed = false
				break
			}
		}
	case capability.AspectContinuity:
		paragraphs := 0
		if cleaned != "" {
			paragraphs = strings.Count(cleaned, "\n\n") + 1
		}
		if paragraphs < constants.MinParagraphs {
			messages = append(messages, "Continuity check suggests adding more than one paragraph.")
			passed = false
		}
	case capability.AspectTone:
		if uppercaseRatio(cleaned) > constants.UppercaseRatioLimit {
			messages = append(messages, "Tone analysis detected excessive uppercase usage.")
			passed = false
		}
	default:
		messages = append(messages, "No specific heuristics for this aspect; marking as informational only.")
	}

	report := Report{
		Aspect:    aspect,
		Passed:    passed,
		Messages:  messages,
		WordCount: wordCount,
	}
	return capability.ParsedResult(report, capability.Usage{}), nil
}

// Summarise returns the first words of the story as a plain summary.
func (a *Adapter) Summarise(_ context.Context, text string) (string, error) {
	words := strings.Fields(strings.TrimSpace(text))
	if len(words) == 0 {
		return "Empty story", nil
	}
	if len(words) <= constants.MaxSummaryWords {
		return strings.Join(words, " "), nil
	}
	return strings.Join(words[:constants.MaxSummaryWords], " ") + "…", nil
}

// uppercaseRatio reports the fraction of letters that are uppercase.
func uppercaseRatio(text string) float64 {
	letters, uppers := 0, 0
	for _, r := range text {
		if !unicode.IsLetter(r) {
			continue
		}
		letters++
		if unicode.IsUpper(r) {
			uppers++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(uppers) / float64(letters)
}

// yearToken matches a standalone 3-4 digit year on a story line.
var yearToken = regexp.MustCompile(`\b\d{3,4}\b`)

// sketchFacts builds a naive fact payload from capitalized tokens so
// the offline pipeline still produces a non-empty graph. Runs of
// capitalized words become entity names; lines carrying a year become
// events.
func sketchFacts(text string) map[string]any {
	entities := []map[string]any{}
	seen := map[string]struct{}{}
	for _, name := range capitalizedRuns(text) {
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		entities = append(entities, map[string]any{
			"name": name,
			"type": "other",
		})
	}

	events := []map[string]any{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		year := yearToken.FindString(line)
		if year == "" {
			continue
		}
		events = append(events, map[string]any{
			"title": line,
			"date":  year,
		})
	}

	return map[string]any{
		"entities": entities,
		"events":   events,
	}
}

// capitalizedRuns extracts runs of consecutive capitalized words,
// skipping the first word of each sentence to avoid plain
// sentence-initial capitalization.
func capitalizedRuns(text string) []string {
	var names []string
	for _, line := range strings.Split(text, "\n") {
		var run []string
		sentenceStart := true
		for _, word := range strings.Fields(line) {
			trimmed := strings.TrimFunc(word, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsNumber(r)
			})
			endsSentence := strings.ContainsAny(word, ".!?")
			if trimmed == "" {
				sentenceStart = endsSentence || sentenceStart
				continue
			}
			first := []rune(trimmed)[0]
			if unicode.IsUpper(first) && !sentenceStart {
				run = append(run, trimmed)
			} else {
				if len(run) > 0 {
					names = append(names, strings.Join(run, " "))
					run = nil
				}
			}
			sentenceStart = endsSentence
		}
		if len(run) > 0 {
			names = append(names, strings.Join(run, " "))
		}
	}
	return names
}
