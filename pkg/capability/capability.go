// Package capability defines the intelligence capability contract the
// engine is polymorphic over. Every backend satisfies Analyzer; richer
// backends additionally implement JSONGenerator and MarkdownGenerator.
// Callers probe the optional interfaces with type assertions and
// degrade gracefully when they are absent, so a deterministic offline
// backend and a model-backed one are interchangeable.
//
// Example usage:
//
//	var cap capability.Analyzer = heuristic.New()
//	if gen, ok := cap.(capability.JSONGenerator); ok {
//	    result, err := gen.GenerateJSON(ctx, systemPrompt, userPrompt)
//	    ...
//	}
package capability

import "context"

// Analyzer is the base contract every backend satisfies. Analyse
// returns a structured judgement of the text for the requested aspect;
// Summarise returns a compact plain-text summary.
type Analyzer interface {
	Analyse(ctx context.Context, text, aspect string) (Result, error)
	Summarise(ctx context.Context, text string) (string, error)
}

// JSONGenerator is the optional structured-generation contract. The
// backend is expected to answer the user prompt with strict JSON
// shaped by the system prompt.
type JSONGenerator interface {
	GenerateJSON(ctx context.Context, system, user string) (Result, error)
}

// MarkdownGenerator is the optional prose-generation contract used for
// entity document bodies.
type MarkdownGenerator interface {
	GenerateMarkdown(ctx context.Context, instruction, context string) (string, error)
}

// Aspects recognized by the deterministic backend. Model-backed
// backends treat the aspect as a free-form hint.
const (
	AspectExtraction = "extraction"
	AspectFormat     = "format"
	AspectContinuity = "continuity"
	AspectTone       = "tone"
)

// Usage tracks token consumption across capability calls.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens" yaml:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens" yaml:"completion_tokens"`
	TotalTokens      int `json:"total_tokens" yaml:"total_tokens"`
}

// Add accumulates another usage record into this one.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// IsZero reports whether no tokens were recorded.
func (u Usage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}
