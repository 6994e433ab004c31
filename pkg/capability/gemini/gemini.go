// Package gemini provides the model-backed intelligence backend on top
// of the Google GenAI SDK. It implements the full capability surface:
// Analyzer, JSONGenerator, and MarkdownGenerator.
//
// The client owns its own rate limiting: every request blocks on a
// token-bucket limiter until a quota slot is free, so callers never
// need to pace themselves.
package gemini

import (
	"context"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/constants"
	"github.com/lorekeep/lorekeep/pkg/errors"
)

// Backend is the name reported in errors and logs.
const Backend = "gemini"

// Client talks to the Gemini API through the official GenAI SDK.
type Client struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

// Option configures the client.
type Option func(*Client)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithRateLimit overrides the default requests-per-minute budget.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute > 0 {
			c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), constants.BurstSize)
		}
	}
}

// New creates a Gemini-backed capability client.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, errors.ErrAPIKeyRequired
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.WrapCapability(Backend, "init", err)
	}

	c := &Client{
		client:  client,
		model:   constants.DefaultGeminiModel,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(constants.DefaultRateLimit)), constants.BurstSize),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// interface guards
var (
	_ capability.Analyzer          = (*Client)(nil)
	_ capability.JSONGenerator     = (*Client)(nil)
	_ capability.MarkdownGenerator = (*Client)(nil)
)

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Analyse sends the text to the model with the aspect as a task hint.
func (c *Client) Analyse(ctx context.Context, text, aspect string) (capability.Result, error) {
	prompt := "Analyse the following story for the aspect \"" + aspect + "\".\n\n" + text
	return c.generate(ctx, "analyse", prompt, nil)
}

// Summarise asks the model for a compact plain-text summary.
func (c *Client) Summarise(ctx context.Context, text string) (string, error) {
	instruction := "Provide a concise summary (no more than 40 words) of the following story. " +
		"Return plain text without bullet points."
	summary, err := c.GenerateMarkdown(ctx, instruction, text)
	if err != nil {
		return "", err
	}
	return summary, nil
}

// GenerateMarkdown generates prose for the given instruction and
// optional context.
func (c *Client) GenerateMarkdown(ctx context.Context, instruction, context string) (string, error) {
	prompt := instruction
	if context != "" {
		prompt = instruction + "\n\nCONTEXT:\n" + context
	}
	result, err := c.generate(ctx, "generate_markdown", prompt, nil)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// GenerateJSON asks the model for a strict JSON answer shaped by the
// system prompt.
func (c *Client) GenerateJSON(ctx context.Context, system, user string) (capability.Result, error) {
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return c.generate(ctx, "generate_json", user, config)
}

// generate performs one rate-limited model call.
func (c *Client) generate(ctx context.Context, operation, prompt string, config *genai.GenerateContentConfig) (capability.Result, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return capability.Result{}, errors.WrapCapability(Backend, operation, err)
	}

	response, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return capability.Result{}, errors.WrapCapability(Backend, operation, err)
	}

	return capability.TextResult(response.Text(), usageOf(response)), nil
}

// usageOf maps SDK usage metadata onto the capability usage record.
func usageOf(response *genai.GenerateContentResponse) capability.Usage {
	if response == nil || response.UsageMetadata == nil {
		return capability.Usage{}
	}
	meta := response.UsageMetadata
	return capability.Usage{
		PromptTokens:     int(meta.PromptTokenCount),
		CompletionTokens: int(meta.CandidatesTokenCount),
		TotalTokens:      int(meta.TotalTokenCount),
	}
}
