// Package ollama provides an intelligence backend speaking to a local
// Ollama server over its /api/generate endpoint. Responses arrive as
// newline-delimited JSON chunks that are concatenated into the final
// text. The backend implements the full capability surface.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/lorekeep/lorekeep/pkg/capability"
	"github.com/lorekeep/lorekeep/pkg/constants"
	"github.com/lorekeep/lorekeep/pkg/errors"
)

// Backend is the name reported in errors and logs.
const Backend = "ollama"

// Client talks to a local Ollama server.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
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

// WithBaseURL overrides the default server URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient overrides the HTTP client, mainly for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New creates an Ollama-backed capability client.
func New(opts ...Option) *Client {
	c := &Client{
		baseURL: constants.DefaultOllamaURL,
		model:   constants.DefaultOllamaModel,
		httpClient: &http.Client{
			Timeout: constants.CapabilityTimeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// interface guards
var (
	_ capability.Analyzer          = (*Client)(nil)
	_ capability.JSONGenerator     = (*Client)(nil)
	_ capability.MarkdownGenerator = (*Client)(nil)
)

// Analyse sends the text to the model with the aspect as a task hint.
func (c *Client) Analyse(ctx context.Context, text, aspect string) (capability.Result, error) {
	system := "You analyse fictional stories for the aspect \"" + aspect + "\"."
	return c.generate(ctx, "analyse", system, text)
}

// Summarise asks the model for a compact plain-text summary.
func (c *Client) Summarise(ctx context.Context, text string) (string, error) {
	system := "Provide a concise summary (no more than 40 words) of the story. " +
		"Return plain text without bullet points."
	result, err := c.generate(ctx, "summarise", system, text)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Text()), nil
}

// GenerateMarkdown generates prose for the given instruction and
// optional context.
func (c *Client) GenerateMarkdown(ctx context.Context, instruction, context string) (string, error) {
	user := instruction
	if context != "" {
		user = instruction + "\n\nCONTEXT:\n" + context
	}
	result, err := c.generate(ctx, "generate_markdown", "", user)
	if err != nil {
		return "", err
	}
	return result.Text(), nil
}

// GenerateJSON asks the model for a strict JSON answer shaped by the
// system prompt.
func (c *Client) GenerateJSON(ctx context.Context, system, user string) (capability.Result, error) {
	return c.generate(ctx, "generate_json", system, user)
}

// generateRequest is the Ollama /api/generate request body.
type generateRequest struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
	Prompt string `json:"prompt"`
}

// generateChunk is one NDJSON line of the streamed response.
type generateChunk struct {
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
}

// generate performs one call against /api/generate and drains the
// stream into a single text result.
func (c *Client) generate(ctx context.Context, operation, system, prompt string) (capability.Result, error) {
	body, err := json.Marshal(generateRequest{
		Model:  c.model,
		System: system,
		Prompt: prompt,
	})
	if err != nil {
		return capability.Result{}, errors.WrapCapability(Backend, operation, err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return capability.Result{}, errors.WrapCapability(Backend, operation, err)
	}
	request.Header.Set("Content-Type", "application/json")

	response, err := c.httpClient.Do(request)
	if err != nil {
		return capability.Result{}, errors.WrapCapability(Backend, operation, err)
	}
	defer func() { _ = response.Body.Close() }()

	if response.StatusCode != http.StatusOK {
		return capability.Result{}, errors.NewAPIError(Backend, response.StatusCode, "generate request rejected")
	}

	text, usage, err := drainStream(response.Body)
	if err != nil {
		return capability.Result{}, errors.WrapCapability(Backend, operation, err)
	}
	if text == "" {
		return capability.Result{}, errors.NewCapabilityError(Backend, operation, errors.New("server returned no output"))
	}
	return capability.TextResult(text, usage), nil
}

// drainStream concatenates the response fields of the NDJSON chunks
// until the final done chunk, which carries the eval counts.
func drainStream(r io.Reader) (string, capability.Usage, error) {
	var builder strings.Builder
	var usage capability.Usage

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk generateChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		builder.WriteString(chunk.Response)
		if chunk.Done {
			usage = capability.Usage{
				PromptTokens:     chunk.PromptEvalCount,
				CompletionTokens: chunk.EvalCount,
				TotalTokens:      chunk.PromptEvalCount + chunk.EvalCount,
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return "", capability.Usage{}, err
	}
	return builder.String(), usage, nil
}
