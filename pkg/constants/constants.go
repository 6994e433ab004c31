// Package constants provides shared constants used throughout the lorekeep codebase.
// This includes timeouts, limits, file permissions, and other configuration values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to model APIs
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultTimeout is the standard timeout for general operations
	DefaultTimeout = 10 * time.Second

	// CapabilityTimeout is the timeout for a single intelligence capability call
	CapabilityTimeout = 2 * time.Minute

	// CommandTimeout is the default timeout for CLI commands
	CommandTimeout = 10 * time.Minute

	// RetryBackoff is the base backoff duration for retries
	RetryBackoff = 1 * time.Second

	// MaxRetryBackoff is the maximum backoff duration for retries
	MaxRetryBackoff = 30 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like API keys (rw-------)
	SecureFilePermissions = 0600
)

// Extraction constants govern the fact extraction retry loop
const (
	// MaxExtractionAttempts is the total number of model calls allowed per
	// extraction, including the corrective retry
	MaxExtractionAttempts = 2

	// MaxSummaryWords is the word budget for heuristic summaries
	MaxSummaryWords = 20

	// MaxPayloadSnippet is the number of payload bytes retained on
	// extraction failures for logging
	MaxPayloadSnippet = 512
)

// Analysis constants tune the deterministic heuristic checks
const (
	// MaxLineLength is the longest line a story may carry before the
	// format aspect flags it
	MaxLineLength = 240

	// MinStoryWords is the shortest story the length aspect accepts silently
	MinStoryWords = 50

	// MinParagraphs is the paragraph count below which the continuity
	// aspect reports an issue
	MinParagraphs = 2

	// UppercaseRatioLimit is the fraction of uppercase letters above which
	// the tone aspect flags shouting
	UppercaseRatioLimit = 0.3
)

// Reconciliation constants
const (
	// DefaultMatchThreshold is the minimum confidence for accepting an
	// AI-proposed entity match
	DefaultMatchThreshold = 0.7

	// DefaultYearTolerance is the number of years an incoming event may
	// precede the newest known event without a temporal mismatch
	DefaultYearTolerance = 0
)

// Rate limiting constants
const (
	// DefaultRateLimit is the default requests per minute for model backends
	// without specific limits
	DefaultRateLimit = 60

	// BurstSize is the token bucket burst size for rate limiting
	BurstSize = 10
)

// Default values
const (
	// DefaultGeminiModel is the model used when none is configured
	DefaultGeminiModel = "gemini-2.5-flash"

	// DefaultOllamaModel is the local model used when none is configured
	DefaultOllamaModel = "llama3.1"

	// DefaultOllamaURL is the base URL of a local Ollama server
	DefaultOllamaURL = "http://localhost:11434"
)

// Path constants
const (
	// DefaultConfigPath is the default path for configuration files
	DefaultConfigPath = "~/.lorekeep/config.yaml"

	// DefaultLogsPath is the default path for log files
	DefaultLogsPath = "~/.lorekeep/logs"
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatHuman is a human-readable time format
	TimeFormatHuman = "Jan 2, 2006 at 3:04pm MST"

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"
)

// Error messages
const (
	// ErrMsgEntityNotFound is the standard error message for missing entities
	ErrMsgEntityNotFound = "entity not found"

	// ErrMsgInvalidAPIKey is the standard error message for invalid API keys
	ErrMsgInvalidAPIKey = "invalid or missing API key"

	// ErrMsgRateLimited is the standard error message for rate limiting
	ErrMsgRateLimited = "rate limit exceeded, please try again later"

	// ErrMsgTimeout is the standard error message for timeouts
	ErrMsgTimeout = "operation timed out"
)
