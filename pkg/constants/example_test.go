package constants_test

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/lorekeep/lorekeep/pkg/constants"
)

// Example demonstrates using constants for common operations
func Example() {
	// Create directory with standard permissions
	dir := filepath.Join(os.TempDir(), "lorekeep-example")
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	// Create file with standard permissions
	file := filepath.Join(dir, "timeline.md")
	data := []byte("# Timeline\n")
	if err := os.WriteFile(file, data, constants.FilePermissions); err != nil {
		panic(err)
	}

	fmt.Printf("Created dir with %o permissions\n", constants.DirPermissions)
	fmt.Printf("Created file with %o permissions\n", constants.FilePermissions)
	// Output:
	// Created dir with 755 permissions
	// Created file with 644 permissions
}

// Example_timeouts demonstrates timeout constants
func Example_timeouts() {
	// HTTP client with default timeout
	client := &http.Client{
		Timeout: constants.DefaultHTTPTimeout,
	}
	fmt.Printf("HTTP timeout: %v\n", client.Timeout)

	// Context with operation timeout
	ctx, cancel := context.WithTimeout(
		context.Background(),
		constants.DefaultTimeout,
	)
	defer cancel()

	// Simulated operation
	select {
	case <-time.After(100 * time.Millisecond):
		fmt.Println("Operation completed")
	case <-ctx.Done():
		fmt.Println("Operation timed out")
	}

	// Output:
	// HTTP timeout: 30s
	// Operation completed
}

// Example_extraction shows the extraction retry budget
func Example_extraction() {
	attempts := 0
	for attempts < constants.MaxExtractionAttempts {
		attempts++
	}
	fmt.Printf("Extraction tries at most %d model calls\n", attempts)
	// Output: Extraction tries at most 2 model calls
}

// Example_retryLogic demonstrates using backoff constants
func Example_retryLogic() {
	// Exponential backoff with constants
	for i := 0; i < 3; i++ {
		backoff := constants.RetryBackoff * time.Duration(1<<i)
		if backoff > constants.MaxRetryBackoff {
			backoff = constants.MaxRetryBackoff
		}
		fmt.Printf("Retry %d after %v\n", i+1, backoff)
	}
	// Output:
	// Retry 1 after 1s
	// Retry 2 after 2s
	// Retry 3 after 4s
}

// Example_reconciliation shows reconciliation tuning constants
func Example_reconciliation() {
	confidence := 0.82
	if confidence >= constants.DefaultMatchThreshold {
		fmt.Println("Match accepted")
	}

	fmt.Printf("Year tolerance: %d\n", constants.DefaultYearTolerance)
	// Output:
	// Match accepted
	// Year tolerance: 0
}

// Example_backendDefaults shows default backend settings
func Example_backendDefaults() {
	fmt.Printf("Gemini model: %s\n", constants.DefaultGeminiModel)
	fmt.Printf("Ollama URL: %s\n", constants.DefaultOllamaURL)
	fmt.Printf("Rate limit: %d requests/minute\n", constants.DefaultRateLimit)

	// Output:
	// Gemini model: gemini-2.5-flash
	// Ollama URL: http://localhost:11434
	// Rate limit: 60 requests/minute
}
