// Package output renders CLI results as JSON or YAML. The engine's
// reports and changesets are plain serializable values, so rendering is
// a thin encoding layer shared by every command.
package output

import (
	"encoding/json"
	"io"

	"github.com/goccy/go-yaml"

	"github.com/lorekeep/lorekeep/pkg/errors"
)

// Format selects an output encoding.
type Format string

// Supported output formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat normalizes raw text into a format. Empty input defaults
// to JSON; unknown input is rejected.
func ParseFormat(raw string) (Format, error) {
	switch Format(raw) {
	case "":
		return FormatJSON, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	}
	return "", errors.NewValidationError("format", raw, "must be json or yaml")
}

// Render encodes v to w in the given format.
func Render(w io.Writer, format Format, v any) error {
	switch format {
	case FormatYAML:
		encoder := yaml.NewEncoder(w, yaml.Indent(2))
		defer encoder.Close() //nolint:errcheck // Close flushes, encode errors already surfaced
		return encoder.Encode(v)
	default:
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(v)
	}
}
