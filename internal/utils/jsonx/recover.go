// Package jsonx provides best-effort recovery of JSON payloads from raw
// AI model output. Generated text frequently arrives wrapped in markdown
// code fences or truncated mid-object; this package strips the wrappers
// and, when strict parsing fails, scans for the largest trailing window
// that still parses.
//
// The recovery is heuristic by design: a syntactically valid window may
// not be the object the model intended to emit. Callers that need strict
// guarantees should validate the decoded structure themselves.
package jsonx

import (
	"encoding/json"
	"fmt"
	"strings"
)

// previewLimit bounds how much of the offending text is included in
// error messages for diagnostics.
const previewLimit = 200

// ParseError reports a failed recovery. It carries the original strict
// parse error and a bounded preview of the offending text.
type ParseError struct {
	Cause   error
	Preview string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("json recovery failed: %v (text: %q)", e.Cause, e.Preview)
}

// Unwrap returns the original strict parse error.
func (e *ParseError) Unwrap() error {
	return e.Cause
}

// Recover extracts a JSON object from raw model output.
//
// It first strips markdown code fences (```json ... ```) and surrounding
// whitespace and attempts a strict parse. On failure it locates the first
// opening brace and scans backward from the end of the text for closing
// braces, strict-parsing each candidate window (nearest-to-end first).
// The first window that parses is returned.
//
// Returns the raw bytes of the recovered object so callers can decode
// into their own types, or a *ParseError when no window parses.
func Recover(raw string) ([]byte, error) {
	cleaned := StripFences(raw)

	var probe json.RawMessage
	strictErr := json.Unmarshal([]byte(cleaned), &probe)
	if strictErr == nil {
		return []byte(cleaned), nil
	}

	start := strings.IndexByte(cleaned, '{')
	if start < 0 {
		return nil, &ParseError{Cause: strictErr, Preview: preview(cleaned)}
	}

	// Backward scan: try every closing brace from the end toward the
	// first opening brace. Nearest-to-end wins so as much of the payload
	// as possible survives truncation.
	for end := len(cleaned) - 1; end > start; end-- {
		if cleaned[end] != '}' {
			continue
		}
		window := cleaned[start : end+1]
		if json.Valid([]byte(window)) {
			return []byte(window), nil
		}
	}

	return nil, &ParseError{Cause: strictErr, Preview: preview(cleaned)}
}

// Decode recovers a JSON object from raw model output and unmarshals it
// into T. It is the typed convenience wrapper around Recover.
func Decode[T any](raw string) (T, error) {
	var out T

	data, err := Recover(raw)
	if err != nil {
		return out, err
	}

	if err := json.Unmarshal(data, &out); err != nil {
		return out, &ParseError{Cause: err, Preview: preview(string(data))}
	}

	return out, nil
}

// StripFences removes markdown code-fence delimiters and surrounding
// whitespace from raw model output. Both ```json and bare ``` markers
// are handled.
func StripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	return strings.TrimSpace(cleaned)
}

// preview truncates text for inclusion in error messages.
func preview(text string) string {
	if len(text) <= previewLimit {
		return text
	}
	return text[:previewLimit] + "..."
}
