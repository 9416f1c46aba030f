package worker

import (
	"encoding/json"
	"errors"
	"strings"
)

// Request describes one conversion handed to the worker process. A request is
// immutable once submitted; the invocation builder consumes it exactly once.
type Request struct {
	// Command is the worker operation tag (e.g. "convert").
	Command string `json:"command"`
	// InputPaths are the documents to convert, in order. Must be non-empty.
	InputPaths []string `json:"input_paths"`
	// OutputDir is the optional destination directory.
	OutputDir string `json:"output_dir,omitempty"`
	// Options maps camelCase option names to scalar values. Boolean false and
	// non-scalar values are never forwarded to the worker.
	Options map[string]any `json:"options,omitempty"`
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Command) == "" {
		return errors.New("conversion command required")
	}
	if len(r.InputPaths) == 0 {
		return errors.New("at least one input path required")
	}
	for _, path := range r.InputPaths {
		if strings.TrimSpace(path) == "" {
			return errors.New("input paths must not be empty")
		}
	}
	return nil
}

// Outcome is the single terminal result of one worker invocation. For
// streaming conversions Message is a completion signal; the conversion
// results themselves were already delivered as events. For simple commands
// Payload holds the decoded stdout document.
type Outcome struct {
	Message string          `json:"message"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
