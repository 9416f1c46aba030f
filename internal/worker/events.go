package worker

import (
	"encoding/json"
	"strings"
)

// EventType identifies the kind of worker event.
type EventType string

const (
	// EventProgress reports per-file conversion progress.
	EventProgress EventType = "progress"
	// EventBatchProgress reports progress across a multi-file batch.
	EventBatchProgress EventType = "batch_progress"
	// EventResult carries a completed conversion result.
	EventResult EventType = "result"
	// EventBatchResult carries the result summary for a batch.
	EventBatchResult EventType = "batch_result"
	// EventError carries a structured error reported by the worker.
	EventError EventType = "error"
	// EventRawError marks a tagged line whose JSON payload failed to decode.
	EventRawError EventType = "raw_error"
	// EventStderr carries one raw line of worker stderr output.
	EventStderr EventType = "stderr"
)

// Event is one observation from a running worker process. Events are
// transient: produced by classification, consumed immediately by the
// listener, never persisted by this package.
type Event struct {
	Type EventType `json:"type"`
	// Tag is the wire prefix for structured events ("PROGRESS", "RESULT", ...).
	Tag string `json:"tag,omitempty"`
	// Payload holds the decoded JSON document for structured events. Its
	// shape is defined entirely by the worker and treated as opaque here.
	Payload json.RawMessage `json:"payload,omitempty"`
	// Raw preserves the original text for RawError and Stderr events.
	Raw string `json:"raw,omitempty"`
	// ParseError describes why a tagged line's payload failed to decode.
	ParseError string `json:"parse_error,omitempty"`
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// eventTags maps recognized wire prefixes to event types. SINGLE_RESULT and
// RESULT both carry a single-document result and share a type.
var eventTags = map[string]EventType{
	"PROGRESS":       EventProgress,
	"BATCH_PROGRESS": EventBatchProgress,
	"RESULT":         EventResult,
	"SINGLE_RESULT":  EventResult,
	"BATCH_RESULT":   EventBatchResult,
	"ERROR":          EventError,
}

// Classify inspects one complete stdout line. Lines beginning with a
// recognized tag and a colon have the remainder parsed as JSON; a payload
// that fails to parse yields a RawError event rather than an error, since a
// malformed line must never abort the run. Lines matching no tag report
// ok=false and are treated as incidental diagnostic output.
func Classify(line string) (Event, bool) {
	tag, rest, found := strings.Cut(line, ":")
	if !found {
		return Event{}, false
	}
	typ, recognized := eventTags[tag]
	if !recognized {
		return Event{}, false
	}

	payload := strings.TrimSpace(rest)
	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return Event{Type: EventRawError, Tag: tag, Raw: line, ParseError: err.Error()}, true
	}
	return Event{Type: typ, Tag: tag, Payload: json.RawMessage(payload)}, true
}
