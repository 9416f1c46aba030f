package worker_test

import (
	"testing"

	"docpress/internal/worker"
)

func TestClassifyRecognizedTags(t *testing.T) {
	cases := []struct {
		line string
		typ  worker.EventType
		tag  string
	}{
		{`PROGRESS:{"percent":42}`, worker.EventProgress, "PROGRESS"},
		{`BATCH_PROGRESS:{"current":2,"total":5}`, worker.EventBatchProgress, "BATCH_PROGRESS"},
		{`RESULT:{"ok":true}`, worker.EventResult, "RESULT"},
		{`SINGLE_RESULT:{"path":"out.pdf"}`, worker.EventResult, "SINGLE_RESULT"},
		{`BATCH_RESULT:{"converted":5}`, worker.EventBatchResult, "BATCH_RESULT"},
		{`ERROR:{"message":"bad input"}`, worker.EventError, "ERROR"},
	}
	for _, tc := range cases {
		evt, ok := worker.Classify(tc.line)
		if !ok {
			t.Fatalf("Classify(%q) not recognized", tc.line)
		}
		if evt.Type != tc.typ {
			t.Fatalf("Classify(%q) type = %q, want %q", tc.line, evt.Type, tc.typ)
		}
		if evt.Tag != tc.tag {
			t.Fatalf("Classify(%q) tag = %q, want %q", tc.line, evt.Tag, tc.tag)
		}
		if len(evt.Payload) == 0 {
			t.Fatalf("Classify(%q) missing payload", tc.line)
		}
	}
}

func TestClassifyDecodesPayload(t *testing.T) {
	evt, ok := worker.Classify(`RESULT:{"ok":true}`)
	if !ok {
		t.Fatal("expected recognized line")
	}
	var payload struct {
		OK bool `json:"ok"`
	}
	if err := evt.Decode(&payload); err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if !payload.OK {
		t.Fatal("expected payload.ok to decode true")
	}
}

func TestClassifyMalformedPayloadYieldsRawError(t *testing.T) {
	line := `RESULT:{not-json}`
	evt, ok := worker.Classify(line)
	if !ok {
		t.Fatal("malformed payload must still classify")
	}
	if evt.Type != worker.EventRawError {
		t.Fatalf("expected raw_error event, got %q", evt.Type)
	}
	if evt.Raw != line {
		t.Fatalf("raw text = %q, want original line", evt.Raw)
	}
	if evt.ParseError == "" {
		t.Fatal("expected parse failure description")
	}
}

func TestClassifyIgnoresUnrecognizedLines(t *testing.T) {
	for _, line := range []string{
		"Some log message",
		"progress: lowercase tag",
		"NOTATAG:{}",
		"no colon at all",
		"",
	} {
		if evt, ok := worker.Classify(line); ok {
			t.Fatalf("Classify(%q) unexpectedly produced %+v", line, evt)
		}
	}
}

func TestClassifyPayloadMayContainColons(t *testing.T) {
	evt, ok := worker.Classify(`PROGRESS:{"message":"step 1: reading"}`)
	if !ok || evt.Type != worker.EventProgress {
		t.Fatalf("expected progress event, got ok=%v %+v", ok, evt)
	}
}
