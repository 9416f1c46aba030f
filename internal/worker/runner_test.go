package worker_test

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"docpress/internal/worker"
)

// scriptedExecutor replays canned stream chunks instead of spawning a
// process. Chunks are delivered exactly as scripted, including splits in the
// middle of a line.
type scriptedExecutor struct {
	stdout   []string
	stderr   []string
	code     int
	err      error
	binary   string
	args     []string
	runCalls int
}

func (s *scriptedExecutor) Run(_ context.Context, binary string, args []string, onStdout, onStderr func(string)) (int, error) {
	s.runCalls++
	s.binary = binary
	s.args = append([]string(nil), args...)
	if s.err != nil {
		return 0, s.err
	}
	for _, chunk := range s.stdout {
		onStdout(chunk)
	}
	for _, chunk := range s.stderr {
		onStderr(chunk)
	}
	return s.code, nil
}

func streamingRequest() worker.Request {
	return worker.Request{Command: "convert", InputPaths: []string{"doc.md"}}
}

func newTestRunner(exec worker.Executor) *worker.Runner {
	loc := worker.Locator{WorkerDir: "/srv/worker", Script: "main.py", Interpreter: "python3"}
	return worker.NewRunner(loc, worker.WithExecutor(exec))
}

func TestRunStreamingDispatchesEventsAcrossChunkBoundaries(t *testing.T) {
	exec := &scriptedExecutor{
		stdout: []string{"PROGRESS:{\"p\":1}\nPROGR", "ESS:{\"p\":2}\n"},
	}
	runner := newTestRunner(exec)

	var events []worker.Event
	outcome, err := runner.RunStreaming(context.Background(), streamingRequest(), func(evt worker.Event) {
		events = append(events, evt)
	})
	if err != nil {
		t.Fatalf("RunStreaming returned error: %v", err)
	}
	if outcome.Message == "" {
		t.Fatal("expected completion message on success")
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d: %+v", len(events), events)
	}
	for i, evt := range events {
		if evt.Type != worker.EventProgress {
			t.Fatalf("event %d type = %q, want progress", i, evt.Type)
		}
	}
	if string(events[0].Payload) != `{"p":1}` || string(events[1].Payload) != `{"p":2}` {
		t.Fatalf("unexpected payloads: %q %q", events[0].Payload, events[1].Payload)
	}
}

func TestRunStreamingPassesInvocationToExecutor(t *testing.T) {
	exec := &scriptedExecutor{}
	runner := newTestRunner(exec)

	req := worker.Request{
		Command:    "convert",
		InputPaths: []string{"a.md"},
		Options:    map[string]any{"outputFormat": "pdf"},
	}
	if _, err := runner.RunStreaming(context.Background(), req, nil); err != nil {
		t.Fatalf("RunStreaming returned error: %v", err)
	}
	if exec.binary != "python3" {
		t.Fatalf("binary = %q, want python3", exec.binary)
	}
	want := []string{"/srv/worker/main.py", "convert", "--input-files", "a.md", "--output-format", "pdf"}
	if !reflect.DeepEqual(exec.args, want) {
		t.Fatalf("args = %v, want %v", exec.args, want)
	}
}

func TestRunStreamingMalformedLineDoesNotAbortRun(t *testing.T) {
	exec := &scriptedExecutor{
		stdout: []string{"PROGRESS:{broken\nPROGRESS:{\"p\":2}\n"},
	}
	runner := newTestRunner(exec)

	var types []worker.EventType
	if _, err := runner.RunStreaming(context.Background(), streamingRequest(), func(evt worker.Event) {
		types = append(types, evt.Type)
	}); err != nil {
		t.Fatalf("RunStreaming returned error: %v", err)
	}
	want := []worker.EventType{worker.EventRawError, worker.EventProgress}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("event types = %v, want %v", types, want)
	}
}

func TestRunStreamingIgnoresDiagnosticLines(t *testing.T) {
	exec := &scriptedExecutor{
		stdout: []string{"Some log message\nRESULT:{\"ok\":true}\n"},
	}
	runner := newTestRunner(exec)

	var events []worker.Event
	if _, err := runner.RunStreaming(context.Background(), streamingRequest(), func(evt worker.Event) {
		events = append(events, evt)
	}); err != nil {
		t.Fatalf("RunStreaming returned error: %v", err)
	}
	if len(events) != 1 || events[0].Type != worker.EventResult {
		t.Fatalf("expected single result event, got %+v", events)
	}
}

func TestRunStreamingWrapsStderrLines(t *testing.T) {
	exec := &scriptedExecutor{
		stderr: []string{"warning: slow disk\nERROR: not really json\n"},
	}
	runner := newTestRunner(exec)

	var events []worker.Event
	if _, err := runner.RunStreaming(context.Background(), streamingRequest(), func(evt worker.Event) {
		events = append(events, evt)
	}); err != nil {
		t.Fatalf("RunStreaming returned error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 stderr events, got %+v", events)
	}
	for _, evt := range events {
		if evt.Type != worker.EventStderr {
			t.Fatalf("stderr lines must never be classified, got %q for %q", evt.Type, evt.Raw)
		}
	}
	if events[0].Raw != "warning: slow disk" {
		t.Fatalf("unexpected first stderr event: %q", events[0].Raw)
	}
}

func TestRunStreamingFlushesUnterminatedStderrOnExit(t *testing.T) {
	exec := &scriptedExecutor{
		stderr: []string{"Traceback (most recent call last):"},
		code:   1,
	}
	runner := newTestRunner(exec)

	var events []worker.Event
	_, err := runner.RunStreaming(context.Background(), streamingRequest(), func(evt worker.Event) {
		events = append(events, evt)
	})
	if err == nil {
		t.Fatal("expected failure for nonzero exit")
	}
	if len(events) != 1 || events[0].Type != worker.EventStderr {
		t.Fatalf("expected final stderr flush event, got %+v", events)
	}
	if events[0].Raw != "Traceback (most recent call last):" {
		t.Fatalf("unexpected flushed text: %q", events[0].Raw)
	}
}

func TestRunStreamingDropsUnterminatedStdout(t *testing.T) {
	exec := &scriptedExecutor{
		stdout: []string{"RESULT:{\"ok\":true}\nPROGRESS:{\"p\":99}"},
	}
	runner := newTestRunner(exec)

	var events []worker.Event
	if _, err := runner.RunStreaming(context.Background(), streamingRequest(), func(evt worker.Event) {
		events = append(events, evt)
	}); err != nil {
		t.Fatalf("RunStreaming returned error: %v", err)
	}
	if len(events) != 1 || events[0].Type != worker.EventResult {
		t.Fatalf("unterminated stdout line must be dropped, got %+v", events)
	}
}

func TestRunStreamingNonzeroExitCarriesCodeAndStderr(t *testing.T) {
	exec := &scriptedExecutor{
		stderr: []string{"conversion failed: bad font\n"},
		code:   2,
	}
	runner := newTestRunner(exec)

	_, err := runner.RunStreaming(context.Background(), streamingRequest(), nil)
	if !errors.Is(err, worker.ErrExit) {
		t.Fatalf("expected ErrExit, got %v", err)
	}
	var exitErr *worker.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %T", err)
	}
	if exitErr.Code != 2 {
		t.Fatalf("exit code = %d, want 2", exitErr.Code)
	}
	if !strings.Contains(exitErr.Stderr, "bad font") {
		t.Fatalf("stderr not captured: %q", exitErr.Stderr)
	}
	if !strings.Contains(err.Error(), "2") {
		t.Fatalf("error string should carry exit code: %v", err)
	}
}

func TestRunStreamingSpawnFailureIsDistinct(t *testing.T) {
	exec := &scriptedExecutor{err: errors.New("no such file or directory")}
	runner := newTestRunner(exec)

	_, err := runner.RunStreaming(context.Background(), streamingRequest(), nil)
	if !errors.Is(err, worker.ErrSpawn) {
		t.Fatalf("expected ErrSpawn, got %v", err)
	}
	if errors.Is(err, worker.ErrExit) {
		t.Fatal("spawn failure must not look like a nonzero exit")
	}
}

func TestRunStreamingRejectsInvalidRequest(t *testing.T) {
	exec := &scriptedExecutor{}
	runner := newTestRunner(exec)

	if _, err := runner.RunStreaming(context.Background(), worker.Request{Command: "convert"}, nil); err == nil {
		t.Fatal("expected error for request without inputs")
	}
	if _, err := runner.RunStreaming(context.Background(), worker.Request{InputPaths: []string{"a.md"}}, nil); err == nil {
		t.Fatal("expected error for request without command")
	}
	if exec.runCalls != 0 {
		t.Fatalf("executor must not run for invalid requests, ran %d times", exec.runCalls)
	}
}

func TestRunCommandParsesWholeStdout(t *testing.T) {
	exec := &scriptedExecutor{
		stdout: []string{`{"success":`, `true,"value":42}`},
	}
	runner := newTestRunner(exec)

	outcome, err := runner.RunCommand(context.Background(), "license-status", nil)
	if err != nil {
		t.Fatalf("RunCommand returned error: %v", err)
	}
	var payload struct {
		Success bool `json:"success"`
		Value   int  `json:"value"`
	}
	if err := json.Unmarshal(outcome.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if !payload.Success || payload.Value != 42 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestRunCommandParseFailureKeepsBothBuffers(t *testing.T) {
	exec := &scriptedExecutor{
		stdout: []string{"not json"},
		stderr: []string{"warning: legacy key\n"},
	}
	runner := newTestRunner(exec)

	_, err := runner.RunCommand(context.Background(), "license-status", nil)
	if !errors.Is(err, worker.ErrOutputParse) {
		t.Fatalf("expected ErrOutputParse, got %v", err)
	}
	var parseErr *worker.OutputParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected OutputParseError, got %T", err)
	}
	if parseErr.Stdout != "not json" {
		t.Fatalf("stdout buffer = %q", parseErr.Stdout)
	}
	if !strings.Contains(parseErr.Stderr, "legacy key") {
		t.Fatalf("stderr buffer = %q", parseErr.Stderr)
	}
}

func TestRunCommandNonzeroExit(t *testing.T) {
	exec := &scriptedExecutor{
		stderr: []string{"license server unreachable\n"},
		code:   3,
	}
	runner := newTestRunner(exec)

	_, err := runner.RunCommand(context.Background(), "license-activate", []string{"KEY-123"})
	var exitErr *worker.ExitError
	if !errors.As(err, &exitErr) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if exitErr.Code != 3 || !strings.Contains(exitErr.Stderr, "unreachable") {
		t.Fatalf("unexpected exit error: %+v", exitErr)
	}
}

func TestRunCommandArgumentVector(t *testing.T) {
	exec := &scriptedExecutor{stdout: []string{"{}"}}
	runner := newTestRunner(exec)

	if _, err := runner.RunCommand(context.Background(), "license-activate", []string{"KEY-123"}); err != nil {
		t.Fatalf("RunCommand returned error: %v", err)
	}
	want := []string{"/srv/worker/main.py", "license-activate", "KEY-123"}
	if !reflect.DeepEqual(exec.args, want) {
		t.Fatalf("args = %v, want %v", exec.args, want)
	}
}
