package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"docpress/internal/logging"
)

// Runner launches worker processes. Each call owns its spawned process for
// that process's entire lifetime; no state is shared between concurrent
// calls, so independent requests may run in parallel.
type Runner struct {
	locator Locator
	exec    Executor
	logger  *slog.Logger
}

// Option configures the runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogger attaches a logger for diagnostic lines.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner constructs a runner around the given locator.
func NewRunner(locator Locator, opts ...Option) *Runner {
	r := &Runner{
		locator: locator,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// RunStreaming launches the worker for one conversion request and forwards
// classified events to onEvent as complete lines arrive, before the process
// exits. Events from a single stream are delivered in strict arrival order;
// across stdout and stderr the order is whatever the streams deliver. It
// returns the terminal outcome exactly once, after the process terminates
// and all buffered output has been flushed.
//
// There is no cancellation operation and no timeout at this layer: the only
// way a request ends is the process exiting, and a hung worker hangs the
// request. The context is plumbed to process creation only.
func (r *Runner) RunStreaming(ctx context.Context, req Request, onEvent func(Event)) (Outcome, error) {
	if err := req.validate(); err != nil {
		return Outcome{}, err
	}

	interpreter := r.locator.ResolveInterpreter()
	args := BuildArgs(r.locator.ScriptPath(), req)
	r.logger.Debug("launching worker",
		logging.String("interpreter", interpreter),
		logging.String("command", req.Command),
		logging.Int("input_count", len(req.InputPaths)))

	// Dispatch is serialized: the two stream readers run concurrently, but
	// the listener must observe events one at a time, in classified order.
	var (
		mu        sync.Mutex
		stdoutBuf LineBuffer
		stderrBuf LineBuffer
		stderrLog strings.Builder
	)
	dispatch := func(evt Event) {
		if onEvent != nil {
			onEvent(evt)
		}
	}

	onStdout := func(chunk string) {
		mu.Lock()
		defer mu.Unlock()
		for _, line := range stdoutBuf.Feed(chunk) {
			if line == "" {
				continue
			}
			evt, ok := Classify(line)
			if !ok {
				r.logger.Debug("worker diagnostic line", logging.String("line", line))
				continue
			}
			dispatch(evt)
		}
	}
	onStderr := func(chunk string) {
		mu.Lock()
		defer mu.Unlock()
		stderrLog.WriteString(chunk)
		for _, line := range stderrBuf.Feed(chunk) {
			if line == "" {
				continue
			}
			dispatch(Event{Type: EventStderr, Raw: line})
		}
	}

	code, err := r.exec.Run(ctx, interpreter, args, onStdout, onStderr)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	// The worker is expected to newline-terminate stderr messages, but a
	// crashing interpreter often does not; flush what remains so the
	// listener sees it before the outcome resolves.
	mu.Lock()
	if rest := strings.TrimSpace(stderrBuf.Rest()); rest != "" {
		dispatch(Event{Type: EventStderr, Raw: rest})
	}
	captured := stderrLog.String()
	mu.Unlock()

	if code != 0 {
		return Outcome{}, &ExitError{Code: code, Stderr: captured}
	}
	return Outcome{Message: "conversion completed"}, nil
}

// RunCommand launches the worker for a short-lived administrative command.
// The entire stdout and stderr are accumulated without line-level dispatch;
// on a clean exit the full stdout buffer is parsed as one JSON document.
func (r *Runner) RunCommand(ctx context.Context, command string, args []string) (Outcome, error) {
	if strings.TrimSpace(command) == "" {
		return Outcome{}, errors.New("worker command required")
	}

	interpreter := r.locator.ResolveInterpreter()
	argv := append([]string{r.locator.ScriptPath(), command}, args...)
	r.logger.Debug("launching worker command",
		logging.String("interpreter", interpreter),
		logging.String("command", command))

	// Each builder is written by exactly one stream goroutine and read only
	// after Run returns.
	var stdout, stderr strings.Builder
	code, err := r.exec.Run(ctx, interpreter, argv,
		func(chunk string) { stdout.WriteString(chunk) },
		func(chunk string) { stderr.WriteString(chunk) },
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	if code != 0 {
		return Outcome{}, &ExitError{Code: code, Stderr: stderr.String()}
	}

	payload := strings.TrimSpace(stdout.String())
	var decoded any
	if err := json.Unmarshal([]byte(payload), &decoded); err != nil {
		return Outcome{}, &OutputParseError{Stdout: stdout.String(), Stderr: stderr.String(), Err: err}
	}
	return Outcome{Message: "command completed", Payload: json.RawMessage(payload)}, nil
}
