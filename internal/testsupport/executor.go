package testsupport

import (
	"context"
	"sync"
)

// ScriptedExecutor replays canned stdout/stderr chunks instead of spawning a
// real worker process. It satisfies worker.Executor.
type ScriptedExecutor struct {
	StdoutChunks []string
	StderrChunks []string
	Code         int
	Err          error

	mu       sync.Mutex
	runCalls int
	lastArgs []string
}

func (e *ScriptedExecutor) Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) (int, error) {
	e.mu.Lock()
	e.runCalls++
	e.lastArgs = append([]string{binary}, args...)
	e.mu.Unlock()

	if e.Err != nil {
		return 0, e.Err
	}
	for _, chunk := range e.StdoutChunks {
		onStdout(chunk)
	}
	for _, chunk := range e.StderrChunks {
		onStderr(chunk)
	}
	return e.Code, nil
}

// RunCalls reports how many times Run was invoked.
func (e *ScriptedExecutor) RunCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runCalls
}

// LastArgs returns the binary and argument vector of the most recent run.
func (e *ScriptedExecutor) LastArgs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.lastArgs...)
}
