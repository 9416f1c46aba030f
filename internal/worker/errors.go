package worker

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSpawn marks requests whose worker process never started, or whose
	// output streams failed before the run could complete. Distinct from a
	// nonzero exit code.
	ErrSpawn = errors.New("failed to start worker process")
	// ErrExit marks worker runs that terminated with a nonzero exit code.
	ErrExit = errors.New("worker exited with error")
	// ErrOutputParse marks zero-exit simple commands whose stdout was not a
	// valid JSON document.
	ErrOutputParse = errors.New("failed to parse worker output")
)

// ExitError reports a worker process that ran but signaled failure through
// its exit code. Stderr carries the full diagnostic text accumulated while
// the process was running.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if detail := stderrTail(e.Stderr); detail != "" {
		return fmt.Sprintf("worker exited with code %d: %s", e.Code, detail)
	}
	return fmt.Sprintf("worker exited with code %d", e.Code)
}

func (e *ExitError) Is(target error) bool { return target == ErrExit }

// OutputParseError reports a simple command whose process exited cleanly but
// produced stdout that could not be decoded as JSON. Both raw buffers are
// preserved for diagnosis.
type OutputParseError struct {
	Stdout string
	Stderr string
	Err    error
}

func (e *OutputParseError) Error() string {
	return fmt.Sprintf("failed to parse worker output: %v", e.Err)
}

func (e *OutputParseError) Is(target error) bool { return target == ErrOutputParse }

func (e *OutputParseError) Unwrap() error { return e.Err }

// stderrTail keeps error strings readable when the worker was chatty.
func stderrTail(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 5 {
		lines = lines[len(lines)-5:]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
