package worker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Executor abstracts process creation and output consumption for
// testability. Run delivers raw stream chunks, not lines; line reassembly
// belongs to the caller. The returned exit code is valid only when err is
// nil; a non-nil error means the process never started or its output could
// not be consumed.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(chunk string)) (int, error)
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onStdout, onStderr func(string)) (int, error) {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return 0, fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	consume := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		buf := make([]byte, 4096)
		for {
			n, readErr := r.Read(buf)
			if n > 0 && forward != nil {
				forward(string(buf[:n]))
			}
			if readErr != nil {
				return
			}
		}
	}

	wg.Add(2)
	go consume(stdout, onStdout)
	go consume(stderr, onStderr)
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return 0, fmt.Errorf("wait command: %w", err)
	}
	return 0, nil
}
