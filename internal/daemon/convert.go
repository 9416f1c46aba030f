package daemon

import (
	"context"
	"errors"
	"strings"

	"docpress/internal/history"
	"docpress/internal/logging"
	"docpress/internal/worker"
)

// progressPayload is the subset of the worker's progress document the daemon
// mirrors into the history row. Unknown fields pass through to clients in
// the raw event payload.
type progressPayload struct {
	Stage   string  `json:"stage"`
	Percent float64 `json:"percent"`
	Message string  `json:"message"`
}

func (d *Daemon) runConversion(ctx context.Context, job *history.Job, req worker.Request, jrn *journal) {
	ctx = logging.WithJobToken(ctx, job.Token)
	logger := logging.WithContext(ctx, d.logger)

	job.Status = history.StatusRunning
	if err := d.store.Update(ctx, job); err != nil {
		logger.Error("failed to mark job running", logging.Error(err))
	}

	onEvent := func(evt worker.Event) {
		jrn.Append(evt)
		switch evt.Type {
		case worker.EventProgress, worker.EventBatchProgress:
			var progress progressPayload
			if err := evt.Decode(&progress); err != nil {
				return
			}
			job.ProgressStage = progress.Stage
			job.ProgressPercent = progress.Percent
			job.ProgressMessage = progress.Message
			if err := d.store.Update(ctx, job); err != nil {
				logger.Warn("failed to persist progress", logging.Error(err))
			}
		case worker.EventResult, worker.EventBatchResult:
			job.ResultJSON = string(evt.Payload)
		}
	}

	outcome, err := d.runner.RunStreaming(ctx, req, onEvent)

	var result Result
	switch {
	case err == nil:
		job.Status = history.StatusCompleted
		job.ProgressPercent = 100
		code := 0
		job.ExitCode = int64Ptr(0)
		result = Result{Success: true, Message: outcome.Message, ExitCode: &code}
	default:
		job.Status = history.StatusFailed
		job.ErrorMessage = err.Error()
		result = Result{Error: err.Error()}

		var exitErr *worker.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.Code
			job.ExitCode = int64Ptr(int64(code))
			job.StderrTail = tail(exitErr.Stderr)
			result.ExitCode = &code
		}
	}

	if updateErr := d.store.Update(ctx, job); updateErr != nil {
		logger.Error("failed to record job outcome", logging.Error(updateErr))
	}
	jrn.Finish(result)

	if err != nil {
		logger.Warn("conversion failed", logging.Error(err))
	} else {
		logger.Info("conversion completed", logging.String("command", req.Command))
	}
}

func resultFromJob(job *history.Job) *Result {
	result := &Result{}
	if job.Status == history.StatusCompleted {
		result.Success = true
		result.Message = "conversion completed"
	} else {
		result.Error = job.ErrorMessage
	}
	if job.ExitCode != nil {
		code := int(*job.ExitCode)
		result.ExitCode = &code
	}
	return result
}

func int64Ptr(v int64) *int64 { return &v }

// tail keeps the last few stderr lines so history rows stay small.
func tail(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > 10 {
		lines = lines[len(lines)-10:]
	}
	return strings.Join(lines, "\n")
}
