package daemon

import (
	"context"
	"sync"

	"docpress/internal/worker"
)

// JobEvent is one worker event stamped with a journal sequence number so
// clients can tail a job with an offset cursor.
type JobEvent struct {
	Sequence uint64       `json:"seq"`
	Event    worker.Event `json:"event"`
}

// Result is the single terminal outcome of a conversion job.
type Result struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	ExitCode *int   `json:"exit_code,omitempty"`
}

// journal stores recent events for one job and wakes waiters when new events
// arrive or the job finishes.
type journal struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []JobEvent
	nextSeq  uint64
	done     bool
	result   *Result
}

func newJournal(capacity int) *journal {
	if capacity <= 0 {
		capacity = 512
	}
	j := &journal{capacity: capacity}
	j.cond = sync.NewCond(&j.mu)
	return j
}

// Append records a new event, evicting the oldest when the buffer is full.
func (j *journal) Append(evt worker.Event) {
	j.mu.Lock()
	j.nextSeq++
	entry := JobEvent{Sequence: j.nextSeq, Event: evt}
	if len(j.buffer) == j.capacity {
		copy(j.buffer, j.buffer[1:])
		j.buffer = j.buffer[:j.capacity-1]
	}
	j.buffer = append(j.buffer, entry)
	j.cond.Broadcast()
	j.mu.Unlock()
}

// Finish marks the job terminal. Appends after Finish are a programming
// error; Finish is called exactly once per job.
func (j *journal) Finish(result Result) {
	j.mu.Lock()
	j.done = true
	j.result = &result
	j.cond.Broadcast()
	j.mu.Unlock()
}

// Fetch returns events with sequence greater than since. When wait is true
// and no events are pending, Fetch blocks until an event arrives, the job
// finishes, or the context ends. The returned result is non-nil only when
// done is true and the caller has drained the buffer.
func (j *journal) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]JobEvent, uint64, bool, *Result, error) {
	if limit <= 0 || limit > j.capacity {
		limit = j.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				j.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	j.mu.Lock()
	defer j.mu.Unlock()

	for {
		events, next := j.snapshotLocked(since, limit)
		drained := j.done && next == j.nextSeq && len(events) == 0
		if len(events) > 0 || drained || !wait {
			var result *Result
			if drained {
				result = j.result
			}
			return events, next, drained, result, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, false, nil, err
		}
		j.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, since, false, nil, err
		}
	}
}

func (j *journal) snapshotLocked(since uint64, limit int) ([]JobEvent, uint64) {
	if len(j.buffer) == 0 || j.buffer[len(j.buffer)-1].Sequence <= since {
		return nil, max(since, j.nextSeq)
	}
	startIdx := len(j.buffer)
	for i, evt := range j.buffer {
		if evt.Sequence > since {
			startIdx = i
			break
		}
	}
	end := startIdx + limit
	if end > len(j.buffer) {
		end = len(j.buffer)
	}
	out := make([]JobEvent, end-startIdx)
	copy(out, j.buffer[startIdx:end])
	return out, out[len(out)-1].Sequence
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
