package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"docpress/internal/config"
	"docpress/internal/history"
	"docpress/internal/logging"
	"docpress/internal/worker"
)

// Daemon owns worker-process execution and conversion history, and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *history.Store
	runner  *worker.Runner
	logPath string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	mu   sync.Mutex
	jobs map[string]*journal
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool
	ActiveJobs    int
	HistoryDBPath string
	LockFilePath  string
	SocketPath    string
	LogPath       string
	JobStats      map[history.Status]int
}

// Option configures the daemon.
type Option func(*Daemon)

// WithRunner injects a custom worker runner (primarily for tests).
func WithRunner(runner *worker.Runner) Option {
	return func(d *Daemon) {
		if runner != nil {
			d.runner = runner
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *history.Store, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, and logger")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "docpressd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		logPath:  filepath.Join(cfg.Paths.LogDir, "docpress.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		jobs:     make(map[string]*journal),
	}
	d.runner = worker.NewRunner(worker.Locator{
		WorkerDir:   cfg.Paths.WorkerDir,
		Script:      cfg.Worker.Script,
		Interpreter: cfg.Worker.Interpreter,
	}, worker.WithLogger(logging.NewComponentLogger(logger, "worker")))

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the daemon lock and recovers jobs a previous instance left
// in the running state.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another docpress daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	recovered, err := d.store.MarkStuckRunning(d.ctx, "daemon stopped while job was running")
	if err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("recover stuck jobs: %w", err)
	}
	if recovered > 0 {
		d.logger.Warn("failed jobs left running by previous instance", logging.Int64("count", recovered))
	}

	d.running.Store(true)
	d.logger.Info("docpress daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop releases the daemon lock. Running jobs are not killed; their worker
// processes keep the daemon process alive until they exit.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("docpress daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// StartConversion registers a new job, launches the worker in the
// background, and returns the job token immediately.
func (d *Daemon) StartConversion(ctx context.Context, req worker.Request) (*history.Job, error) {
	if !d.running.Load() {
		return nil, errors.New("daemon not running")
	}
	if strings.TrimSpace(req.OutputDir) == "" {
		req.OutputDir = d.cfg.Paths.OutputDir
	}

	token := uuid.NewString()
	job, err := d.store.NewJob(ctx, token, req.Command, req.InputPaths, req.OutputDir, req.Options)
	if err != nil {
		return nil, fmt.Errorf("record job: %w", err)
	}

	jrn := newJournal(0)
	d.mu.Lock()
	d.jobs[token] = jrn
	d.mu.Unlock()

	// The job outlives the request that submitted it, so it runs under the
	// daemon context rather than the RPC call's.
	go d.runConversion(d.ctx, job, req, jrn)

	return job, nil
}

// ConvertEvents tails the event journal for a job. It returns events after
// the given sequence, the next cursor, and, once the journal is drained and
// the job terminal, the job's result.
func (d *Daemon) ConvertEvents(ctx context.Context, token string, after uint64, limit int, wait bool) ([]JobEvent, uint64, bool, *Result, error) {
	d.mu.Lock()
	jrn, ok := d.jobs[token]
	d.mu.Unlock()
	if ok {
		return jrn.Fetch(ctx, after, limit, wait)
	}

	// The journal is in-memory; after a daemon restart only the history row
	// remains. A terminal row still yields a result so clients can resolve.
	job, err := d.store.GetByToken(ctx, token)
	if err != nil {
		return nil, after, false, nil, err
	}
	if job == nil {
		return nil, after, false, nil, fmt.Errorf("unknown job token %q", token)
	}
	if !job.Status.IsTerminal() {
		return nil, after, false, nil, fmt.Errorf("job %q has no live event journal", token)
	}
	return nil, after, true, resultFromJob(job), nil
}

// RunLicense executes a short-lived worker command and returns its decoded
// stdout document.
func (d *Daemon) RunLicense(ctx context.Context, command string, args []string) (worker.Outcome, error) {
	if !d.running.Load() {
		return worker.Outcome{}, errors.New("daemon not running")
	}
	return d.runner.RunCommand(ctx, command, args)
}

// HistoryList returns job records filtered by optional statuses.
func (d *Daemon) HistoryList(ctx context.Context, statuses []history.Status) ([]*history.Job, error) {
	return d.store.List(ctx, statuses...)
}

// HistoryDescribe returns one job record by token.
func (d *Daemon) HistoryDescribe(ctx context.Context, token string) (*history.Job, error) {
	return d.store.GetByToken(ctx, token)
}

// HistoryClear removes all job records.
func (d *Daemon) HistoryClear(ctx context.Context) (int64, error) {
	return d.store.Clear(ctx)
}

// HistoryClearFailed removes failed job records.
func (d *Daemon) HistoryClearFailed(ctx context.Context) (int64, error) {
	return d.store.ClearFailed(ctx)
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status reports daemon runtime information.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	active := 0
	for _, jrn := range d.jobs {
		jrn.mu.Lock()
		if !jrn.done {
			active++
		}
		jrn.mu.Unlock()
	}
	d.mu.Unlock()

	stats, err := d.store.Stats(ctx)
	if err != nil {
		d.logger.Warn("history stats unavailable", logging.Error(err))
		stats = nil
	}

	return Status{
		Running:       d.running.Load(),
		ActiveJobs:    active,
		HistoryDBPath: d.store.Path(),
		LockFilePath:  d.lockPath,
		SocketPath:    d.cfg.SocketPath(),
		LogPath:       d.logPath,
		JobStats:      stats,
	}
}
