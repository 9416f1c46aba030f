// Package daemonrun hosts the shared daemon bootstrap used by the docpressd
// binary and the docpress daemon subcommand.
package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"docpress/internal/config"
	"docpress/internal/daemon"
	"docpress/internal/history"
	"docpress/internal/ipc"
	"docpress/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the docpress daemon runtime loop and blocks until SIGINT or
// SIGTERM arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "docpress.log")
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	logWorkerSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, "docpressd.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := history.Open(cfg)
	if err != nil {
		logger.Error("open history store", logging.Error(err))
		return err
	}
	defer store.Close()

	d, err := daemon.New(cfg, store, logger)
	if err != nil {
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	<-signalCtx.Done()
	logger.Info("docpress daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logWorkerSnapshot(logger *slog.Logger, cfg *config.Config) {
	script := cfg.Worker.Script
	if !filepath.IsAbs(script) {
		script = filepath.Join(cfg.Paths.WorkerDir, script)
	}
	_, scriptErr := os.Stat(script)
	logger.Info("worker snapshot",
		logging.String("worker_dir", cfg.Paths.WorkerDir),
		logging.String("script", script),
		logging.Bool("script_present", scriptErr == nil),
		logging.Bool("interpreter_pinned", strings.TrimSpace(cfg.Worker.Interpreter) != ""),
		logging.Bool("python_available", binaryAvailable("python3") || binaryAvailable("python")),
	)
}

func binaryAvailable(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
