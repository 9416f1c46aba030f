package testsupport

import (
	"path/filepath"
	"testing"

	"docpress/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.WorkerDir = filepath.Join(base, "worker")
	cfgVal.Paths.OutputDir = filepath.Join(base, "output")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithInterpreter pins the worker interpreter on the test config.
func WithInterpreter(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Worker.Interpreter = path
	}
}

// WithWorkerScript overrides the worker entry point on the test config.
func WithWorkerScript(script string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Worker.Script = script
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
