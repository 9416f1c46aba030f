package config

const (
	defaultWorkerDir    = "~/.local/share/docpress/worker"
	defaultOutputDir    = "~/Documents/docpress"
	defaultLogDir       = "~/.local/share/docpress/logs"
	defaultWorkerScript = "main.py"
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkerDir: defaultWorkerDir,
			OutputDir: defaultOutputDir,
			LogDir:    defaultLogDir,
		},
		Worker: Worker{
			Script: defaultWorkerScript,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
