package worker

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Locator resolves the interpreter and entry script used to launch the
// conversion worker. It decides what to execute without executing anything.
type Locator struct {
	// WorkerDir is the directory holding the worker script and, when the
	// project ships one, its local virtualenv.
	WorkerDir string
	// Script is the worker entry script, resolved relative to WorkerDir
	// unless absolute.
	Script string
	// Interpreter optionally overrides resolution entirely (from config).
	Interpreter string
	// GOOS overrides runtime.GOOS in tests.
	GOOS string
}

func (l Locator) goos() string {
	if l.GOOS != "" {
		return l.GOOS
	}
	return runtime.GOOS
}

// ResolveInterpreter prefers the project-local virtualenv interpreter inside
// WorkerDir and falls back to the bare PATH-resolved name when it is missing.
// An inaccessible local interpreter is not an error; it silently triggers
// the fallback.
func (l Locator) ResolveInterpreter() string {
	if override := strings.TrimSpace(l.Interpreter); override != "" {
		return override
	}

	local := filepath.Join(l.WorkerDir, ".venv", "bin", "python3")
	fallback := "python3"
	if l.goos() == "windows" {
		local = filepath.Join(l.WorkerDir, ".venv", "Scripts", "python.exe")
		fallback = "python"
	}

	if info, err := os.Stat(local); err == nil && !info.IsDir() {
		return local
	}
	return fallback
}

// ScriptPath returns the absolute-or-relative path passed to the interpreter.
func (l Locator) ScriptPath() string {
	if filepath.IsAbs(l.Script) {
		return l.Script
	}
	return filepath.Join(l.WorkerDir, l.Script)
}

// BuildArgs assembles the worker argument vector for a conversion request:
// script, command, the input-path list, the optional output directory, then
// one flag per forwardable option in name order. Boolean true becomes a bare
// flag and boolean false is omitted entirely, so the worker cannot tell an
// explicit false from an unset option. Nil and non-scalar values are skipped.
func BuildArgs(script string, req Request) []string {
	args := make([]string, 0, 5+len(req.InputPaths)+2*len(req.Options))
	args = append(args, script, req.Command, "--input-files")
	args = append(args, req.InputPaths...)
	if req.OutputDir != "" {
		args = append(args, "--output-dir", req.OutputDir)
	}

	names := make([]string, 0, len(req.Options))
	for name := range req.Options {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		flag := "--" + kebabCase(name)
		switch value := req.Options[name].(type) {
		case nil:
		case bool:
			if value {
				args = append(args, flag)
			}
		default:
			if text, ok := optionValue(value); ok {
				args = append(args, flag, text)
			}
		}
	}
	return args
}

// optionValue renders a scalar option as its flag value. Object- and
// array-valued options report ok=false and are never forwarded.
func optionValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}

// kebabCase rewrites a camelCase option name by inserting a hyphen before
// each uppercase letter and lowercasing it: outputFormat -> output-format.
func kebabCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 2)
	for _, r := range name {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
