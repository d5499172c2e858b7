package pybuild

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

//go:embed load_module.py
var loadModuleScript []byte

// Exit codes of load_module.py.
const (
	exitMissingSpec   = 3
	exitMissingLoader = 4
	exitExecFailed    = 5
)

const probeScript = `import json, sys, sysconfig
json.dump({"platform": sysconfig.get_platform(), "major": sys.version_info[0], "minor": sys.version_info[1]}, sys.stdout)`

// Loader executes a module and reports its __doc__ and __version__.
//
// It is the fallback used when static analysis cannot find a requested
// field. Implementations must run the module in the namespace they are
// handed and must not leave it registered anywhere afterwards.
type Loader interface {
	LoadModule(ctx context.Context, ns *Namespace, path string) (*LoadedModule, error)
}

// LoadedModule holds the two globals read from an executed module.
//
// Version is nil when __version__ is absent, a string when it is a str, and
// a PyValue for any other Python object.
type LoadedModule struct {
	Docstring string
	Version   any
}

// PyValue describes a non-string Python object well enough to validate it.
type PyValue struct {
	Type   string `json:"type"`   // e.g. "<class 'int'>"
	Truthy bool   `json:"truthy"` // bool(value)
	Repr   string `json:"repr"`
}

// LoadScope hands out disposable namespaces for fallback module loads.
//
// Every namespace gets a module name no earlier load from the same scope
// used, so cached imports of the same file can never be picked up, and a
// private scratch directory that is removed on release.
//
// # Thread Safety
//
// LoadScope is NOT thread-safe. A build loads modules one at a time.
type LoadScope struct {
	// Prefix is the dotted package the unique module names live under.
	Prefix string

	// TempDir is where scratch directories are created ("" = os.TempDir()).
	TempDir string

	count int
}

// NewLoadScope creates a scope whose module names start with prefix.
func NewLoadScope(prefix string) *LoadScope {
	return &LoadScope{Prefix: prefix}
}

// Namespace is a single-use isolation scope for executing one module.
type Namespace struct {
	ModuleName string // Unique import name, e.g. "pybuild_dummy.import3"
	Dir        string // Scratch directory owned by this namespace
}

// Acquire creates a fresh namespace. The returned release function removes
// the scratch directory and must be called exactly once, typically with
// defer, whether or not the load succeeded.
func (s *LoadScope) Acquire() (*Namespace, func(), error) {
	s.count++

	prefix := s.Prefix
	if prefix == "" {
		prefix = "pybuild_dummy"
	}

	dir, err := os.MkdirTemp(s.TempDir, "pybuild-load-")
	if err != nil {
		return nil, nil, fmt.Errorf("creating load namespace: %w", err)
	}

	ns := &Namespace{
		ModuleName: fmt.Sprintf("%s.import%d", prefix, s.count),
		Dir:        dir,
	}
	release := func() {
		_ = os.RemoveAll(dir)
	}
	return ns, release, nil
}

// PythonInterpreter runs modules and probes in a Python subprocess.
//
// Modules are executed by an embedded loader script that:
//   - imports the file under the namespace's unique module name
//   - saves and restores the root logger's handlers around execution
//   - removes the module from sys.modules whether or not it raised
//   - writes __doc__ and __version__ to a result file in the namespace,
//     along with whether the module name and logging handlers were released
//
// Bytecode writing is disabled so loading a module leaves no files behind.
type PythonInterpreter struct {
	Path   string            // Interpreter executable
	Env    map[string]string // Extra environment variables
	Logger *slog.Logger
}

// LoadModule executes the module at path inside ns.
func (p *PythonInterpreter) LoadModule(ctx context.Context, ns *Namespace, path string) (*LoadedModule, error) {
	logger := loggerOrDefault(p.Logger)

	scriptPath := filepath.Join(ns.Dir, "load_module.py")
	if err := os.WriteFile(scriptPath, loadModuleScript, 0o600); err != nil {
		return nil, &ModuleLoadError{File: path, Reason: "cannot stage loader", Err: err}
	}
	resultPath := filepath.Join(ns.Dir, "result.json")

	args := []string{"-B", scriptPath, path, ns.ModuleName, resultPath}
	cmd := exec.CommandContext(ctx, p.Path, args...)
	cmd.Env = p.environ()

	logger.Debug("Executing module", "file", path, "module", ns.ModuleName,
		"command", p.Path+" "+strings.Join(args, " "))

	output, err := cmd.CombinedOutput()
	lines := splitOutput(output)
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			switch exitErr.ExitCode() {
			case exitMissingSpec:
				return nil, &ModuleLoadError{File: path, Reason: "missing spec", Output: lines}
			case exitMissingLoader:
				return nil, &ModuleLoadError{File: path, Reason: "missing loader", Output: lines}
			case exitExecFailed:
				return nil, &ModuleLoadError{File: path, Reason: "module raised an exception", Output: lines}
			}
		}
		return nil, &ModuleLoadError{File: path, Reason: "interpreter failed", Output: lines, Err: err}
	}

	data, err := os.ReadFile(resultPath)
	if err != nil {
		return nil, &ModuleLoadError{File: path, Reason: "no result", Output: lines, Err: err}
	}

	var result struct {
		Doc              *string         `json:"doc"`
		Version          json.RawMessage `json:"version"`
		Registered       bool            `json:"registered"`
		HandlersRestored bool            `json:"handlers_restored"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &ModuleLoadError{File: path, Reason: "malformed result", Output: lines, Err: err}
	}
	if result.Registered || !result.HandlersRestored {
		return nil, &ModuleLoadError{File: path, Reason: "interpreter state not restored", Output: lines}
	}

	loaded := &LoadedModule{}
	if result.Doc != nil {
		loaded.Docstring = *result.Doc
	}
	if loaded.Version, err = decodePyValue(result.Version); err != nil {
		return nil, &ModuleLoadError{File: path, Reason: "malformed result", Output: lines, Err: err}
	}
	return loaded, nil
}

// Probe asks the interpreter for its platform tag and version.
func (p *PythonInterpreter) Probe(ctx context.Context) (*PythonInfo, error) {
	cmd := exec.CommandContext(ctx, p.Path, "-c", probeScript)
	cmd.Env = p.environ()

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w: %s", p.Path, err, strings.TrimSpace(stderr.String()))
	}

	info := &PythonInfo{}
	if err := json.Unmarshal(output, info); err != nil {
		return nil, fmt.Errorf("probing %s: %w", p.Path, err)
	}
	return info, nil
}

func (p *PythonInterpreter) environ() []string {
	env := os.Environ()
	for key, value := range p.Env {
		env = append(env, fmt.Sprintf("%s=%s", key, value))
	}
	return env
}

// decodePyValue turns the loader's JSON encoding of a Python value back into
// nil, a string or a PyValue.
func decodePyValue(raw json.RawMessage) (any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}

	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil, err
		}
		return s, nil
	}

	var v PyValue
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, err
	}
	return v, nil
}
