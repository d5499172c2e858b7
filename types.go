package pybuild

import (
	"log/slog"
	"os"
	"path/filepath"
)

// Dynamic metadata field names as they appear in pyproject.toml's
// [project].dynamic list. What core metadata calls Summary, PEP 621 calls
// description.
const (
	FieldVersion     = "version"
	FieldDescription = "description"
)

// Module describes where a Python module or package lives on disk.
//
// A Module is produced once per build by FindModule and is not modified
// afterwards:
//   - Name: The import name (e.g., "mypkg")
//   - FullPath: The package directory or the single .py file
//   - BasePath: The source root the module was searched from
//   - IsPackage: True for a package directory, false for a plain module file
type Module struct {
	Name      string
	FullPath  string
	BasePath  string
	IsPackage bool
}

// FilePath returns the source file holding the module's docstring and
// version: __init__.py for packages, the module file otherwise.
func (m *Module) FilePath() string {
	if m.IsPackage {
		return filepath.Join(m.FullPath, "__init__.py")
	}
	return m.FullPath
}

// ModuleConfig names the module to look for and the directory, relative to
// the project root, to look in. It mirrors [tool.py-build-cmake.module].
type ModuleConfig struct {
	Name      string
	Directory string
}

// Metadata is the subset of PEP 621 project metadata that dynamic
// resolution reads and writes.
//
// Dynamic lists the fields still to be resolved from the module source.
// UpdateDynamicMetadata fills in Version and Description and clears Dynamic.
type Metadata struct {
	Name        string
	Version     string
	Description string
	Dynamic     []string
}

// IsDynamic reports whether field is still listed as dynamic.
func (m *Metadata) IsDynamic(field string) bool {
	return containsString(m.Dynamic, field)
}

// ModuleInfo holds the fields extracted from a module. Only the requested
// fields are populated; HasSummary and HasVersion tell which.
type ModuleInfo struct {
	Summary    string
	Version    string
	HasSummary bool
	HasVersion bool
}

// PythonInfo describes the Python interpreter the build targets by default.
//
// Platform is the value of sysconfig.get_platform() (e.g. "win-amd64",
// "linux-x86_64"); Major and Minor come from sys.version_info.
type PythonInfo struct {
	Platform string `json:"platform" yaml:"platform"`
	Major    int    `json:"major" yaml:"major"`
	Minor    int    `json:"minor" yaml:"minor"`
}

// LookupEnvFunc looks up an environment variable. It has the signature of
// os.LookupEnv so tests can substitute a fixed environment.
type LookupEnvFunc func(key string) (string, bool)

func lookupEnvOrDefault(fn LookupEnvFunc) LookupEnvFunc {
	if fn == nil {
		return os.LookupEnv
	}
	return fn
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
