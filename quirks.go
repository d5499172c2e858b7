package pybuild

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/ini.v1"
)

// DistExtraConfigEnv names the environment variable pointing at a
// distutils-style configuration file (as set by cibuildwheel and friends).
const DistExtraConfigEnv = "DIST_EXTRA_CONFIG"

// windowsCMakePlatforms maps distutils plat_name values to CMake generator
// platforms.
var windowsCMakePlatforms = map[string]string{
	"win32":     "x86",
	"win-amd64": "x64",
	"win-arm32": "arm",
	"win-arm64": "arm64",
}

// QuirksOptions describes the host a configuration is being patched for.
type QuirksOptions struct {
	// System is the operating system name as Python's platform.system()
	// reports it ("Windows", "Linux", "Darwin"). Defaults to the name
	// matching runtime.GOOS.
	System string

	// Python describes the interpreter being built for. Its Platform is
	// compared against plat_name and its version selects the import
	// library name.
	Python PythonInfo

	LookupEnv LookupEnvFunc
	Logger    *slog.Logger
}

// QuirkFunc adjusts a configuration tree for one operating system.
type QuirkFunc func(tree ConfigTree, opts *QuirksOptions) error

// QuirkRegistry maps operating system names to quirk handlers.
//
// # Usage
//
// Apply the standard quirks:
//
//	err := pybuild.ConfigQuirks(tree, pybuild.QuirksOptions{Python: *info})
//
// Or register additional handlers:
//
//	registry := pybuild.NewQuirkRegistry()
//	registry.Register("Darwin", myMacQuirks)
//	err := registry.Apply(tree, &opts)
//
// # Thread Safety
//
// QuirkRegistry is NOT thread-safe for registration.
// Register all handlers before use.
type QuirkRegistry struct {
	handlers map[string]QuirkFunc
}

// NewQuirkRegistry creates a registry with the standard handlers. Only
// Windows currently has one.
func NewQuirkRegistry() *QuirkRegistry {
	registry := &QuirkRegistry{}
	registry.Register("Windows", configQuirksWin)
	return registry
}

// Register sets the handler for system, replacing any previous one.
func (r *QuirkRegistry) Register(system string, fn QuirkFunc) {
	if r.handlers == nil {
		r.handlers = make(map[string]QuirkFunc)
	}
	r.handlers[system] = fn
}

// HandlerFor returns the handler registered for system.
func (r *QuirkRegistry) HandlerFor(system string) (QuirkFunc, bool) {
	fn, ok := r.handlers[system]
	return fn, ok
}

// Apply runs the handler for opts.System, if any. Systems without a
// handler leave the tree untouched.
func (r *QuirkRegistry) Apply(tree ConfigTree, opts *QuirksOptions) error {
	if opts.System == "" {
		opts.System = systemName(runtime.GOOS)
	}
	fn, ok := r.HandlerFor(opts.System)
	if !ok {
		return nil
	}
	return fn(tree, opts)
}

// ConfigQuirks applies the standard platform quirks to tree.
func ConfigQuirks(tree ConfigTree, opts QuirksOptions) error {
	return NewQuirkRegistry().Apply(tree, &opts)
}

// systemName converts a GOOS value to the platform.system() spelling.
func systemName(goos string) string {
	switch goos {
	case "windows":
		return "Windows"
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "freebsd":
		return "FreeBSD"
	case "openbsd":
		return "OpenBSD"
	case "netbsd":
		return "NetBSD"
	}
	if goos == "" {
		return ""
	}
	return strings.ToUpper(goos[:1]) + goos[1:]
}

// configQuirksWin enables cross-compilation when DIST_EXTRA_CONFIG asks for
// a plat_name other than the interpreter's own. Explicit cross
// configuration is never overwritten.
func configQuirksWin(tree ConfigTree, opts *QuirksOptions) error {
	logger := loggerOrDefault(opts.Logger)

	distExtraConf, ok := lookupEnvOrDefault(opts.LookupEnv)(DistExtraConfigEnv)
	if !ok {
		return nil
	}

	if tree.Contains(Path{"cross"}) {
		logger.Warn("Cross-compilation configuration was not empty, so I'm ignoring " + DistExtraConfigEnv)
		return nil
	}
	if !tree.Contains(Path{"cmake"}) {
		logger.Warn("CMake configuration was empty, so I'm ignoring " + DistExtraConfigEnv)
		return nil
	}

	return handleDistExtraConfigWin(tree, opts, distExtraConf)
}

func handleDistExtraConfigWin(tree ConfigTree, opts *QuirksOptions, distExtraConf string) error {
	platName, libraryDirs, err := readBuildExt(distExtraConf)
	if err != nil {
		return err
	}

	if platName != "" && platName != opts.Python.Platform {
		return handleCrossWin(tree, opts, platName, libraryDirs)
	}
	return nil
}

// readBuildExt returns plat_name and library_dirs from the build_ext
// section of a distutils configuration file. A missing file reads as empty.
// Values are taken verbatim, as configparser does: ';' and '#' never start
// an inline comment.
func readBuildExt(path string) (platName, libraryDirs string, err error) {
	distCfg, err := ini.LoadSources(ini.LoadOptions{
		Loose:                      true,
		InsensitiveKeys:            true,
		IgnoreInlineComment:        true,
		AllowPythonMultilineValues: true,
	}, path)
	if err != nil {
		return "", "", &ConfigError{Msg: fmt.Sprintf("Failed to read %s file %s", DistExtraConfigEnv, path), Err: err}
	}

	buildExt := distCfg.Section("build_ext")
	return buildExt.Key("plat_name").String(), buildExt.Key("library_dirs").String(), nil
}

func handleCrossWin(tree ConfigTree, opts *QuirksOptions, platName, libraryDirs string) error {
	cmakePlatform, ok := windowsCMakePlatforms[platName]
	if !ok {
		return nil
	}
	return crossCompileWin(tree, opts, platName, libraryDirs, cmakePlatform)
}

func crossCompileWin(tree ConfigTree, opts *QuirksOptions, platName, libraryDirs, cmakePlatform string) error {
	logger := loggerOrDefault(opts.Logger)
	logger.Warn(DistExtraConfigEnv+".build_ext specified plat_name that is different from the current platform. "+
		"Automatically enabling cross-compilation for "+cmakePlatform,
		"plat_name", platName, "platform", opts.Python.Platform)

	if tree.Contains(Path{"cross"}) {
		return fmt.Errorf("cross-compilation configuration appeared while applying %s", DistExtraConfigEnv)
	}

	cross := map[string]any{
		"os":             "windows",
		"toolchain_file": "",
		"arch":           PlatformTag(platName),
		"cmake": map[string]any{
			"options": map[string]any{
				"CMAKE_SYSTEM_NAME":        "Windows",
				"CMAKE_SYSTEM_PROCESSOR":   cmakePlatform,
				"CMAKE_GENERATOR_PLATFORM": cmakePlatform,
			},
		},
	}

	if pythonLib := FindPythonLib(filepath.SplitList(libraryDirs), opts.Python); pythonLib != "" {
		cross["library"] = pythonLib
		pythonRoot := filepath.Dir(filepath.Dir(pythonLib))
		if _, err := os.Stat(filepath.Join(pythonRoot, "include")); err == nil {
			cross["root"] = pythonRoot
		}
	} else {
		logger.Warn("Python library was not found in "+DistExtraConfigEnv+".build_ext.library_dirs.",
			"library_dirs", libraryDirs)
	}

	tree.SetDefault(Path{"cross"}, cross)
	return nil
}

// PlatformTag converts a platform name to a wheel platform tag, e.g.
// "win-amd64" to "win_amd64".
func PlatformTag(platform string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(platform)
}

// FindPythonLib returns the first python{major}{minor}.lib, or failing that
// python{major}.lib, found in libraryDirs, checked one directory at a time.
// It returns "" when there is none.
func FindPythonLib(libraryDirs []string, python PythonInfo) string {
	names := []string{
		fmt.Sprintf("python%d%d.lib", python.Major, python.Minor),
		fmt.Sprintf("python%d.lib", python.Major),
	}

	for _, dir := range libraryDirs {
		if dir == "" {
			continue
		}
		for _, name := range names {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	return ""
}
