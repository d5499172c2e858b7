package pybuild

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requirePython returns an interpreter for tests that execute modules.
func requirePython(t *testing.T) *PythonInterpreter {
	t.Helper()
	path, err := exec.LookPath("python3")
	if err != nil {
		t.Skip("python3 not available")
	}
	logger, _ := newTestLogger()
	return &PythonInterpreter{Path: path, Logger: logger}
}

func loadInScope(t *testing.T, python *PythonInterpreter, path string) (*LoadedModule, error) {
	t.Helper()
	ns, release, err := NewLoadScope("pybuild_test").Acquire()
	require.NoError(t, err)
	defer release()
	return python.LoadModule(context.Background(), ns, path)
}

func TestLoadScopeAcquire(t *testing.T) {
	scope := &LoadScope{TempDir: t.TempDir()}

	first, releaseFirst, err := scope.Acquire()
	require.NoError(t, err)
	second, releaseSecond, err := scope.Acquire()
	require.NoError(t, err)

	assert.Equal(t, "pybuild_dummy.import1", first.ModuleName)
	assert.Equal(t, "pybuild_dummy.import2", second.ModuleName)
	assert.NotEqual(t, first.Dir, second.Dir)
	assert.DirExists(t, first.Dir)

	releaseFirst()
	releaseSecond()
	assert.NoDirExists(t, first.Dir)
	assert.NoDirExists(t, second.Dir)
}

func TestDecodePyValue(t *testing.T) {
	testCases := []struct {
		raw      string
		expected any
	}{
		{``, nil},
		{`null`, nil},
		{`"1.0"`, "1.0"},
		{`{"type": "<class 'int'>", "truthy": true, "repr": "42"}`, PyValue{Type: "<class 'int'>", Truthy: true, Repr: "42"}},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			got, err := decodePyValue(json.RawMessage(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}

	_, err := decodePyValue(json.RawMessage(`[1, 2]`))
	assert.Error(t, err)
}

func TestPythonInterpreterLoadModule(t *testing.T) {
	python := requirePython(t)
	dir := t.TempDir()

	writeFile(t, dir, "pkg/_version.py", "version = '1.2.0'\n")
	path := writeFile(t, dir, "pkg/__init__.py",
		"'''Runtime package.'''\nimport logging\nlogging.basicConfig()\nfrom ._version import version as __version__\n")

	loaded, err := loadInScope(t, python, path)
	require.NoError(t, err)
	assert.Equal(t, "Runtime package.", loaded.Docstring)
	assert.Equal(t, "1.2.0", loaded.Version)

	// Nothing may be left behind next to the module.
	_, err = os.Stat(filepath.Join(dir, "pkg", "__pycache__"))
	assert.True(t, os.IsNotExist(err))
}

func TestPythonInterpreterLoadModuleRestoresState(t *testing.T) {
	python := requirePython(t)
	path := writeFile(t, t.TempDir(), "noisy.py",
		"import logging, sys\n"+
			"logging.basicConfig()\n"+
			"logging.getLogger().addHandler(logging.NullHandler())\n"+
			"sys.modules[__name__].marker = 1\n"+
			"__version__ = '1.0'\n")

	ns, release, err := NewLoadScope("pybuild_test").Acquire()
	require.NoError(t, err)
	defer release()

	loaded, err := python.LoadModule(context.Background(), ns, path)
	require.NoError(t, err)
	assert.Equal(t, "1.0", loaded.Version)

	data, err := os.ReadFile(filepath.Join(ns.Dir, "result.json"))
	require.NoError(t, err)

	var state struct {
		Registered       bool `json:"registered"`
		HandlersRestored bool `json:"handlers_restored"`
	}
	require.NoError(t, json.Unmarshal(data, &state))
	assert.False(t, state.Registered, "module left in sys.modules")
	assert.True(t, state.HandlersRestored, "root logging handlers not restored")
}

func TestPythonInterpreterLoadModuleValues(t *testing.T) {
	python := requirePython(t)
	dir := t.TempDir()

	testCases := []struct {
		name     string
		source   string
		expected *LoadedModule
	}{
		{
			name:     "no globals",
			source:   "x = 1\n",
			expected: &LoadedModule{},
		},
		{
			name:   "integer version",
			source: "'''Doc.'''\n__version__ = 42\n",
			expected: &LoadedModule{
				Docstring: "Doc.",
				Version:   PyValue{Type: "<class 'int'>", Truthy: true, Repr: "42"},
			},
		},
		{
			name:     "empty tuple version",
			source:   "__version__ = ()\n",
			expected: &LoadedModule{Version: PyValue{Type: "<class 'tuple'>", Truthy: false, Repr: "()"}},
		},
		{
			name:     "computed docstring",
			source:   "__doc__ = 'Built ' + 'at runtime.'\n__version__ = '.'.join(['1', '0'])\n",
			expected: &LoadedModule{Docstring: "Built at runtime.", Version: "1.0"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeFile(t, dir, strings.ReplaceAll(tc.name, " ", "_")+".py", tc.source)

			loaded, err := loadInScope(t, python, path)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, loaded)
		})
	}
}

func TestPythonInterpreterLoadModuleRaises(t *testing.T) {
	python := requirePython(t)
	path := writeFile(t, t.TempDir(), "broken.py", "raise RuntimeError('boom')\n")

	_, err := loadInScope(t, python, path)

	var loadErr *ModuleLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "module raised an exception", loadErr.Reason)
	assert.Contains(t, err.Error(), "RuntimeError: boom")
}

func TestPythonInterpreterLoadModuleMissingSpec(t *testing.T) {
	python := requirePython(t)
	path := writeFile(t, t.TempDir(), "data.txt", "not python\n")

	_, err := loadInScope(t, python, path)

	var loadErr *ModuleLoadError
	require.ErrorAs(t, err, &loadErr)
	assert.Equal(t, "missing spec", loadErr.Reason)
}

func TestExtractorWithInterpreter(t *testing.T) {
	python := requirePython(t)
	dir := t.TempDir()
	writeFile(t, dir, "pkg/_version.py", "__version__ = '2.0.0'\n")
	path := writeFile(t, dir, "pkg/__init__.py", "\"\"\"Doc line.\"\"\"\nfrom ._version import __version__\n")

	info, err := NewExtractor(python).InfoFromModule(context.Background(), path, []string{FieldVersion, FieldDescription})
	require.NoError(t, err)
	assert.Equal(t, "2.0", info.Version)
	assert.Equal(t, "Doc line.", info.Summary)
}

func TestPythonInterpreterProbe(t *testing.T) {
	python := requirePython(t)

	info, err := python.Probe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, info.Major)
	assert.NotEmpty(t, info.Platform)

	missing := &PythonInterpreter{Path: filepath.Join(t.TempDir(), "no-python")}
	_, err = missing.Probe(context.Background())
	assert.Error(t, err)
}
