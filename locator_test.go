package pybuild

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindModule(t *testing.T) {
	testCases := []struct {
		name      string
		files     []string
		directory string
		expected  string // Relative to the source dir
		isPackage bool
	}{
		{
			name:      "flat package",
			files:     []string{"foo/__init__.py"},
			directory: ".",
			expected:  "foo",
			isPackage: true,
		},
		{
			name:      "src package",
			files:     []string{"src/foo/__init__.py"},
			directory: ".",
			expected:  "src/foo",
			isPackage: true,
		},
		{
			name:      "flat module",
			files:     []string{"foo.py"},
			directory: ".",
			expected:  "foo.py",
		},
		{
			name:      "src module",
			files:     []string{"src/foo.py"},
			directory: ".",
			expected:  "src/foo.py",
		},
		{
			name:      "custom directory",
			files:     []string{"python/src/foo/__init__.py"},
			directory: "python",
			expected:  "python/src/foo",
			isPackage: true,
		},
		{
			name:      "file named like a package is ignored",
			files:     []string{"src/foo.py/README"},
			directory: ".",
			expected:  "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			srcDir := t.TempDir()
			for _, f := range tc.files {
				writeFile(t, srcDir, f, "")
			}

			module, err := FindModule(ModuleConfig{Name: "foo", Directory: tc.directory}, srcDir)
			if tc.expected == "" {
				var cfgErr *ConfigError
				require.ErrorAs(t, err, &cfgErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, &Module{
				Name:      "foo",
				FullPath:  filepath.Join(srcDir, filepath.FromSlash(tc.expected)),
				BasePath:  srcDir,
				IsPackage: tc.isPackage,
			}, module)
		})
	}
}

func TestFindModuleAmbiguous(t *testing.T) {
	srcDir := t.TempDir()
	writeFile(t, srcDir, "src/foo.py", "")
	writeFile(t, srcDir, "foo/__init__.py", "")

	_, err := FindModule(ModuleConfig{Name: "foo", Directory: "."}, srcDir)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "Module is ambiguous foo: "+
		filepath.Join(srcDir, "foo")+", "+filepath.Join(srcDir, "src", "foo.py"), cfgErr.Error())
}

func TestFindModuleMissing(t *testing.T) {
	_, err := FindModule(ModuleConfig{Name: "foo", Directory: "."}, t.TempDir())
	require.Error(t, err)
	assert.Equal(t, "No file/folder found for module foo", err.Error())
}

func TestFindModuleUnconfigured(t *testing.T) {
	module, err := FindModule(ModuleConfig{Directory: "."}, t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, module)

	module, err = FindModule(ModuleConfig{Name: "foo"}, t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, module)
}

func TestModuleFilePath(t *testing.T) {
	pkg := Module{Name: "foo", FullPath: filepath.Join("src", "foo"), IsPackage: true}
	assert.Equal(t, filepath.Join("src", "foo", "__init__.py"), pkg.FilePath())

	mod := Module{Name: "foo", FullPath: "foo.py"}
	assert.Equal(t, "foo.py", mod.FilePath())
}
