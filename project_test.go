package pybuild

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProject(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PyProjectFile, `
[project]
name = "fast-widgets.core"
dynamic = ["version", "description", "version"]

[tool.py-build-cmake.module]
directory = "python"
`)

	project, err := LoadProject(dir)
	require.NoError(t, err)

	assert.Equal(t, Metadata{
		Name:    "fast-widgets.core",
		Dynamic: []string{FieldVersion, FieldDescription},
	}, project.Metadata)
	assert.Equal(t, ModuleConfig{Name: "fast_widgets_core", Directory: "python"}, project.Module)
}

func TestLoadProjectDefaults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PyProjectFile, `
[project]
name = "widgets"
version = "1.0"
description = "Static description."

[tool.py-build-cmake.module]
name = "widgets_impl"
`)

	project, err := LoadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "1.0", project.Metadata.Version)
	assert.Empty(t, project.Metadata.Dynamic)
	assert.Equal(t, ModuleConfig{Name: "widgets_impl", Directory: "."}, project.Module)
}

func TestLoadProjectErrors(t *testing.T) {
	testCases := []struct {
		name    string
		content string // "" means no file
		message string
	}{
		{name: "missing file", message: "No pyproject.toml found"},
		{name: "invalid toml", content: "[project\n", message: "Failed to parse"},
		{name: "missing name", content: "[project]\nversion = \"1.0\"\n", message: "Missing [project].name"},
		{
			name:    "dynamic and static version",
			content: "[project]\nname = \"w\"\nversion = \"1.0\"\ndynamic = [\"version\"]\n",
			message: "Field 'version' is listed as dynamic",
		},
		{
			name:    "dynamic and static description",
			content: "[project]\nname = \"w\"\ndescription = \"d\"\ndynamic = [\"description\"]\n",
			message: "Field 'description' is listed as dynamic",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			if tc.content != "" {
				writeFile(t, dir, PyProjectFile, tc.content)
			}

			_, err := LoadProject(dir)
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tc.message)
		})
	}
}

func TestProjectMetadataEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, PyProjectFile, "[project]\nname = \"widgets\"\ndynamic = [\"version\", \"description\"]\n")
	writeFile(t, dir, "src/widgets/__init__.py", "\"\"\"Widgets for everyone.\n\nMore text.\n\"\"\"\n__version__ = \"0.2.0\"\n")

	project, err := LoadProject(dir)
	require.NoError(t, err)

	module, err := FindModule(project.Module, project.Dir)
	require.NoError(t, err)
	require.NotNil(t, module)

	report, err := NewExtractor(failingLoader{t}).UpdateDynamicMetadata(context.Background(), &project.Metadata, module.FilePath())
	require.NoError(t, err)
	assert.Empty(t, report.Unresolved)
	assert.Equal(t, Metadata{
		Name:        "widgets",
		Version:     "0.2",
		Description: "Widgets for everyone.",
	}, project.Metadata)
}
