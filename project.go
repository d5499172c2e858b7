package pybuild

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// PyProjectFile is the name of the project configuration file.
const PyProjectFile = "pyproject.toml"

// pyProjectTOML is the part of pyproject.toml this package reads.
type pyProjectTOML struct {
	Project struct {
		Name        string   `toml:"name"`
		Version     string   `toml:"version"`
		Description string   `toml:"description"`
		Dynamic     []string `toml:"dynamic"`
	} `toml:"project"`

	Tool struct {
		PyBuildCMake struct {
			Module struct {
				Name      string `toml:"name"`
				Directory string `toml:"directory"`
			} `toml:"module"`
		} `toml:"py-build-cmake"`
	} `toml:"tool"`
}

// Project is a loaded pyproject.toml.
type Project struct {
	Dir      string
	Metadata Metadata
	Module   ModuleConfig
}

// LoadProject reads dir/pyproject.toml.
//
// The module name defaults to the project name with '-' and '.' replaced by
// '_', and the module directory defaults to ".". A field listed in
// [project].dynamic must not also be given a static value.
func LoadProject(dir string) (*Project, error) {
	path := filepath.Join(dir, PyProjectFile)

	var file pyProjectTOML
	if _, err := toml.DecodeFile(path, &file); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &ConfigError{Msg: fmt.Sprintf("No %s found in %s", PyProjectFile, dir), Err: err}
		}
		return nil, &ConfigError{Msg: fmt.Sprintf("Failed to parse %s", path), Err: err}
	}

	if file.Project.Name == "" {
		return nil, &ConfigError{Msg: fmt.Sprintf("Missing [project].name in %s", path)}
	}

	project := &Project{
		Dir: dir,
		Metadata: Metadata{
			Name:        file.Project.Name,
			Version:     file.Project.Version,
			Description: file.Project.Description,
			Dynamic:     uniqueStrings(file.Project.Dynamic),
		},
		Module: ModuleConfig{
			Name:      file.Tool.PyBuildCMake.Module.Name,
			Directory: file.Tool.PyBuildCMake.Module.Directory,
		},
	}

	if project.Metadata.IsDynamic(FieldVersion) && project.Metadata.Version != "" {
		return nil, &ConfigError{Msg: "Field 'version' is listed as dynamic but also has a static value"}
	}
	if project.Metadata.IsDynamic(FieldDescription) && project.Metadata.Description != "" {
		return nil, &ConfigError{Msg: "Field 'description' is listed as dynamic but also has a static value"}
	}

	if project.Module.Name == "" {
		project.Module.Name = moduleNameFromProject(file.Project.Name)
	}
	if project.Module.Directory == "" {
		project.Module.Directory = "."
	}

	return project, nil
}

func moduleNameFromProject(name string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(name)
}
