package pybuild

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// moduleCandidate is one place a module may live, with the kind of
// filesystem entry expected there.
type moduleCandidate struct {
	path      string
	isPackage bool
}

// FindModule locates the module named by cfg below srcDir.
//
// Exactly four locations are probed, relative to srcDir/cfg.Directory:
//  1. {name}/        as a package directory
//  2. src/{name}/    as a package directory
//  3. {name}.py      as a module file
//  4. src/{name}.py  as a module file
//
// # Parameters
//
//   - cfg: The module name and the directory to search, relative to srcDir
//   - srcDir: The project root
//
// # Returns
//
// Returns the single matching Module. A nil Module and nil error are
// returned when cfg.Name or cfg.Directory is empty. A *ConfigError is
// returned when no candidate exists, or when more than one does; the
// ambiguous matches are listed sorted.
//
// # Example
//
//	module, err := pybuild.FindModule(project.Module, project.Dir)
//	if err != nil {
//	    return err
//	}
//	info, err := extractor.InfoFromModule(ctx, module.FilePath(), fields)
func FindModule(cfg ModuleConfig, srcDir string) (*Module, error) {
	if cfg.Name == "" || cfg.Directory == "" {
		return nil, nil
	}

	baseDir := filepath.Join(srcDir, cfg.Directory)
	candidates := []moduleCandidate{
		{filepath.Join(baseDir, cfg.Name), true},
		{filepath.Join(baseDir, "src", cfg.Name), true},
		{filepath.Join(baseDir, cfg.Name+".py"), false},
		{filepath.Join(baseDir, "src", cfg.Name+".py"), false},
	}

	var found []moduleCandidate
	for _, c := range candidates {
		if candidateExists(c) {
			found = append(found, c)
		}
	}

	switch len(found) {
	case 0:
		return nil, &ConfigError{Msg: fmt.Sprintf("No file/folder found for module %s", cfg.Name)}
	case 1:
		return &Module{
			Name:      cfg.Name,
			FullPath:  found[0].path,
			BasePath:  srcDir,
			IsPackage: found[0].isPackage,
		}, nil
	}

	paths := make([]string, 0, len(found))
	for _, c := range found {
		paths = append(paths, c.path)
	}
	sort.Strings(paths)
	return nil, &ConfigError{Msg: fmt.Sprintf("Module is ambiguous %s: %s", cfg.Name, strings.Join(paths, ", "))}
}

func candidateExists(c moduleCandidate) bool {
	info, err := os.Stat(c.path)
	if err != nil {
		return false
	}
	if c.isPackage {
		return info.IsDir()
	}
	return info.Mode().IsRegular()
}
