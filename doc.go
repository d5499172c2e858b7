// Package pybuild provides the dynamic metadata and platform quirk support
// of a CMake-based Python build backend.
//
// # Dynamic Metadata
//
// Projects may list "version" and "description" under [project].dynamic in
// pyproject.toml. Their values are then taken from the project's module:
//   - version: the module-level __version__ string, normalized per PEP 440
//   - description: the first line of the module docstring
//
// The module source is parsed without being executed, so a package's
// dependencies need not be installed just to read its metadata. Only when
// static analysis cannot find a requested value is the module run in a
// Python subprocess.
//
// # Basic Usage
//
//	project, err := pybuild.LoadProject(".")
//	if err != nil {
//	    return err
//	}
//
//	module, err := pybuild.FindModule(project.Module, project.Dir)
//	if err != nil {
//	    return err
//	}
//
//	python, err := pybuild.FindPython(nil)
//	if err != nil {
//	    return err
//	}
//
//	extractor := pybuild.NewExtractor(&pybuild.PythonInterpreter{Path: python})
//	_, err = extractor.UpdateDynamicMetadata(ctx, &project.Metadata, module.FilePath())
//
// # Platform Quirks
//
// ConfigQuirks patches the build configuration tree for the host platform.
// On Windows, a DIST_EXTRA_CONFIG file whose build_ext.plat_name differs
// from the interpreter's platform turns on cross-compilation for the
// matching CMake generator platform:
//
//	err := pybuild.ConfigQuirks(tree, pybuild.QuirksOptions{Python: *info})
//	args := pybuild.CMakeConfigureArgs(tree, pybuild.CMakeOptions{SourceDir: ".", BuildDir: "build"})
//
// # Errors
//
// Failures are reported as *ConfigError (project layout), *MetadataError
// (module content; match ErrNoDocstring, ErrNoVersion or ErrInvalidVersion
// with errors.Is) and *ModuleLoadError (executing the module failed).
package pybuild
