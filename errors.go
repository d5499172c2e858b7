package pybuild

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel kinds carried by MetadataError. Match them with errors.Is:
//
//	if errors.Is(err, pybuild.ErrNoVersion) {
//	    // ask the user to add __version__
//	}
var (
	ErrNoDocstring    = errors.New("module has no docstring")
	ErrNoVersion      = errors.New("module has no version")
	ErrInvalidVersion = errors.New("module has an invalid version")
)

// ConfigError reports structural misconfiguration of the project: an
// ambiguous or missing module, or dynamic metadata that cannot be resolved.
type ConfigError struct {
	Msg string
	Err error // Underlying cause, if any
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// MetadataError reports malformed content in the target module.
//
// Kind is one of ErrNoDocstring, ErrNoVersion or ErrInvalidVersion.
type MetadataError struct {
	Kind error
	File string
	Msg  string
}

func (e *MetadataError) Error() string {
	return e.Msg
}

func (e *MetadataError) Unwrap() error {
	return e.Kind
}

func noDocstringError(file string) error {
	return &MetadataError{
		Kind: ErrNoDocstring,
		File: file,
		Msg:  fmt.Sprintf("The module '%s' is missing a docstring.", file),
	}
}

func noVersionError(file string) error {
	return &MetadataError{
		Kind: ErrNoVersion,
		File: file,
		Msg:  fmt.Sprintf("Please define a `__version__ = \"x.y.z\"` in your module '%s'.", file),
	}
}

func invalidVersionError(file, format string, args ...any) error {
	return &MetadataError{
		Kind: ErrInvalidVersion,
		File: file,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// ModuleLoadError reports that executing a module in the fallback loader
// failed, or that the loader could not produce a loadable module at all.
//
// The error message has the following shape:
//
//	Unable to import 'pkg/__init__.py': module raised an exception
//
//	Interpreter output:
//	Traceback (most recent call last):
//	...
type ModuleLoadError struct {
	File   string
	Reason string   // Short description, e.g. "missing spec"
	Output []string // Lines printed by the interpreter, if any
	Err    error    // Underlying cause, if any
}

func (e *ModuleLoadError) Error() string {
	prefix := fmt.Sprintf("Unable to import '%s' (%s)", e.File, e.Reason)
	if e.Err != nil {
		prefix = fmt.Sprintf("%s: %v", prefix, e.Err)
	}

	outputStr := strings.TrimRight(strings.Join(e.Output, "\n"), "\n")
	if outputStr != "" {
		return fmt.Sprintf("%s\n\nInterpreter output:\n%s", prefix, outputStr)
	}
	return prefix
}

func (e *ModuleLoadError) Unwrap() error {
	return e.Err
}
