package pybuild

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Extractor resolves dynamic project metadata from a module's source.
//
// Static analysis is always tried first so a package's summary and version
// can be read without its runtime dependencies being installed. Only when a
// requested field is still missing is the module executed through Loader.
//
// # Usage
//
//	extractor := pybuild.NewExtractor(&pybuild.PythonInterpreter{Path: "python3"})
//
//	info, err := extractor.InfoFromModule(ctx, "src/mypkg/__init__.py",
//	    []string{pybuild.FieldVersion, pybuild.FieldDescription})
//
// # Thread Safety
//
// Extractor is NOT thread-safe: its LoadScope counts loads without locking.
type Extractor struct {
	// Loader executes modules when static analysis is not enough. A nil
	// Loader makes every fallback fail with a ModuleLoadError.
	Loader Loader

	// Scope provides isolated namespaces for Loader.
	Scope *LoadScope

	// StrictDynamic makes UpdateDynamicMetadata fail instead of silently
	// dropping dynamic fields the module could not provide.
	StrictDynamic bool

	Logger *slog.Logger
}

// NewExtractor creates an Extractor that falls back to loader.
func NewExtractor(loader Loader) *Extractor {
	return &Extractor{
		Loader: loader,
		Scope:  NewLoadScope("pybuild_dummy"),
	}
}

// InfoFromModule extracts the requested fields from the module file at path.
//
// fields holds pyproject field names: FieldDescription yields
// ModuleInfo.Summary (the first line of the docstring) and FieldVersion
// yields ModuleInfo.Version in canonical PEP 440 form. Other names are
// ignored. With no fields nothing is read and an empty ModuleInfo is
// returned.
//
// # Errors
//
//   - MetadataError wrapping ErrNoDocstring when the docstring is missing or blank
//   - MetadataError wrapping ErrNoVersion or ErrInvalidVersion from CheckVersion
//   - ModuleLoadError when the fallback execution fails
func (e *Extractor) InfoFromModule(ctx context.Context, path string, fields []string) (*ModuleInfo, error) {
	info := &ModuleInfo{}
	if len(fields) == 0 {
		return info, nil
	}

	logger := loggerOrDefault(e.Logger)
	wantSummary := containsString(fields, FieldDescription)
	wantVersion := containsString(fields, FieldVersion)

	logger.Debug("Loading module", "file", path)

	src, err := DocstringAndVersionFromSource(ctx, path, logger)
	if err != nil {
		return nil, err
	}
	docstring := src.Docstring
	var version any = src.Version

	if (wantSummary && docstring == "") || (wantVersion && src.Version == "") {
		logger.Debug("Static analysis incomplete, executing module", "file", path)
		loaded, err := e.load(ctx, path)
		if err != nil {
			return nil, err
		}
		docstring = loaded.Docstring
		version = loaded.Version
	}

	if wantSummary {
		if isBlank(docstring) {
			return nil, noDocstringError(path)
		}
		info.Summary = firstLine(trimLeftSpace(docstring))
		info.HasSummary = true
	}

	if wantVersion {
		canonical, err := CheckVersion(version, path, logger)
		if err != nil {
			return nil, err
		}
		info.Version = canonical
		info.HasVersion = true
	}

	return info, nil
}

func (e *Extractor) load(ctx context.Context, path string) (*LoadedModule, error) {
	if e.Loader == nil {
		return nil, &ModuleLoadError{File: path, Reason: "no Python interpreter available"}
	}

	scope := e.Scope
	if scope == nil {
		scope = NewLoadScope("")
		e.Scope = scope
	}

	ns, release, err := scope.Acquire()
	if err != nil {
		return nil, &ModuleLoadError{File: path, Reason: "cannot create namespace", Err: err}
	}
	defer release()

	return e.Loader.LoadModule(ctx, ns, path)
}

// UpdateReport lists what UpdateDynamicMetadata did with the dynamic fields.
type UpdateReport struct {
	Resolved   []string
	Unresolved []string // Fields cleared from Dynamic without a value
}

// UpdateDynamicMetadata fills the dynamic fields of meta from the module
// file at modulePath and clears meta.Dynamic.
//
// With an empty modulePath there is nowhere to resolve fields from: a
// ConfigError is returned if meta still lists dynamic fields, otherwise
// nothing happens.
//
// Dynamic is cleared even when the module could not provide every listed
// field (e.g. "readme"); such fields are reported in
// UpdateReport.Unresolved and logged as warnings. Set StrictDynamic to turn
// them into a ConfigError, in which case meta is left untouched.
func (e *Extractor) UpdateDynamicMetadata(ctx context.Context, meta *Metadata, modulePath string) (*UpdateReport, error) {
	report := &UpdateReport{}

	if modulePath == "" {
		if len(meta.Dynamic) > 0 {
			return nil, &ConfigError{Msg: "If no module is specified, dynamic metadata is not allowed"}
		}
		return report, nil
	}

	info, err := e.InfoFromModule(ctx, modulePath, meta.Dynamic)
	if err != nil {
		return nil, err
	}

	for _, field := range uniqueStrings(meta.Dynamic) {
		switch {
		case field == FieldVersion && info.HasVersion,
			field == FieldDescription && info.HasSummary:
			report.Resolved = append(report.Resolved, field)
		default:
			report.Unresolved = append(report.Unresolved, field)
		}
	}

	if len(report.Unresolved) > 0 && e.StrictDynamic {
		return nil, &ConfigError{Msg: fmt.Sprintf(
			"Dynamic fields cannot be resolved from module '%s': %s",
			modulePath, strings.Join(report.Unresolved, ", "))}
	}

	logger := loggerOrDefault(e.Logger)
	for _, field := range report.Unresolved {
		logger.Warn("Dynamic field not provided by module, dropping it", "field", field, "file", modulePath)
	}

	if info.HasVersion {
		meta.Version = info.Version
	}
	if info.HasSummary {
		meta.Description = info.Summary
	}
	meta.Dynamic = nil

	return report, nil
}
