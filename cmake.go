package pybuild

import (
	"fmt"
	"runtime"
	"sort"
)

// Build tool constants
const (
	unixMakefiles             = "Unix Makefiles"
	visualStudio              = "Visual Studio 17 2022"
	defaultBuildType          = "Release"
	platformWindows           = "windows"
	cmakeBuildTypeKey         = "CMAKE_BUILD_TYPE"
	cmakeToolchainKey         = "CMAKE_TOOLCHAIN_FILE"
	cmakeGeneratorEnv         = "CMAKE_GENERATOR"
	cmakeGeneratorPlatformKey = "CMAKE_GENERATOR_PLATFORM"
)

// CMakeOptions controls CMakeConfigureArgs.
type CMakeOptions struct {
	SourceDir string
	BuildDir  string

	// GOOS selects the default generator ("" = runtime.GOOS).
	GOOS string

	LookupEnv LookupEnvFunc
}

// CMakeConfigureArgs renders the arguments of the cmake configure step for
// the given configuration tree.
//
// Cache variables come from the cmake/options table, overlaid by
// cross/cmake/options when a cross-compilation block is present, and are
// emitted as sorted -D flags. A non-empty cross/toolchain_file becomes
// CMAKE_TOOLCHAIN_FILE. CMAKE_BUILD_TYPE defaults to Release.
//
// # Example
//
// For a tree patched by ConfigQuirks with plat_name win-arm64:
//
//	-S . -B build -G "Visual Studio 17 2022"
//	-DCMAKE_BUILD_TYPE=Release
//	-DCMAKE_GENERATOR_PLATFORM=arm64
//	-DCMAKE_SYSTEM_NAME=Windows
//	-DCMAKE_SYSTEM_PROCESSOR=arm64
func CMakeConfigureArgs(tree ConfigTree, opts CMakeOptions) []string {
	var args []string
	if opts.SourceDir != "" {
		args = append(args, "-S", opts.SourceDir)
	}
	if opts.BuildDir != "" {
		args = append(args, "-B", opts.BuildDir)
	}

	options := map[string]string{cmakeBuildTypeKey: defaultBuildType}
	for key, value := range stringMap(tree, Path{"cmake", "options"}) {
		options[key] = value
	}
	if tree.Contains(Path{"cross"}) {
		if toolchain, ok := tree.Get(Path{"cross", "toolchain_file"}); ok {
			if s, ok := toolchain.(string); ok && s != "" {
				options[cmakeToolchainKey] = s
			}
		}
		for key, value := range stringMap(tree, Path{"cross", "cmake", "options"}) {
			options[key] = value
		}
	}

	// CMAKE_GENERATOR_PLATFORM only works with multi-platform generators
	_, needsPlatform := options[cmakeGeneratorPlatformKey]
	if generator := getGenerator(opts, needsPlatform); generator != "" {
		args = append(args, "-G", generator)
	}

	keys := make([]string, 0, len(options))
	for key := range options {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		args = append(args, fmt.Sprintf("-D%s=%s", key, options[key]))
	}

	return args
}

// getGenerator returns the appropriate CMake generator for the platform
func getGenerator(opts CMakeOptions, needsPlatform bool) string {
	// Check environment variable first
	if generator, ok := lookupEnvOrDefault(opts.LookupEnv)(cmakeGeneratorEnv); ok && generator != "" {
		return generator
	}

	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	switch {
	case goos == platformWindows || needsPlatform:
		return visualStudio
	default:
		return unixMakefiles
	}
}
