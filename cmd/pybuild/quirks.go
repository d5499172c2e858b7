package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	pybuild "github.com/contriboss/py-build-cmake-go"
)

func loadTree(path string) (*pybuild.ConfigNode, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return pybuild.LoadConfigNode(f)
}

// pythonInfo returns the interpreter description given on the command line,
// probing the interpreter for whatever was left out.
func pythonInfo(ctx context.Context, python, platform, version string) (pybuild.PythonInfo, error) {
	var info pybuild.PythonInfo
	if version != "" {
		if _, err := fmt.Sscanf(version, "%d.%d", &info.Major, &info.Minor); err != nil {
			return info, fmt.Errorf("invalid --python-version %q: %w", version, err)
		}
	}
	info.Platform = platform

	if info.Platform != "" && version != "" {
		return info, nil
	}

	if python == "" {
		var err error
		if python, err = pybuild.FindPython(nil); err != nil {
			return info, fmt.Errorf("--host-platform and --python-version are required without an interpreter: %w", err)
		}
	}

	probed, err := (&pybuild.PythonInterpreter{Path: python}).Probe(ctx)
	if err != nil {
		return info, err
	}
	if info.Platform == "" {
		info.Platform = probed.Platform
	}
	if version == "" {
		info.Major, info.Minor = probed.Major, probed.Minor
	}
	return info, nil
}

func newQuirksCmd() *cobra.Command {
	var configPath, system, python, hostPlatform, pythonVersion string

	cmd := &cobra.Command{
		Use:   "quirks",
		Short: "Apply platform quirks to a configuration tree and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := loadTree(configPath)
			if err != nil {
				return err
			}

			opts := pybuild.QuirksOptions{System: system, Logger: slog.Default()}
			if opts.System == "Windows" || (opts.System == "" && runtime.GOOS == "windows") {
				if opts.Python, err = pythonInfo(cmd.Context(), python, hostPlatform, pythonVersion); err != nil {
					return err
				}
			}

			if err := pybuild.ConfigQuirks(tree, opts); err != nil {
				return err
			}
			return tree.WriteYAML(cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration tree (required)")
	cmd.Flags().StringVar(&system, "system", "", "operating system name as reported by platform.system()")
	cmd.Flags().StringVar(&python, "python", "", "Python interpreter to probe")
	cmd.Flags().StringVar(&hostPlatform, "host-platform", "", "interpreter platform tag, e.g. win-amd64")
	cmd.Flags().StringVar(&pythonVersion, "python-version", "", "interpreter version as major.minor")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func newCMakeArgsCmd() *cobra.Command {
	var configPath, sourceDir, buildDir string
	var checkTools bool

	cmd := &cobra.Command{
		Use:   "cmake-args",
		Short: "Print the cmake configure arguments for a configuration tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			if checkTools {
				if err := pybuild.CheckRequiredTools([]pybuild.ToolRequirement{pybuild.CMakeRequirement}); err != nil {
					return err
				}
			}

			tree, err := loadTree(configPath)
			if err != nil {
				return err
			}

			cmakeArgs := pybuild.CMakeConfigureArgs(tree, pybuild.CMakeOptions{
				SourceDir: sourceDir,
				BuildDir:  buildDir,
			})
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(cmakeArgs, "\n"))
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "YAML configuration tree (required)")
	cmd.Flags().StringVar(&sourceDir, "source-dir", ".", "CMake source directory")
	cmd.Flags().StringVar(&buildDir, "build-dir", "build", "CMake build directory")
	cmd.Flags().BoolVar(&checkTools, "check-tools", false, "verify cmake is installed first")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}
