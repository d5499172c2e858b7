package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	pybuild "github.com/contriboss/py-build-cmake-go"
)

type metadataOutput struct {
	Name        string   `yaml:"name"`
	Version     string   `yaml:"version,omitempty"`
	Description string   `yaml:"description,omitempty"`
	Module      string   `yaml:"module,omitempty"`
	Unresolved  []string `yaml:"unresolved,omitempty"`
}

func newMetadataCmd() *cobra.Command {
	var (
		python string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "metadata [project-dir]",
		Short: "Resolve the dynamic metadata of a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			project, err := pybuild.LoadProject(dir)
			if err != nil {
				return err
			}

			module, err := pybuild.FindModule(project.Module, project.Dir)
			if err != nil {
				return err
			}
			var modulePath string
			if module != nil {
				modulePath = module.FilePath()
			}

			extractor := pybuild.NewExtractor(nil)
			extractor.StrictDynamic = strict
			extractor.Logger = slog.Default()

			if python == "" {
				if python, err = pybuild.FindPython(nil); err != nil {
					slog.Debug("No Python interpreter, module execution disabled", "error", err)
				}
			}
			if python != "" {
				extractor.Loader = &pybuild.PythonInterpreter{Path: python, Logger: slog.Default()}
			}

			report, err := extractor.UpdateDynamicMetadata(cmd.Context(), &project.Metadata, modulePath)
			if err != nil {
				return err
			}

			return writeYAML(cmd.OutOrStdout(), metadataOutput{
				Name:        project.Metadata.Name,
				Version:     project.Metadata.Version,
				Description: project.Metadata.Description,
				Module:      modulePath,
				Unresolved:  report.Unresolved,
			})
		},
	}

	cmd.Flags().StringVar(&python, "python", "", "Python interpreter used when the module must be executed")
	cmd.Flags().BoolVar(&strict, "strict-dynamic", false, "fail when a dynamic field cannot be resolved")
	return cmd
}

func newCheckVersionCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "check-version <version>",
		Short: "Validate a version and print its canonical PEP 440 form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			canonical, err := pybuild.CheckVersion(args[0], file, slog.Default())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), canonical)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "<command line>", "file name used in error messages")
	return cmd
}

type moduleOutput struct {
	Name      string `yaml:"name"`
	FullPath  string `yaml:"full_path"`
	BasePath  string `yaml:"base_path"`
	IsPackage bool   `yaml:"is_package"`
}

func newFindModuleCmd() *cobra.Command {
	var dir, root string

	cmd := &cobra.Command{
		Use:   "find-module <name>",
		Short: "Locate a module or package under the project root",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			module, err := pybuild.FindModule(pybuild.ModuleConfig{Name: args[0], Directory: dir}, root)
			if err != nil {
				return err
			}
			if module == nil {
				return nil
			}
			return writeYAML(cmd.OutOrStdout(), moduleOutput{
				Name:      module.Name,
				FullPath:  module.FullPath,
				BasePath:  module.BasePath,
				IsPackage: module.IsPackage,
			})
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "directory to search, relative to --root")
	cmd.Flags().StringVar(&root, "root", ".", "project root")
	return cmd
}
