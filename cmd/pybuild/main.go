// Command pybuild exposes the dynamic metadata and platform quirk support of
// the build backend for use from scripts and CI.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("Command failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "pybuild",
		Short: "Resolve dynamic Python project metadata and build quirks",
		Long: `pybuild reads a Python project's version and summary from its module
source, validates versions against PEP 440, locates the project module, and
patches CMake build configuration for Windows cross-compilation.`,
		PersistentPreRun: setupLogging,
		SilenceUsage:     true,
		SilenceErrors:    true,
	}

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose debugging output")

	rootCmd.AddCommand(
		newMetadataCmd(),
		newCheckVersionCmd(),
		newFindModuleCmd(),
		newQuirksCmd(),
		newCMakeArgsCmd(),
	)
	return rootCmd
}

// setupLogging configures the default logger based on command line flags
func setupLogging(cmd *cobra.Command, args []string) {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(handler))
	slog.Debug("Debug logging enabled")
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	return enc.Close()
}
