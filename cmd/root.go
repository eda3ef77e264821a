package cmd

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

// Version is set at build time
var Version = "dev"

// rootOptions holds the persistent flags shared by every command
type rootOptions struct {
	configFile string
	verbose    bool
	quiet      bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "license-audit",
		Short: "Collect and validate third-party license files for non-JVM dependencies",
		Long: `license-audit collects the license file of every production dependency of a
project into a staging directory, and keeps a committed copy of those files
in sync.

It supports multiple ecosystems:
  - Dart: dart pub deps + .dart_tool/package_config.json
  - Swift: swift package show-dependencies
  - Go: go.mod + module cache
  - Node.js: package-lock.json + node_modules

Examples:
  # Collect Dart licenses into a staging directory
  license-audit collect --ecosystem dart --project-dir analyzer --out build/dart-licenses

  # Fail if the committed Swift licenses are out of date
  license-audit validate --ecosystem swift --project-dir analyzer --committed-dir src/main/resources/swift-licenses

  # Regenerate the committed licenses
  license-audit publish --ecosystem swift --project-dir analyzer --committed-dir src/main/resources/swift-licenses

  # Report missing licenses as SARIF for code scanning
  license-audit collect --ecosystem npm --format sarif --output licenses.sarif`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "config file (default is ./.license-audit.toml)")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&opts.quiet, "quiet", "q", false, "only log warnings and errors")
	rootCmd.PersistentFlags().StringP("format", "f", "", "Output format: terminal, json, yaml, sarif (default terminal)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path (default: stdout)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")

	rootCmd.AddCommand(newCollectCmd(opts))
	rootCmd.AddCommand(newValidateCmd(opts))
	rootCmd.AddCommand(newPublishCmd(opts))

	return rootCmd
}

// Execute runs the root command and exits with the mapped exit code.
// This is called by main.main().
func Execute() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(exitCode(err))
	}
}

func newLogger(w io.Writer, opts *rootOptions) *log.Logger {
	logger := log.NewWithOptions(w, log.Options{
		Prefix: "license-audit",
	})
	switch {
	case opts.verbose:
		logger.SetLevel(log.DebugLevel)
	case opts.quiet:
		logger.SetLevel(log.WarnLevel)
	}
	return logger
}

// exitCode maps an error returned by a command to the process exit status
func exitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}
