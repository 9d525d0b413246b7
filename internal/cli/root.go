package cli

import (
	"context"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/archivis/archivis/pkg/buildinfo"
	"github.com/archivis/archivis/pkg/pipeline"
)

// rootFlags holds the persistent flags shared by every command.
type rootFlags struct {
	verbose    bool
	noCache    bool
	configFile string
}

// Execute runs the archivis CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// The function sets up the root command with all subcommands, configures
// logging based on the --verbose flag, and executes the command tree.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the CLI under the given context, which allows the
// caller to wire in signal handling.
func ExecuteContext(ctx context.Context) error {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:          appName,
		Short:        "Archivis turns architecture plans into versioned diagram IR",
		Long:         `Archivis is a CLI tool for enriching minimal architecture plans into fully styled, connected diagram IR, rendering and exporting stored versions, and verifying that SVG transformations preserve diagram structure.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if flags.verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().BoolVar(&flags.noCache, "no-cache", false, "disable the artifact cache")
	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "path to config file (default ~/.config/archivis/config.toml)")

	root.AddCommand(newEnrichCmd(flags))
	root.AddCommand(newRenderCmd(flags))
	root.AddCommand(newExportCmd(flags))
	root.AddCommand(newFeedbackCmd(flags))
	root.AddCommand(newCheckCmd(flags))
	root.AddCommand(newAnalyzeCmd())
	root.AddCommand(newHistoryCmd(flags))
	root.AddCommand(newCacheCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}

// runnerForCommand builds a pipeline runner from the command's flags and
// config file.
func runnerForCommand(ctx context.Context, flags *rootFlags) (runner *runnerHandle, err error) {
	cfg, err := LoadConfig(flags.configFile)
	if err != nil {
		return nil, err
	}
	r, cleanup, err := newRunner(ctx, cfg, loggerFromContext(ctx), flags.noCache)
	if err != nil {
		return nil, err
	}
	return &runnerHandle{Runner: r, cleanup: cleanup}, nil
}

// runnerHandle bundles a runner with its resource cleanup.
type runnerHandle struct {
	*pipeline.Runner
	cleanup func()
}

func (h *runnerHandle) Close() {
	if h.cleanup != nil {
		h.cleanup()
	}
}
