package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/output"
)

// Command group IDs for organizing help output
const (
	GroupHooks  = "hooks"
	GroupServe  = "serve"
	GroupConfig = "config"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	verbose bool
	quiet   bool
	path    string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "jim",
		Short: "Manage and trigger project hook scripts",
		Long: `jim keeps a project's shell hooks in <path>/hooks and runs them on demand,
either from the command line or when an HTTP request hits POST /hooks/<name>
(for example a webhook from your source-control server).

Request parameters are handed to the script as JIM_<KEY> environment
variables; JIM_ROOT always points at the project.`,
		SilenceUsage:               true,
		SilenceErrors:              true,
		SuggestionsMinimumDistance: 2,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "completion" || cmd.Name() == "__complete" || cmd.Name() == "help" {
				return nil
			}
			return setup(cmd, flags)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "Show commands being executed and requests served")
	rootCmd.PersistentFlags().BoolVarP(&flags.quiet, "quiet", "q", false, "Suppress all log output except errors")
	rootCmd.PersistentFlags().StringVarP(&flags.path, "path", "p", "", "Project working path (default: config, $JIM_WORKING_PATH or current directory)")
	rootCmd.MarkFlagsMutuallyExclusive("verbose", "quiet")
	rootCmd.MarkPersistentFlagDirname("path")

	rootCmd.Version = versionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.AddGroup(
		&cobra.Group{ID: GroupHooks, Title: "Hook Commands:"},
		&cobra.Group{ID: GroupServe, Title: "Server Commands:"},
		&cobra.Group{ID: GroupConfig, Title: "Configuration Commands:"},
	)

	// Hook commands
	rootCmd.AddCommand(newInstallCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newRemoveCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newLogsCmd())

	// Server commands
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newURLCmd())

	// Config commands
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newCompletionCmd())

	return rootCmd
}

// setup resolves the effective config and attaches it, the logger and the
// printer to the command's context.
func setup(cmd *cobra.Command, flags globalFlags) error {
	ctx := cmd.Context()
	global := config.FromContext(ctx)

	workingPath := global.WorkingPath
	if flags.path != "" {
		workingPath = flags.path
	}
	if workingPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
		workingPath = wd
	}
	workingPath, err := filepath.Abs(workingPath)
	if err != nil {
		return fmt.Errorf("resolve working path: %w", err)
	}

	cfg, err := config.Resolve(global, workingPath, os.Getenv)
	if err != nil {
		return err
	}

	logger := log.New(cmd.ErrOrStderr(), flags.verbose, flags.quiet)
	logger.SetColorMode(log.ColorMode(cfg.Log.Color))

	ctx = config.WithConfig(ctx, cfg)
	ctx = log.WithLogger(ctx, logger)
	ctx = output.WithPrinter(ctx, cmd.OutOrStdout())
	cmd.SetContext(ctx)
	return nil
}

// Execute builds the command tree and runs it with the process arguments.
func Execute() {
	loadedCfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}

	// Create context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	ctx = config.WithConfig(ctx, &loadedCfg)

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fmt.Fprintln(os.Stderr)
		fmt.Fprintln(os.Stderr, "Run 'jim -h' for help")
		cancel()
		os.Exit(1)
	}
}
