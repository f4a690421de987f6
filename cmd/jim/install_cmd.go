package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/output"
	"github.com/raphi011/jim/internal/registry"
)

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "install [path]",
		Short:   "Set up jim in a project",
		Aliases: []string{"init"},
		GroupID: GroupHooks,
		Args:    cobra.MaximumNArgs(1),
		Long: `Create the hooks directory for a project.

Without an argument the working path is used (--path, working_path from the
config, $JIM_WORKING_PATH or the current directory).`,
		Example: `  jim install              # Install in the current project
  jim install ~/sites/blog # Install in another directory`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := config.FromContext(ctx)

			workingPath := cfg.WorkingPath
			if len(args) == 1 {
				abs, err := filepath.Abs(args[0])
				if err != nil {
					return err
				}
				workingPath = abs
			}

			reg, err := registry.New(workingPath)
			if err != nil {
				return err
			}
			if err := reg.Install(ctx); err != nil {
				return err
			}

			log.FromContext(ctx).Log("jim installed in "+reg.WorkingPath(), "success")
			output.FromContext(ctx).Println(reg.HooksPath())
			return nil
		},
	}

	cmd.ValidArgsFunction = func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return nil, cobra.ShellCompDirectiveFilterDirs
	}

	return cmd
}
