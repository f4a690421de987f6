package main

import (
	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "config",
		Short:   "Manage configuration",
		Aliases: []string{"cfg"},
		GroupID: GroupConfig,
		Long: `Manage jim configuration.

Global config: ~/.config/jim/config.toml
Local config:  .jim.toml (in the working path)

JIM_WORKING_PATH and JIM_ADDR override both files.`,
		Example: `  jim config init   # Create default global config
  jim config show   # Show effective config`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create default config file",
		Args:  cobra.NoArgs,
		Example: `  jim config init      # Create ~/.config/jim/config.toml
  jim config init -f   # Overwrite existing config`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			path, err := config.Init(force)
			if err != nil {
				return err
			}

			log.FromContext(ctx).Log(path, "write")
			output.FromContext(ctx).Println(path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing config")

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective configuration",
		Args:  cobra.NoArgs,
		Long: `Print the configuration in effect for the working path as TOML, after
merging the global file, .jim.toml and environment overrides.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			return config.FromContext(ctx).Encode(output.FromContext(ctx).Writer())
		},
	}
}
