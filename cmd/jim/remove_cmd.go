package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/ui/prompt"
)

func newRemoveCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:               "remove <name>",
		Short:             "Delete a hook and its run logs",
		Aliases:           []string{"rm"},
		GroupID:           GroupHooks,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeHookArg,
		Long: `Delete a hook directory, including its script and every run log.

Asks for confirmation on a terminal. Use --force to skip the prompt, which is
required when stdin is not a terminal.`,
		Example: `  jim remove deploy     # Confirm, then delete
  jim rm deploy -f      # Delete without asking`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			reg, err := openRegistry(ctx)
			if err != nil {
				return err
			}
			h, err := existingHook(reg, args[0])
			if err != nil {
				return err
			}

			if !force {
				if !interactive(cmd) {
					return fmt.Errorf("refusing to remove %s without confirmation: use --force", h.Name)
				}
				res, err := prompt.Confirm(fmt.Sprintf("Remove hook %s and all its run logs?", h.Name))
				if err != nil {
					return err
				}
				if res.Cancelled || !res.Confirmed {
					log.FromContext(ctx).Log("aborted", "warn")
					return nil
				}
			}

			if err := reg.Remove(ctx, h.Name); err != nil {
				return err
			}
			log.FromContext(ctx).Log("removed "+h.Name, "success")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Remove without confirmation")

	return cmd
}
