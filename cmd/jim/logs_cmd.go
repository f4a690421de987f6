package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/output"
)

func newLogsCmd() *cobra.Command {
	var (
		list  bool
		runID string
	)

	cmd := &cobra.Command{
		Use:               "logs <name>",
		Short:             "Show a hook's run logs",
		GroupID:           GroupHooks,
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeHookArg,
		Long: `Print the log of a hook's most recent run, or of the run given with --run.

Each run log holds the script's stdout and stderr interleaved. Run ids are the
start time of the run (yyyy-mm-dd-HHMMSS) with a -N suffix when several runs
started within the same second.`,
		Example: `  jim logs deploy                           # Latest run
  jim logs deploy --list                    # All run ids, newest first
  jim logs deploy --run 2024-05-01-120000   # One specific run`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			reg, err := openRegistry(ctx)
			if err != nil {
				return err
			}
			h, err := existingHook(reg, args[0])
			if err != nil {
				return err
			}

			ids, err := h.RunLogs()
			if err != nil {
				return err
			}

			if list {
				for _, id := range ids {
					out.Println(id)
				}
				return nil
			}

			if runID == "" {
				if len(ids) == 0 {
					return fmt.Errorf("hook %s has not run yet", h.Name)
				}
				runID = ids[0]
			}

			path, err := h.RunLogPath(runID)
			if err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()
			return out.Copy(f)
		},
	}

	cmd.Flags().BoolVarP(&list, "list", "l", false, "List run ids instead of printing a log")
	cmd.Flags().StringVarP(&runID, "run", "r", "", "Run id to print (default: latest)")
	cmd.MarkFlagsMutuallyExclusive("list", "run")

	return cmd
}
