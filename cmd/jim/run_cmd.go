package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/hook"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/output"
	"github.com/raphi011/jim/internal/registry"
)

func newRunCmd() *cobra.Command {
	var (
		pairs  []string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:               "run [name]",
		Short:             "Run a hook and wait for it",
		Aliases:           []string{"r"},
		GroupID:           GroupHooks,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeHookArg,
		Long: `Run a hook the same way an HTTP trigger would and wait for it to finish.

Every --arg KEY=VALUE is exported to the script as JIM_<KEY>. Whitespace in
values becomes +. JIM_ROOT is always set to the working path. KEY=- reads the
value from piped stdin.

The script's output is mirrored to stderr and recorded in a run log. jim exits
non-zero when the script fails. Ctrl-C kills the script.

Without a name on a terminal, jim asks which hook to run.`,
		Example: `  jim run deploy -a branch=main
  git log -1 | jim run notify -a message=-
  jim run deploy -a branch=main -d   # Print the command only`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			env, err := parseArgs(pairs, cmd.InOrStdin())
			if err != nil {
				return err
			}

			reg, err := openRegistry(ctx)
			if err != nil {
				return err
			}

			var name string
			switch {
			case len(args) == 1:
				name = args[0]
			case interactive(cmd):
				name, err = pickHook(reg, "Run hook")
				if err != nil {
					return err
				}
			default:
				return errors.New("hook name required")
			}

			h, err := existingHook(reg, name)
			if err != nil {
				return err
			}

			if dryRun {
				output.FromContext(ctx).Println(h.Command(env))
				return nil
			}
			return runAndWait(ctx, reg, h, env)
		},
	}

	cmd.Flags().StringArrayVarP(&pairs, "arg", "a", nil, "Set hook parameter KEY=VALUE (repeatable, KEY=- reads stdin)")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "d", false, "Print the command without running it")
	cmd.RegisterFlagCompletionFunc("arg", cobra.NoFileCompletions)

	return cmd
}

// runAndWait runs h and waits for it. Cancelling ctx kills the run.
func runAndWait(ctx context.Context, reg *registry.Registry, h *hook.Hook, env map[string]string) error {
	l := log.FromContext(ctx)

	run, err := h.Run(ctx, env)
	if err != nil {
		return err
	}

	select {
	case <-run.Done():
	case <-ctx.Done():
		killCtx := context.WithoutCancel(ctx)
		if err := reg.Shutdown(killCtx); err != nil {
			l.Log(err.Error(), "error")
		}
		<-run.Done()
		return fmt.Errorf("%s: %w", run.ID, ctx.Err())
	}

	if err := run.Wait(); err != nil {
		return fmt.Errorf("hook %s: %w", h.Name, err)
	}

	res := run.Result()
	if err := run.ScriptErr(); err != nil {
		l.Log(fmt.Sprintf("%s (log: %s)", run.ID, run.LogPath), "✗")
		return fmt.Errorf("hook %s failed: %w", h.Name, err)
	}
	l.Log(fmt.Sprintf("%s in %s", run.ID, res.Duration.Round(time.Millisecond)), "✓")
	return nil
}
