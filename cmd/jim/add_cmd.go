package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/hook"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/output"
	"github.com/raphi011/jim/internal/ui/prompt"
)

func newAddCmd() *cobra.Command {
	var opts hook.CreateOptions

	cmd := &cobra.Command{
		Use:     "add <name>",
		Short:   "Create a hook",
		Aliases: []string{"new"},
		GroupID: GroupHooks,
		Args:    cobra.ExactArgs(1),
		Long: `Create a hook from an inline command or by copying a script file.

The name is normalized: a trailing .sh is dropped and every character other
than letters, digits and _ becomes -. Adding a hook that already exists leaves
its script untouched.

On a terminal, leaving out both --command and --script prompts for the command.`,
		Example: `  jim add deploy -c 'git pull && make deploy'
  jim add build.sh -s ./scripts/build.sh  # Hook "build" from a file
  jim add notify                          # Prompt for the command`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l := log.FromContext(ctx)

			reg, err := openRegistry(ctx)
			if err != nil {
				return err
			}

			h, err := reg.Hook(args[0])
			if err != nil {
				return err
			}
			if h.Exists() {
				l.Log(fmt.Sprintf("hook %s already exists, keeping its script", h.Name), "warn")
				output.FromContext(ctx).Println(h.ScriptPath)
				return nil
			}

			if opts.Command == "" && opts.Script == "" && interactive(cmd) {
				res, err := prompt.TextInput(fmt.Sprintf("Command for hook %s", h.Name), "git pull && make", func(s string) error {
					if s == "" {
						return errors.New("command must not be empty")
					}
					return nil
				})
				if err != nil {
					return err
				}
				if res.Cancelled {
					return errCancelled
				}
				opts.Command = res.Value
			}

			if err := h.Create(ctx, opts); err != nil {
				if errors.Is(err, hook.ErrNoScript) {
					return fmt.Errorf("%w: use --command or --script", err)
				}
				return err
			}

			l.Log("added "+h.Name, "success")
			output.FromContext(ctx).Println(h.ScriptPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Command, "command", "c", "", "Inline shell command to use as the script")
	cmd.Flags().StringVarP(&opts.Script, "script", "s", "", "Script file to copy")
	cmd.MarkFlagsMutuallyExclusive("command", "script")
	cmd.MarkFlagFilename("script", "sh")

	return cmd
}
