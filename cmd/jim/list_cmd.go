package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/hook"
	"github.com/raphi011/jim/internal/output"
	"github.com/raphi011/jim/internal/ui/static"
)

// hookInfo is the JSON shape of one hook in `jim list --json`.
type hookInfo struct {
	Name    string `json:"name"`
	Script  string `json:"script"`
	Command string `json:"command"`
	Runs    int    `json:"runs"`
	LastRun string `json:"last_run,omitempty"`
}

func newListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "list [pattern]",
		Short:   "List hooks",
		Aliases: []string{"ls"},
		GroupID: GroupHooks,
		Args:    cobra.MaximumNArgs(1),
		Long: `List the project's hooks with the first line of their script, the number of
recorded runs and when the last one started.

An optional glob pattern filters hooks by name (*, ?, [abc] and {a,b}).`,
		Example: `  jim list             # All hooks
  jim list 'deploy-*'  # Only deploy hooks
  jim list --json      # Machine-readable output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := output.FromContext(ctx)

			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}
			if !doublestar.ValidatePattern(pattern) {
				return fmt.Errorf("invalid pattern %q: %w", pattern, doublestar.ErrBadPattern)
			}

			reg, err := openRegistry(ctx)
			if err != nil {
				return err
			}
			hooks, err := reg.Hooks()
			if err != nil {
				return err
			}

			infos := make([]hookInfo, 0, len(hooks))
			for _, h := range hooks {
				if ok, _ := doublestar.Match(pattern, h.Name); !ok {
					continue
				}
				info, err := describeHook(h)
				if err != nil {
					return err
				}
				infos = append(infos, info)
			}

			if jsonOut {
				return out.JSON(infos)
			}

			rows := make([][]string, len(infos))
			for i, info := range infos {
				last := "-"
				if info.LastRun != "" {
					last = info.LastRun
				}
				rows[i] = []string{info.Name, info.Command, strconv.Itoa(info.Runs), last}
			}
			out.Print(static.RenderTable([]string{"NAME", "COMMAND", "RUNS", "LAST RUN"}, rows))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func describeHook(h *hook.Hook) (hookInfo, error) {
	ids, err := h.RunLogs()
	if err != nil {
		return hookInfo{}, err
	}

	info := hookInfo{
		Name:    h.Name,
		Script:  h.ScriptPath,
		Command: scriptSummary(h, 50),
		Runs:    len(ids),
	}
	if len(ids) > 0 {
		info.LastRun = runTime(ids[0])
	}
	return info, nil
}

// runTime formats the start time encoded in a run id for display.
func runTime(id string) string {
	stamp := id
	if len(stamp) > len(hook.RunStampFormat) {
		stamp = stamp[:len(hook.RunStampFormat)]
	}
	t, err := time.ParseInLocation(hook.RunStampFormat, stamp, time.Local)
	if err != nil {
		return id
	}
	return t.Format(time.DateTime)
}
