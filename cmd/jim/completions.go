package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/registry"
)

// completeHookArg completes the first positional argument with hook names.
func completeHookArg(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	workingPath, _ := cmd.Flags().GetString("path")
	if workingPath == "" {
		workingPath = config.FromContext(cmd.Context()).WorkingPath
	}

	reg, err := registry.New(workingPath)
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	hooks, err := reg.Hooks()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}

	var names []string
	for _, h := range hooks {
		if strings.HasPrefix(h.Name, toComplete) {
			names = append(names, h.Name)
		}
	}
	return names, cobra.ShellCompDirectiveNoFileComp
}
