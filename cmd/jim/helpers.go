package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/hook"
	"github.com/raphi011/jim/internal/registry"
	"github.com/raphi011/jim/internal/ui/prompt"
	"github.com/raphi011/jim/internal/ui/static"
)

// openRegistry returns the registry for the configured working path.
func openRegistry(ctx context.Context) (*registry.Registry, error) {
	cfg := config.FromContext(ctx)
	return registry.New(cfg.WorkingPath, registry.WithSerializedRuns(cfg.Run.Serialize))
}

// existingHook looks name up and fails with suggestions when it has no script.
func existingHook(reg *registry.Registry, name string) (*hook.Hook, error) {
	h, err := reg.Hook(name)
	if err != nil {
		return nil, err
	}
	if h.Exists() {
		return h, nil
	}

	err = fmt.Errorf("hook %q %w", h.Name, hook.ErrNotExist)
	all, listErr := reg.Hooks()
	if listErr != nil || len(all) == 0 {
		return nil, err
	}
	if similar := suggest(h.Name, hookNames(all)); len(similar) > 0 {
		return nil, fmt.Errorf("%w (did you mean: %s?)", err, strings.Join(similar, ", "))
	}
	return nil, err
}

// suggest returns up to three candidates that fuzzy-match name, best first.
func suggest(name string, candidates []string) []string {
	matches := fuzzy.Find(name, candidates)
	if len(matches) == 0 {
		// Try the other direction so a longer typo still finds a shorter hook.
		for _, c := range candidates {
			if len(fuzzy.Find(c, []string{name})) > 0 {
				matches = append(matches, fuzzy.Match{Str: c})
			}
		}
	}

	out := make([]string, 0, 3)
	for _, m := range matches {
		if len(out) == 3 {
			break
		}
		out = append(out, m.Str)
	}
	return out
}

func hookNames(hooks []*hook.Hook) []string {
	names := make([]string, len(hooks))
	for i, h := range hooks {
		names[i] = h.Name
	}
	return names
}

// scriptSummary returns the first meaningful line of h's script.
func scriptSummary(h *hook.Hook, width int) string {
	data, err := os.ReadFile(h.ScriptPath)
	if err != nil {
		return ""
	}
	return static.Summary(string(data), width)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r any) bool {
	f, ok := r.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// interactive reports whether cmd can prompt the user.
func interactive(cmd *cobra.Command) bool {
	return isTerminal(cmd.InOrStdin()) && isatty.IsTerminal(os.Stderr.Fd())
}

// parseArgs parses KEY=VALUE pairs into hook parameters. Every KEY=- reads
// the whole of stdin, which must be piped.
func parseArgs(pairs []string, stdin io.Reader) (map[string]string, error) {
	result := make(map[string]string, len(pairs))
	var stdinKeys []string

	for _, p := range pairs {
		key, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid arg format %q: expected KEY=VALUE", p)
		}
		if key == "" {
			return nil, fmt.Errorf("invalid arg format %q: key cannot be empty", p)
		}
		if value == "-" {
			stdinKeys = append(stdinKeys, key)
			continue
		}
		result[key] = value
	}

	if len(stdinKeys) == 0 {
		return result, nil
	}

	if stdin == nil || isTerminal(stdin) {
		return nil, errors.New("stdin not piped: KEY=- requires piped input")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("stdin is empty: KEY=- requires piped input")
	}
	for _, key := range stdinKeys {
		result[key] = strings.TrimRight(string(data), "\n")
	}
	return result, nil
}

// pickHook lets the user choose one of the installed hooks.
func pickHook(reg *registry.Registry, title string) (string, error) {
	hooks, err := reg.Hooks()
	if err != nil {
		return "", err
	}
	if len(hooks) == 0 {
		return "", errors.New("no hooks yet: add one with `jim add <name> -c <command>`")
	}

	options := make([]prompt.Option, len(hooks))
	for i, h := range hooks {
		options[i] = prompt.Option{Label: h.Name, Detail: scriptSummary(h, 50)}
	}

	res, err := prompt.Select(title, options)
	if err != nil {
		return "", err
	}
	if res.Cancelled {
		return "", errCancelled
	}
	return res.Value, nil
}

var errCancelled = errors.New("cancelled")
