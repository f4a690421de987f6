package hook

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/storage"
)

const (
	scriptFile = "script.sh"
	runsDir    = "runs"
	lockFile   = ".lock"
	envPrefix  = "JIM_"
)

var (
	// ErrNotExist is returned by operations that need the hook's script.
	ErrNotExist = errors.New("doesn't exist")
	// ErrNoScript is returned by Create when neither a command nor a script file is given.
	ErrNoScript = errors.New("no script file or command given")
	// ErrBothScript is returned by Create when both a command and a script file are given.
	ErrBothScript = errors.New("both script file and command given")
	// ErrInvalidName is returned for names that normalize to the empty string.
	ErrInvalidName = errors.New("invalid hook name")
	// ErrNoParent is returned when a hook is constructed without a parent.
	ErrNoParent = errors.New("hook parent is required")
	// ErrShuttingDown is returned by Run once its active run set is closed.
	ErrShuttingDown = errors.New("shutting down")
)

var (
	nonWord       = regexp.MustCompile(`[^A-Za-z0-9_]`)
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	shellSafe     = regexp.MustCompile(`^[A-Za-z0-9_+\-./:@,=%]*$`)
)

// Parent is what a hook needs from the registry that owns it.
type Parent interface {
	// WorkingPath is exported to scripts as JIM_ROOT.
	WorkingPath() string
	// HooksPath is the directory holding one subdirectory per hook.
	HooksPath() string
}

// Hook is one named script. Two hooks with the same name and parent are
// interchangeable; values are cheap and meant to be recreated on lookup.
type Hook struct {
	Name       string // normalized name
	Path       string // <hooks>/<name>
	ScriptPath string // <hooks>/<name>/script.sh
	RunsPath   string // <hooks>/<name>/runs

	parent    Parent
	active    *ActiveRuns
	serialize bool
}

// Option configures a Hook.
type Option func(*Hook)

// WithActiveRuns shares a run set between hooks so runs stay tracked
// across lookups.
func WithActiveRuns(a *ActiveRuns) Option {
	return func(h *Hook) {
		if a != nil {
			h.active = a
		}
	}
}

// WithSerializedRuns makes runs of the hook wait for each other.
func WithSerializedRuns(serialize bool) Option {
	return func(h *Hook) {
		h.serialize = serialize
	}
}

// CreateOptions holds the script body source. Exactly one field must be set.
type CreateOptions struct {
	Command string // inline shell snippet written verbatim
	Script  string // path of an existing file to copy
}

// ParseName normalizes raw input into a hook name: one trailing ".sh" is
// removed and every character outside [A-Za-z0-9_] becomes "-".
func ParseName(raw string) string {
	return nonWord.ReplaceAllString(strings.TrimSuffix(raw, ".sh"), "-")
}

// New returns the hook called name under parent. The hook may not exist yet.
func New(name string, parent Parent, opts ...Option) (*Hook, error) {
	if parent == nil {
		return nil, ErrNoParent
	}
	parsed := ParseName(name)
	if parsed == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	dir := filepath.Join(parent.HooksPath(), parsed)
	h := &Hook{
		Name:       parsed,
		Path:       dir,
		ScriptPath: filepath.Join(dir, scriptFile),
		RunsPath:   filepath.Join(dir, runsDir),
		parent:     parent,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.active == nil {
		h.active = NewActiveRuns()
	}
	return h, nil
}

// All returns every hook under parent's hooks directory that has a script.
// Entries without a script.sh are skipped.
func All(parent Parent, opts ...Option) ([]*Hook, error) {
	if parent == nil {
		return nil, ErrNoParent
	}
	entries, err := os.ReadDir(parent.HooksPath())
	if err != nil {
		return nil, fmt.Errorf("list hooks: %w", err)
	}

	var hooks []*Hook
	for _, e := range entries {
		h, err := New(e.Name(), parent, opts...)
		if err != nil {
			continue
		}
		if h.Exists() {
			hooks = append(hooks, h)
		}
	}
	return hooks, nil
}

// Exists reports whether the hook's script file is on disk.
func (h *Hook) Exists() bool {
	_, err := os.Stat(h.ScriptPath)
	return err == nil
}

func (h *Hook) assertExists() error {
	if !h.Exists() {
		return fmt.Errorf("hook %q %w", h.Name, ErrNotExist)
	}
	return nil
}

// Create writes the hook's script. It is a no-op if the hook already exists,
// so an existing script body is never overwritten.
func (h *Hook) Create(ctx context.Context, opts CreateOptions) error {
	if h.Exists() {
		return nil
	}
	switch {
	case opts.Command == "" && opts.Script == "":
		return ErrNoScript
	case opts.Command != "" && opts.Script != "":
		return ErrBothScript
	}

	l := log.FromContext(ctx)

	if err := ensureDir(ctx, h.Path); err != nil {
		return err
	}
	if err := ensureDir(ctx, h.RunsPath); err != nil {
		return err
	}

	if opts.Command != "" {
		if err := storage.WriteFile(h.ScriptPath, []byte(opts.Command), 0o755); err != nil {
			return fmt.Errorf("write script: %w", err)
		}
		l.Log(relative(h.ScriptPath), "write")
		return nil
	}

	if err := storage.CopyFile(opts.Script, h.ScriptPath, 0o755); err != nil {
		l.Log("unable to find/copy script file", "error")
		return fmt.Errorf("copy script: %w", err)
	}
	l.Log(opts.Script+" ~> "+relative(h.ScriptPath), "copy")
	return nil
}

// Destroy removes the hook directory with its script and run logs.
func (h *Hook) Destroy(ctx context.Context) error {
	if err := h.assertExists(); err != nil {
		return err
	}

	l := log.FromContext(ctx)
	if err := os.RemoveAll(h.Path); err != nil {
		l.Log(err.Error(), "error")
		return fmt.Errorf("remove hook: %w", err)
	}
	l.Log(relative(h.Path), "remove")
	return nil
}

// Command returns the shell invocation Run would execute for env, without
// side effects. The parent's working path is always added as "root".
func (h *Hook) Command(env map[string]string) string {
	vars := maps.Clone(env)
	if vars == nil {
		vars = make(map[string]string, 1)
	}
	vars["root"] = h.parent.WorkingPath()

	parts := make([]string, 0, len(vars)+2)
	for _, key := range slices.Sorted(maps.Keys(vars)) {
		parts = append(parts, EnvKey(key)+"="+EnvValue(vars[key]))
	}
	parts = append(parts, "bash", quoteIfNeeded(h.ScriptPath))
	return strings.Join(parts, " ")
}

// EnvKey returns the environment variable name for a parameter key.
func EnvKey(key string) string {
	return envPrefix + strings.ToUpper(nonWord.ReplaceAllString(key, "_"))
}

// EnvValue returns the shell-ready form of a parameter value.
func EnvValue(value string) string {
	return quoteIfNeeded(whitespaceRun.ReplaceAllString(value, "+"))
}

// quoteIfNeeded single-quotes s when it contains characters the shell
// would interpret.
func quoteIfNeeded(s string) string {
	if shellSafe.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// ensureDir creates dir (and parents) and logs it when it was missing.
func ensureDir(ctx context.Context, dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	log.FromContext(ctx).Log(relative(dir), "create")
	return nil
}

// relative returns path relative to the current directory for display.
func relative(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
