// Package registry owns the hooks directory of a jim project.
//
// A Registry is bound to one working path; <working path>/hooks existing is
// what makes the project "installed". It is the factory for hook values and
// enumerates the hooks on disk. Hook values are not cached: every lookup
// returns a fresh value, while the set of in-flight runs is shared so that
// shutdown can reach every run started through this registry.
package registry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/raphi011/jim/internal/hook"
	"github.com/raphi011/jim/internal/log"
)

// HooksDir is the directory below the working path that holds the hooks.
const HooksDir = "hooks"

var (
	// ErrNotInstalled is returned when the hooks directory is missing.
	ErrNotInstalled = errors.New("jim not installed")
	// ErrAlreadyInstalled is returned by Install when the hooks directory exists.
	ErrAlreadyInstalled = errors.New("jim already installed")
)

// Registry holds the hooks of one working path.
type Registry struct {
	workingPath string
	hooksPath   string
	serialize   bool
	active      *hook.ActiveRuns
}

// Option configures a Registry.
type Option func(*Registry)

// WithSerializedRuns makes runs of the same hook wait for each other.
func WithSerializedRuns(serialize bool) Option {
	return func(r *Registry) {
		r.serialize = serialize
	}
}

// New creates a registry for workingPath.
// An empty workingPath means the current directory.
func New(workingPath string, opts ...Option) (*Registry, error) {
	if workingPath == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		workingPath = wd
	}
	abs, err := filepath.Abs(workingPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	r := &Registry{
		workingPath: abs,
		hooksPath:   filepath.Join(abs, HooksDir),
		active:      hook.NewActiveRuns(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// WorkingPath returns the project root.
func (r *Registry) WorkingPath() string {
	return r.workingPath
}

// HooksPath returns <working path>/hooks.
func (r *Registry) HooksPath() string {
	return r.hooksPath
}

// ActiveRuns returns the runs in flight that were started through this registry.
func (r *Registry) ActiveRuns() *hook.ActiveRuns {
	return r.active
}

// Installed reports whether the hooks directory exists.
func (r *Registry) Installed() bool {
	_, err := os.Stat(r.hooksPath)
	return err == nil
}

func (r *Registry) assertInstalled() error {
	if !r.Installed() {
		return fmt.Errorf("%w at %s: run `jim install .` or change working paths", ErrNotInstalled, r.workingPath)
	}
	return nil
}

// Install creates the working path and then the hooks directory.
func (r *Registry) Install(ctx context.Context) error {
	if r.Installed() {
		return fmt.Errorf("%w at %s", ErrAlreadyInstalled, r.workingPath)
	}

	l := log.FromContext(ctx)
	for _, dir := range []string{r.workingPath, r.hooksPath} {
		if _, err := os.Stat(dir); err == nil {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
		l.Log(dir, "create")
	}
	return nil
}

// Hook returns the hook called name. It may not exist yet.
func (r *Registry) Hook(name string) (*hook.Hook, error) {
	if err := r.assertInstalled(); err != nil {
		return nil, err
	}
	return hook.New(name, r, r.hookOptions()...)
}

// Hooks returns every hook that currently has a script.
func (r *Registry) Hooks() ([]*hook.Hook, error) {
	if err := r.assertInstalled(); err != nil {
		return nil, err
	}
	return hook.All(r, r.hookOptions()...)
}

// Add creates the hook called name. Adding an existing hook is a no-op.
func (r *Registry) Add(ctx context.Context, name string, opts hook.CreateOptions) (*hook.Hook, error) {
	h, err := r.Hook(name)
	if err != nil {
		return nil, err
	}
	if err := h.Create(ctx, opts); err != nil {
		return nil, err
	}
	return h, nil
}

// Remove destroys the hook called name.
func (r *Registry) Remove(ctx context.Context, name string) error {
	h, err := r.Hook(name)
	if err != nil {
		return err
	}
	return h.Destroy(ctx)
}

// Run starts the hook called name with env.
func (r *Registry) Run(ctx context.Context, name string, env map[string]string) (*hook.Run, error) {
	h, err := r.Hook(name)
	if err != nil {
		return nil, err
	}
	return h.Run(ctx, env)
}

// Shutdown kills every run in flight. Runs that have not been spawned yet,
// such as serialized runs waiting for the hook lock, are refused with
// hook.ErrShuttingDown.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.active.Close()
	runs := r.active.List()
	if len(runs) == 0 {
		return nil
	}
	l := log.FromContext(ctx)
	for _, run := range runs {
		l.Log(run.ID, "kill")
	}
	return r.active.KillAll()
}

func (r *Registry) hookOptions() []hook.Option {
	return []hook.Option{
		hook.WithActiveRuns(r.active),
		hook.WithSerializedRuns(r.serialize),
	}
}
