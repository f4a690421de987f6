package hook

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/raphi011/jim/internal/cmd"
	"github.com/raphi011/jim/internal/lock"
	"github.com/raphi011/jim/internal/log"
)

// RunStampFormat names run logs after their start time (yyyy-mm-dd-HHMMss).
const RunStampFormat = "2006-01-02-150405"

// Run is one invocation of a hook.
type Run struct {
	ID      string // <hook>/<stamp>
	Hook    *Hook
	Command string
	LogPath string
	Started time.Time

	proc   *cmd.Process
	done   chan struct{}
	result cmd.Result
}

// Done is closed when the script has exited and the run log is closed.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// Wait blocks until the run finishes. A script exiting non-zero still
// counts as a completed run and yields nil; only failures to observe the
// process (e.g. output copy errors) are returned.
func (r *Run) Wait() error {
	<-r.done
	var exitErr *cmd.ExitError
	if r.result.Err != nil && !errors.As(r.result.Err, &exitErr) {
		return r.result.Err
	}
	return nil
}

// ScriptErr returns the script's failure, typically a *cmd.ExitError.
// It blocks until the run finishes.
func (r *Run) ScriptErr() error {
	<-r.done
	return r.result.Err
}

// Result returns the process result. It blocks until the run finishes.
func (r *Run) Result() cmd.Result {
	<-r.done
	return r.result
}

// Pid returns the process id of the run's shell.
func (r *Run) Pid() int {
	return r.proc.Pid()
}

// Kill terminates the run's process group.
func (r *Run) Kill() error {
	return r.proc.Kill()
}

// Run executes the hook's script with env exported as JIM_* variables and
// returns once the process has started. The run log is created before the
// process is spawned and the run joins the active set right after the spawn.
// When runs are serialized Run blocks until earlier runs of the hook have
// finished. Once the active set is closed Run fails with ErrShuttingDown.
func (h *Hook) Run(ctx context.Context, env map[string]string) (*Run, error) {
	if err := h.assertExists(); err != nil {
		return nil, err
	}

	l := log.FromContext(ctx)
	if len(env) > 0 {
		if data, err := json.Marshal(env); err == nil {
			l.Log(string(data), "env")
		}
	}
	l.Log(h.Name, "running")

	command := h.Command(env)
	l.Log(command, "exec")

	var lk *lock.FileLock
	if h.serialize {
		lk = lock.New(filepath.Join(h.Path, lockFile))
		l.Debug("waiting for run lock", "hook", h.Name, "lock", lk.Path())
		if err := lk.Lock(); err != nil {
			return nil, fmt.Errorf("lock hook %s: %w", h.Name, err)
		}
	}
	unlock := func() {
		if lk != nil {
			lk.Unlock()
		}
	}

	if h.active.Closed() {
		unlock()
		return nil, ErrShuttingDown
	}

	started := time.Now()
	runLog, stamp, err := h.createRunLog(started)
	if err != nil {
		unlock()
		return nil, err
	}

	proc, err := cmd.Start(ctx, command, cmd.Options{Dir: h.Path, Output: runLog})
	if err != nil {
		runLog.Close()
		os.Remove(runLog.Name())
		unlock()
		return nil, err
	}

	r := &Run{
		ID:      h.Name + "/" + stamp,
		Hook:    h,
		Command: command,
		LogPath: runLog.Name(),
		Started: started,
		proc:    proc,
		done:    make(chan struct{}),
	}
	if !h.active.add(r) {
		// Closed between the check above and the spawn.
		proc.Kill()
		proc.Wait()
		runLog.Close()
		unlock()
		return nil, ErrShuttingDown
	}
	l.Debug("run started", "run", r.ID, "pid", proc.Pid(), "log", r.LogPath)

	go func() {
		res := proc.Wait()
		if err := runLog.Close(); err != nil {
			l.Log(fmt.Sprintf("close run log: %v", err), "error")
		}
		unlock()
		h.active.remove(r)

		var exitErr *cmd.ExitError
		switch {
		case res.Err == nil:
			l.Debug("run finished", "run", r.ID, "duration", res.Duration)
		case errors.As(res.Err, &exitErr):
			l.Output(exitErr.Error())
			l.Debug("run failed", "run", r.ID, "code", exitErr.Code)
		default:
			l.Log(fmt.Sprintf("%s: %v", r.ID, res.Err), "error")
		}

		r.result = res
		close(r.done)
	}()

	return r, nil
}

// Active returns the most recently started run of this hook that is still
// in flight, or nil.
func (h *Hook) Active() *Run {
	runs := h.active.ForHook(h.Name)
	if len(runs) == 0 {
		return nil
	}
	return runs[len(runs)-1]
}

// createRunLog opens a new log file named after t. A numeric suffix is added
// when a run with the same stamp already exists.
func (h *Hook) createRunLog(t time.Time) (*os.File, string, error) {
	if err := os.MkdirAll(h.RunsPath, 0o755); err != nil {
		return nil, "", fmt.Errorf("create runs directory: %w", err)
	}

	base := t.Format(RunStampFormat)
	stamp := base
	for i := 1; ; i++ {
		f, err := os.OpenFile(filepath.Join(h.RunsPath, stamp+".log"), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return f, stamp, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create run log: %w", err)
		}
		stamp = base + "-" + strconv.Itoa(i)
	}
}

// RunLogs returns the ids of the hook's run logs, newest first.
func (h *Hook) RunLogs() ([]string, error) {
	entries, err := os.ReadDir(h.RunsPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list runs: %w", err)
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".log"))
	}
	slices.SortFunc(ids, compareStamps)
	slices.Reverse(ids)
	return ids, nil
}

// RunLogPath returns the log file for a run id as returned by RunLogs.
func (h *Hook) RunLogPath(id string) (string, error) {
	id = strings.TrimPrefix(id, h.Name+"/")
	if id == "" || strings.ContainsAny(id, `/\`) || strings.Contains(id, "..") {
		return "", fmt.Errorf("invalid run id %q", id)
	}
	path := filepath.Join(h.RunsPath, id+".log")
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("run %q not found for hook %q", id, h.Name)
	}
	return path, nil
}

// compareStamps orders run stamps by time, then by collision suffix.
func compareStamps(a, b string) int {
	as, an := splitStamp(a)
	bs, bn := splitStamp(b)
	if c := strings.Compare(as, bs); c != 0 {
		return c
	}
	return an - bn
}

func splitStamp(s string) (string, int) {
	if len(s) > len(RunStampFormat) && s[len(RunStampFormat)] == '-' {
		if n, err := strconv.Atoi(s[len(RunStampFormat)+1:]); err == nil {
			return s[:len(RunStampFormat)], n
		}
	}
	return s, 0
}

// ActiveRuns tracks runs that have started and not yet exited.
type ActiveRuns struct {
	mu     sync.Mutex
	runs   map[string]*Run
	closed bool
}

// NewActiveRuns returns an empty run set.
func NewActiveRuns() *ActiveRuns {
	return &ActiveRuns{runs: make(map[string]*Run)}
}

func (a *ActiveRuns) add(r *Run) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return false
	}
	a.runs[r.ID] = r
	return true
}

// Close stops the set from accepting new runs. Runs already in flight are
// left alone; use KillAll to stop them.
func (a *ActiveRuns) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.closed = true
}

// Closed reports whether Close has been called.
func (a *ActiveRuns) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

func (a *ActiveRuns) remove(r *Run) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.runs[r.ID] == r {
		delete(a.runs, r.ID)
	}
}

// Len returns the number of runs in flight.
func (a *ActiveRuns) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.runs)
}

// List returns the runs in flight ordered by start time.
func (a *ActiveRuns) List() []*Run {
	a.mu.Lock()
	runs := make([]*Run, 0, len(a.runs))
	for _, r := range a.runs {
		runs = append(runs, r)
	}
	a.mu.Unlock()

	slices.SortFunc(runs, func(x, y *Run) int {
		if c := x.Started.Compare(y.Started); c != 0 {
			return c
		}
		return strings.Compare(x.ID, y.ID)
	})
	return runs
}

// ForHook returns the in-flight runs of the named hook ordered by start time.
func (a *ActiveRuns) ForHook(name string) []*Run {
	var runs []*Run
	for _, r := range a.List() {
		if r.Hook.Name == name {
			runs = append(runs, r)
		}
	}
	return runs
}

// KillAll kills every run in flight.
func (a *ActiveRuns) KillAll() error {
	var errs []error
	for _, r := range a.List() {
		if err := r.Kill(); err != nil {
			errs = append(errs, fmt.Errorf("kill %s: %w", r.ID, err))
		}
	}
	return errors.Join(errs...)
}

// Wait blocks until every run in flight has finished or ctx is done.
func (a *ActiveRuns) Wait(ctx context.Context) error {
	for _, r := range a.List() {
		select {
		case <-r.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
