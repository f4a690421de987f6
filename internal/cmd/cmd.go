package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/raphi011/jim/internal/log"
)

// Shell is the interpreter commands are run through.
const Shell = "bash"

// OutputGrace is how long output is still collected after the shell exits.
// Background children that keep the output open don't hold up the result.
const OutputGrace = time.Second

// failurePrefix matches noise prefixes shells and tools put in front of errors.
var failurePrefix = regexp.MustCompile(`(?i)Command failed: |error: `)

// Options configures how a command is started.
type Options struct {
	// Dir is the working directory of the child process.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
	// Output receives both stdout and stderr in addition to the console mirror.
	Output io.Writer
}

// Result is the terminal outcome of a process.
type Result struct {
	// Stdout is the accumulated standard output with surrounding whitespace trimmed.
	Stdout string
	// Stderr is the raw accumulated standard error.
	Stderr string
	// Err is nil on exit code zero, an *ExitError on a non-zero exit, or the
	// error returned while waiting for the process.
	Err error
	// Duration is the wall time between start and exit.
	Duration time.Duration
}

// ExitError reports a command that exited with a non-zero code.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Message
}

// Process is a running shell command.
type Process struct {
	cmd    *exec.Cmd
	start  time.Time
	done   chan struct{}
	result Result
	stdout bytes.Buffer
	stderr bytes.Buffer
	mirror io.WriteCloser
}

// Start runs command through `bash -c` and returns without waiting for it.
// The logger attached to ctx receives the mirrored output.
func Start(ctx context.Context, command string, opts Options) (*Process, error) {
	l := log.FromContext(ctx)

	c := exec.Command(Shell, "-c", command)
	c.Dir = opts.Dir
	if len(opts.Env) > 0 {
		c.Env = append(c.Environ(), opts.Env...)
	}
	setProcGroup(c)
	c.WaitDelay = OutputGrace

	p := &Process{
		cmd:    c,
		done:   make(chan struct{}),
		mirror: l.OutputWriter(),
	}

	// exec copies each stream on its own goroutine; the shared sinks
	// need to be serialized.
	var mu sync.Mutex
	sinks := []io.Writer{&syncWriter{mu: &mu, w: p.mirror}}
	if opts.Output != nil {
		sinks = append(sinks, &syncWriter{mu: &mu, w: opts.Output})
	}
	c.Stdout = io.MultiWriter(append([]io.Writer{&p.stdout}, sinks...)...)
	c.Stderr = io.MultiWriter(append([]io.Writer{&p.stderr}, sinks...)...)

	done := l.Command(opts.Dir, Shell, "-c", command)
	p.start = time.Now()
	if err := c.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", Shell, err)
	}

	go func() {
		err := c.Wait()
		p.mirror.Close()
		p.result = p.finish(err)
		done(p.result.Duration)
		close(p.done)
	}()

	return p, nil
}

func (p *Process) finish(err error) Result {
	res := Result{
		Stdout:   strings.TrimSpace(p.stdout.String()),
		Stderr:   p.stderr.String(),
		Duration: time.Since(p.start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil, errors.Is(err, exec.ErrWaitDelay):
	case errors.As(err, &exitErr):
		res.Err = &ExitError{
			Code:    exitErr.ExitCode(),
			Message: CleanError(res.Stderr),
		}
	default:
		res.Err = err
	}
	return res
}

// Pid returns the process id of the shell.
func (p *Process) Pid() int {
	return p.cmd.Process.Pid
}

// Done is closed once the process has exited and its output is drained
// or OutputGrace has passed.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the process exits and returns its result.
func (p *Process) Wait() Result {
	<-p.done
	return p.result
}

// Kill terminates the process and everything it spawned.
// Killing an exited process is a no-op.
func (p *Process) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}
	return killProcGroup(p.cmd)
}

// CleanError strips "Command failed: " and "error: " (any case) from
// captured stderr and trims surrounding whitespace.
func CleanError(stderr string) string {
	return strings.TrimSpace(failurePrefix.ReplaceAllString(stderr, ""))
}

type syncWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(b []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(b)
}
