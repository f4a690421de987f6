// Package log provides context-aware console logging for jim.
//
// Diagnostics go to stderr; stdout is reserved for primary data written
// through the output package. Besides plain Printf-style output the logger
// implements the two console channels jim uses for operator visibility:
// category lines ("   create hooks/deploy") and mirrored script output
// ("      > building...").
package log

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/x/ansi"

	"github.com/raphi011/jim/internal/ui/styles"
)

type ctxKey struct{}

// ColorMode controls whether category labels are colored.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Logger provides output, verbose command logging and the category/output
// console channels. It is safe for concurrent use.
type Logger struct {
	mu      sync.Mutex
	out     io.Writer
	w       *colorprofile.Writer
	verbose bool
	quiet   bool
}

// New creates a new logger writing to out.
// quiet suppresses everything except error-category lines.
func New(out io.Writer, verbose, quiet bool) *Logger {
	return &Logger{
		out:     out,
		w:       colorprofile.NewWriter(out, os.Environ()),
		verbose: verbose,
		quiet:   quiet,
	}
}

// SetColorMode overrides the detected color profile.
func (l *Logger) SetColorMode(mode ColorMode) {
	l.mu.Lock()
	defer l.mu.Unlock()
	switch mode {
	case ColorNever:
		l.w.Profile = colorprofile.NoTTY
	case ColorAlways:
		switch l.w.Profile {
		case colorprofile.TrueColor, colorprofile.ANSI256, colorprofile.ANSI:
		default:
			l.w.Profile = colorprofile.ANSI256
		}
	}
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext retrieves the logger from context.
// Returns a no-op logger if none is attached.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return New(io.Discard, false, false)
}

// Printf writes formatted output.
func (l *Logger) Printf(format string, args ...any) {
	if l.quiet {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, format, args...)
}

// Println writes a line of output.
func (l *Logger) Println(args ...any) {
	if l.quiet {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, args...)
}

// Debug logs a message with key=value pairs when verbose.
// A trailing key without a value is dropped.
func (l *Logger) Debug(msg string, keyvals ...any) {
	if !l.IsVerbose() {
		return
	}
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i+1 < len(keyvals); i += 2 {
		fmt.Fprintf(&b, " %v=%v", keyvals[i], keyvals[i+1])
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.w, styles.MutedStyle.Render(b.String()))
}

// Command logs an external command execution and returns a function that
// records how long it took. Only prints when verbose.
func (l *Logger) Command(dir, name string, args ...string) func(time.Duration) {
	if !l.IsVerbose() {
		return func(time.Duration) {}
	}
	line := "$ " + strings.TrimSpace(name+" "+strings.Join(args, " "))
	if dir != "" {
		line = "[" + dir + "] " + line
	}
	return func(d time.Duration) {
		l.mu.Lock()
		defer l.mu.Unlock()
		fmt.Fprintf(l.w, "%s (%s)\n", line, d.Round(time.Millisecond))
	}
}

// Log writes msg under a colored category label, e.g. "   create hooks/deploy".
// An empty category is "info". Error-category lines are written even when quiet.
func (l *Logger) Log(msg, category string) {
	if category == "" {
		category = "info"
	}
	if l.quiet && styles.ClassOf(category) != styles.ClassError {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.w, "   %s %s\n", styles.CategoryStyle(category).Render(category), msg)
}

// Output mirrors process output line by line. Escape sequences and trailing
// whitespace are removed and lines left empty are skipped.
func (l *Logger) Output(text string) {
	if l.quiet {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, line := range strings.Split(text, "\n") {
		line = ansi.Strip(strings.TrimRightFunc(line, unicode.IsSpace))
		if line == "" {
			continue
		}
		fmt.Fprintf(l.w, "      %s\n", styles.MutedStyle.Render("> "+line))
	}
}

// OutputWriter returns a writer that feeds complete lines to Output.
// Close flushes a trailing partial line.
func (l *Logger) OutputWriter() io.WriteCloser {
	return &lineWriter{l: l}
}

// IsVerbose returns true if verbose mode is enabled and not overridden by quiet.
func (l *Logger) IsVerbose() bool {
	return l.verbose && !l.quiet
}

// Writer returns the underlying writer.
func (l *Logger) Writer() io.Writer {
	return l.out
}

type lineWriter struct {
	mu  sync.Mutex
	l   *Logger
	buf []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	if i := bytes.LastIndexByte(w.buf, '\n'); i >= 0 {
		w.l.Output(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (w *lineWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.l.Output(string(w.buf))
		w.buf = nil
	}
	return nil
}
