package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sync"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/hook"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/registry"
)

const notFoundBody = "hook not found"

var hookPathRE = regexp.MustCompile(`^/hooks/([^/?.]*)`)

// Handler dispatches trigger requests to hooks of one registry.
type Handler struct {
	ctx          context.Context
	reg          *registry.Registry
	maxBodyBytes int64
	onRun        func(*hook.Run)

	wg sync.WaitGroup
}

// Option configures a Handler.
type Option func(*Handler)

// WithMaxBodyBytes caps how much of a request body is read. Zero or less
// disables the cap.
func WithMaxBodyBytes(n int64) Option {
	return func(h *Handler) {
		h.maxBodyBytes = n
	}
}

// WithRunObserver registers fn to be called with every run the handler
// starts.
func WithRunObserver(fn func(*hook.Run)) Option {
	return func(h *Handler) {
		h.onRun = fn
	}
}

// NewHandler returns a Handler bound to reg. Dispatched runs use ctx for
// logging; they are not cancelled when the request ends.
func NewHandler(ctx context.Context, reg *registry.Registry, opts ...Option) *Handler {
	h := &Handler{
		ctx:          ctx,
		reg:          reg,
		maxBodyBytes: config.DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HookName extracts the hook name from a request path, reporting false if
// the path isn't a hook trigger.
func HookName(path string) (string, bool) {
	m := hookPathRE.FindStringSubmatch(path)
	if m == nil || m[1] == "" {
		return "", false
	}
	return m[1], true
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.serve(w, r)
	log.FromContext(h.ctx).Debug("request", "method", r.Method, "path", r.URL.Path, "status", status, "remote", r.RemoteAddr)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) int {
	l := log.FromContext(h.ctx)

	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusForbidden)
		return http.StatusForbidden
	}

	name, ok := HookName(r.URL.EscapedPath())
	if !ok {
		return notFound(w)
	}

	hk, err := h.reg.Hook(name)
	if err != nil || !hk.Exists() {
		return notFound(w)
	}

	if h.maxBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	}
	params, err := Params(r)
	if err != nil {
		l.Log(fmt.Sprintf("%s: ignoring request body: %v", name, err), "warn")
	}
	// Drain what's left so the connection can be reused.
	_, _ = io.Copy(io.Discard, r.Body)

	h.dispatch(hk, params)
	w.WriteHeader(http.StatusOK)
	return http.StatusOK
}

// dispatch runs hk in the background.
func (h *Handler) dispatch(hk *hook.Hook, params map[string]string) {
	ctx := context.WithoutCancel(h.ctx)
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		run, err := hk.Run(ctx, params)
		if errors.Is(err, hook.ErrShuttingDown) {
			log.FromContext(ctx).Debug("dispatch dropped", "hook", hk.Name)
			return
		}
		if err != nil {
			log.FromContext(ctx).Log(fmt.Sprintf("%s: %v", hk.Name, err), "error")
			return
		}
		if h.onRun != nil {
			h.onRun(run)
		}
	}()
}

// Wait blocks until every dispatched hook has been started.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func notFound(w http.ResponseWriter) int {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = io.WriteString(w, notFoundBody)
	return http.StatusNotFound
}
