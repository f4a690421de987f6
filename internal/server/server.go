package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/log"
	"github.com/raphi011/jim/internal/registry"
)

// ShutdownTimeout bounds how long in-flight requests get to finish once the
// server is asked to stop.
const ShutdownTimeout = 5 * time.Second

// New returns an http.Server for handler with the configured timeouts.
func New(handler http.Handler, cfg config.ServerConfig) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout.Duration,
		ReadTimeout:       cfg.ReadTimeout.Duration,
		WriteTimeout:      cfg.WriteTimeout.Duration,
		IdleTimeout:       cfg.IdleTimeout.Duration,
		MaxHeaderBytes:    1 << 20,
	}
}

// Server serves trigger requests for one registry.
type Server struct {
	reg     *registry.Registry
	handler *Handler
	http    *http.Server
}

// NewServer wires a Handler for reg into an http.Server built from cfg.
func NewServer(ctx context.Context, reg *registry.Registry, cfg config.ServerConfig, opts ...Option) *Server {
	opts = append([]Option{WithMaxBodyBytes(cfg.MaxBodyBytes)}, opts...)
	h := NewHandler(ctx, reg, opts...)
	return &Server{
		reg:     reg,
		handler: h,
		http:    New(h, cfg),
	}
}

// Handler returns the trigger handler.
func (s *Server) Handler() *Handler {
	return s.handler
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.http.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.http.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. It then stops
// accepting requests, waits for pending dispatches and kills every run
// that is still active.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	l := log.FromContext(ctx)
	l.Log(fmt.Sprintf("listening on %s", ln.Addr()), "serve")

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		l.Debug("shutting down", "addr", ln.Addr().String())

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
		defer cancel()

		err := s.http.Shutdown(shutdownCtx)
		killErr := s.reg.Shutdown(shutdownCtx)
		// Queued serialized dispatches are refused once the registry is shut down.
		s.handler.Wait()
		return errors.Join(err, killErr, s.reg.Shutdown(shutdownCtx))
	})

	return g.Wait()
}
