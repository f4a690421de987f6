package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphi011/jim/internal/config"
	"github.com/raphi011/jim/internal/hook"
	"github.com/raphi011/jim/internal/registry"
)

func TestNew_AppliesTimeouts(t *testing.T) {
	t.Parallel()

	cfg := config.Default().Server
	srv := New(http.NotFoundHandler(), cfg)

	assert.Equal(t, ":8080", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 30*time.Second, srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, srv.WriteTimeout)
	assert.Equal(t, 60*time.Second, srv.IdleTimeout)
}

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(filepath.Join(t.TempDir(), "project"))
	require.NoError(t, err)
	require.NoError(t, reg.Install(context.Background()))
	_, err = reg.Add(context.Background(), "sleepy", hook.CreateOptions{Command: "sleep 30"})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan *hook.Run, 1)
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ctx, reg, config.Default().Server, WithRunObserver(func(r *hook.Run) {
		started <- r
	}))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s/hooks/sleepy", ln.Addr())
	resp, err := http.Post(url, "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var run *hook.Run
	select {
	case run = <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("hook was not started")
	}

	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}

	select {
	case <-run.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("active run was not killed")
	}
	assert.Error(t, run.ScriptErr())
	assert.Zero(t, reg.ActiveRuns().Len())
}

func TestServer_ShutdownRefusesQueuedSerializedRuns(t *testing.T) {
	t.Parallel()

	reg, err := registry.New(filepath.Join(t.TempDir(), "project"), registry.WithSerializedRuns(true))
	require.NoError(t, err)
	require.NoError(t, reg.Install(context.Background()))
	_, err = reg.Add(context.Background(), "deploy", hook.CreateOptions{Command: "sleep 30"})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	started := make(chan *hook.Run, 3)
	ctx, cancel := context.WithCancel(context.Background())
	srv := NewServer(ctx, reg, config.Default().Server, WithRunObserver(func(r *hook.Run) {
		started <- r
	}))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s/hooks/deploy", ln.Addr())
	for range 3 {
		resp, err := http.Post(url, "application/json", strings.NewReader(`{}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	}

	var run *hook.Run
	select {
	case run = <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("hook was not started")
	}
	// Let the other two dispatches block on the hook lock.
	time.Sleep(200 * time.Millisecond)

	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server waited for queued runs")
	}

	<-run.Done()
	assert.Zero(t, reg.ActiveRuns().Len())
	assert.Empty(t, started, "queued dispatches started after shutdown")
}
