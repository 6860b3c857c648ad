package server_test

import (
	"context"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/logging"
	"github.com/bcnelson/winterface/internal/server"
)

func freePort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())
	return port
}

func echoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		_, _ = w.Write(body)
	})
}

func TestBindAddrs(t *testing.T) {
	cfg := access.New()
	_, err := cfg.SetBindTo("127.0.0.1,::1")
	require.NoError(t, err)
	assert.Equal(t, []string{"127.0.0.1:8088", "[::1]:8088"}, server.BindAddrs(cfg))

	_, err = cfg.SetBindTo("*")
	require.NoError(t, err)
	assert.Equal(t, []string{":8088"}, server.BindAddrs(cfg))
}

func TestManager_StartServeShutdown(t *testing.T) {
	cfg := access.New()
	_, err := cfg.SetPort(freePort(t))
	require.NoError(t, err)

	m := server.NewManager(cfg, echoHandler(), logging.Discard(), nil)
	require.NoError(t, m.Start())
	require.Len(t, m.Addrs(), 1)
	require.Error(t, m.Start(), "second Start must fail while running")

	url := "http://" + m.Addrs()[0].String() + "/"
	resp, err := http.Post(url, "text/plain", strings.NewReader("hello"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "hello", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Shutdown(ctx))
	assert.Empty(t, m.Addrs())
}

func TestManager_RestartPicksUpPort(t *testing.T) {
	cfg := access.New()
	_, err := cfg.SetPort(freePort(t))
	require.NoError(t, err)

	m := server.NewManager(cfg, echoHandler(), logging.Discard(), nil)
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })

	newPort := freePort(t)
	_, err = cfg.SetPort(newPort)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, m.Restart(ctx))

	require.Len(t, m.Addrs(), 1)
	assert.Equal(t, net.JoinHostPort("127.0.0.1", strconv.Itoa(newPort)), m.Addrs()[0].String())
}

func TestManager_StartFailsAtomically(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := access.New()
	_, err = cfg.SetPort(busy.Addr().(*net.TCPAddr).Port)
	require.NoError(t, err)

	m := server.NewManager(cfg, echoHandler(), logging.Discard(), nil)
	require.Error(t, m.Start())
	assert.Empty(t, m.Addrs())
}

func TestManager_RestartFallsBackToPreviousAddrs(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := access.New()
	_, err = cfg.SetPort(freePort(t))
	require.NoError(t, err)

	m := server.NewManager(cfg, echoHandler(), logging.Discard(), nil)
	require.NoError(t, m.Start())
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	before := m.Addrs()[0].String()

	_, err = cfg.SetPort(busy.Addr().(*net.TCPAddr).Port)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.Error(t, m.Restart(ctx))

	// Still reachable on the old address, and not reported as dead.
	require.Len(t, m.Addrs(), 1)
	assert.Equal(t, before, m.Addrs()[0].String())

	resp, err := http.Post("http://"+before+"/", "text/plain", strings.NewReader("still here"))
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "still here", string(body))

	select {
	case err := <-m.Errors():
		t.Fatalf("unexpected listener failure: %v", err)
	default:
	}
}

func TestManager_RestartWithNothingToFallBackToReportsError(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()

	cfg := access.New()
	_, err = cfg.SetPort(busy.Addr().(*net.TCPAddr).Port)
	require.NoError(t, err)

	m := server.NewManager(cfg, echoHandler(), logging.Discard(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.Error(t, m.Restart(ctx))
	assert.Empty(t, m.Addrs())

	select {
	case err := <-m.Errors():
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("restart failure was not delivered on Errors")
	}
}
