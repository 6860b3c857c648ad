// Package server runs the admin interface listeners: one HTTP server per bind
// address, all on the configured port.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/bcnelson/winterface/internal/access"
	"github.com/bcnelson/winterface/internal/metrics"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// Manager owns the listeners. Bind addresses, port and idle timeout are read
// from the configuration when the listeners start; Restart picks up changes.
type Manager struct {
	cfg     *access.Configuration
	handler http.Handler
	logger  *slog.Logger
	metrics *metrics.Metrics

	mu        sync.Mutex
	servers   []*http.Server
	listeners []net.Listener
	addrs     []string
	idle      time.Duration
	errs      chan error
}

// NewManager creates a Manager serving handler.
func NewManager(cfg *access.Configuration, handler http.Handler, logger *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		cfg:     cfg,
		handler: handler,
		logger:  logger,
		metrics: m,
		errs:    make(chan error, 1),
	}
}

// Errors delivers listener failures the manager could not recover from: a
// serve error, or a restart that left nothing listening.
func (m *Manager) Errors() <-chan error {
	return m.errs
}

func (m *Manager) fail(err error) {
	select {
	case m.errs <- err:
	default:
	}
}

// BindAddrs returns the host:port pairs the listeners should use.
func BindAddrs(cfg *access.Configuration) []string {
	port := strconv.Itoa(cfg.Port())
	bind := cfg.BindTo()
	if bind.HasWildcard() {
		return []string{net.JoinHostPort("", port)}
	}
	var addrs []string
	for _, addr := range bind.Addrs() {
		addrs = append(addrs, net.JoinHostPort(addr.String(), port))
	}
	return addrs
}

// Start binds every address and starts serving. Either all listeners start or
// none do.
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.servers) > 0 {
		return errors.New("listeners already running")
	}
	return m.startLocked(BindAddrs(m.cfg), m.cfg.IdleTimeout())
}

func (m *Manager) startLocked(addrs []string, idle time.Duration) error {
	if len(addrs) == 0 {
		return errors.New("no bind addresses configured")
	}

	var listeners []net.Listener
	for _, addr := range addrs {
		ln, err := net.Listen("tcp", addr)
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
			return fmt.Errorf("listening on %s: %w", addr, err)
		}
		listeners = append(listeners, ln)
	}

	m.addrs = addrs
	m.idle = idle
	for _, ln := range listeners {
		srv := &http.Server{
			Handler:           m.handler,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       idle,
		}
		m.servers = append(m.servers, srv)
		m.listeners = append(m.listeners, ln)

		m.logger.Info("Admin interface listening", "addr", ln.Addr().String(), "idle_timeout", idle)
		go m.serve(srv, ln)
	}
	return nil
}

func (m *Manager) serve(srv *http.Server, ln net.Listener) {
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		m.logger.Error("Listener failed", "addr", ln.Addr().String(), "error", err)
		m.fail(err)
	}
}

// Addrs returns the addresses currently being served.
func (m *Manager) Addrs() []net.Addr {
	m.mu.Lock()
	defer m.mu.Unlock()

	addrs := make([]net.Addr, len(m.listeners))
	for i, ln := range m.listeners {
		addrs[i] = ln.Addr()
	}
	return addrs
}

// Shutdown gracefully stops every listener.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdownLocked(ctx)
}

func (m *Manager) shutdownLocked(ctx context.Context) error {
	var errs []error
	for _, srv := range m.servers {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	m.servers = nil
	m.listeners = nil
	return errors.Join(errs...)
}

// Restart stops the listeners and starts them again with the current
// configuration. If the new addresses cannot be bound the previous ones are
// bound again and the error is returned; if that fails too, nothing is
// listening and the error is also delivered on Errors.
func (m *Manager) Restart(ctx context.Context) error {
	err := m.restart(ctx)
	m.metrics.ObserveRestart(err)
	if err != nil {
		m.logger.Error("Listener restart failed", "error", err)
		return err
	}
	m.logger.Info("Listeners restarted")
	return nil
}

func (m *Manager) restart(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	prevAddrs, prevIdle := m.addrs, m.idle
	if err := m.shutdownLocked(ctx); err != nil {
		return fmt.Errorf("stopping listeners: %w", err)
	}

	err := m.startLocked(BindAddrs(m.cfg), m.cfg.IdleTimeout())
	if err == nil {
		return nil
	}
	if len(prevAddrs) == 0 {
		m.fail(err)
		return err
	}

	m.logger.Warn("Falling back to previous listen addresses", "addrs", prevAddrs, "error", err)
	if ferr := m.startLocked(prevAddrs, prevIdle); ferr != nil {
		err = errors.Join(err, fmt.Errorf("rebinding previous addresses: %w", ferr))
		m.fail(err)
	}
	return err
}

// RestartFunc adapts Restart for SettingsService.OnRestart.
func (m *Manager) RestartFunc() func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = m.Restart(ctx)
	}
}
