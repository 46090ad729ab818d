package framework

import (
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/grzegorz-grzeda/stream-server/internal/logger"
	"github.com/grzegorz-grzeda/stream-server/pkg/streamserver"
)

// TestServerConfig holds configuration for the test server.
type TestServerConfig struct {
	Port           int
	PoolSize       int
	MaxConnections int
	Handler        streamserver.Handler
	LogLevel       string
	StartupTimeout time.Duration
}

// TestServer wraps a stream server for end-to-end testing.
type TestServer struct {
	t       testing.TB
	config  TestServerConfig
	server  *streamserver.Server
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewTestServer creates a new test server instance.
func NewTestServer(t testing.TB, config TestServerConfig) *TestServer {
	t.Helper()

	// Set defaults. Port 0 stays 0: the OS picks a free port and the
	// actual value is read back after Start.
	if config.PoolSize == 0 {
		config.PoolSize = 4
	}
	if config.Handler == nil {
		config.Handler = EchoHandler
	}
	if config.LogLevel == "" {
		config.LogLevel = "ERROR" // Keep tests quiet by default
	}
	if config.StartupTimeout == 0 {
		config.StartupTimeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &TestServer{
		t:      t,
		config: config,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the test server.
func (ts *TestServer) Start() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.started {
		return fmt.Errorf("server already started")
	}

	ts.t.Helper()

	logger.SetLevel(ts.config.LogLevel)

	srv, err := streamserver.New(streamserver.Config{
		Port:           ts.config.Port,
		PoolSize:       ts.config.PoolSize,
		MaxConnections: ts.config.MaxConnections,
	}, ts.config.Handler, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	ts.server = srv

	// Start server in background
	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		if err := srv.Serve(ts.ctx); err != nil {
			ts.t.Logf("Server error: %v", err)
		}
	}()

	// Wait for server to be ready
	if err := ts.waitForServer(); err != nil {
		ts.cancel()
		ts.wg.Wait()
		return fmt.Errorf("server failed to start: %w", err)
	}

	ts.started = true
	ts.t.Logf("Server started on port %d", srv.Port())
	return nil
}

// Stop stops the test server and waits for it to drain.
func (ts *TestServer) Stop() error {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.started {
		return nil
	}

	ts.cancel()
	ts.wg.Wait()
	ts.started = false
	return nil
}

// Port returns the actual TCP port the server listens on.
func (ts *TestServer) Port() int {
	return ts.server.Port()
}

// Addr returns the dialable address of the server.
func (ts *TestServer) Addr() string {
	return fmt.Sprintf("127.0.0.1:%d", ts.server.Port())
}

// Server exposes the wrapped server for assertions on counters.
func (ts *TestServer) Server() *streamserver.Server {
	return ts.server
}

// waitForServer dials until the listener answers or the timeout expires.
func (ts *TestServer) waitForServer() error {
	deadline := time.Now().Add(ts.config.StartupTimeout)

	for time.Now().Before(deadline) {
		conn, err := net.DialTimeout("tcp", ts.Addr(), 500*time.Millisecond)
		if err == nil {
			_ = conn.Close()
			return nil
		}
		time.Sleep(50 * time.Millisecond)
	}

	return fmt.Errorf("server did not answer on %s within %v", ts.Addr(), ts.config.StartupTimeout)
}
