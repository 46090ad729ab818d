package framework

import (
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/grzegorz-grzeda/stream-server/pkg/streamserver"
)

// EchoHandler copies everything a client sends back to it until the client
// closes its side. It is the default workload for e2e tests.
func EchoHandler(srv *streamserver.Server, conn *streamserver.Conn, handlerCtx any) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			if _, werr := conn.Write(buf[:n]); werr != nil {
				return
			}
		}
		if err != nil {
			return
		}
	}
}

// TestContext holds the context for a test run.
type TestContext struct {
	T      *testing.T
	Server *TestServer
}

// NewTestContext creates and starts a test server, registering cleanup.
func NewTestContext(t *testing.T, config TestServerConfig) *TestContext {
	t.Helper()

	ctx := &TestContext{T: t}

	// Register cleanup immediately so it's available if anything fails
	t.Cleanup(func() {
		ctx.Cleanup()
	})

	server := NewTestServer(t, config)
	ctx.Server = server

	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}

	return ctx
}

// Cleanup stops the server.
func (tc *TestContext) Cleanup() {
	tc.T.Helper()
	if tc.Server != nil {
		if err := tc.Server.Stop(); err != nil {
			tc.T.Logf("Failed to stop server: %v", err)
		}
	}
}

// RoundTrip dials the server, sends payload, and reads back exactly
// len(payload) bytes.
func (tc *TestContext) RoundTrip(payload []byte) ([]byte, error) {
	conn, err := net.DialTimeout("tcp", tc.Server.Addr(), 2*time.Second)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return nil, err
	}

	if _, err := conn.Write(payload); err != nil {
		return nil, fmt.Errorf("write failed: %w", err)
	}

	got := make([]byte, len(payload))
	if _, err := io.ReadFull(conn, got); err != nil {
		return nil, fmt.Errorf("read failed: %w", err)
	}

	return got, nil
}
