package e2e

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/grzegorz-grzeda/stream-server/test/e2e/framework"
)

// BenchmarkE2E measures echo round trips for several pool sizes.
func BenchmarkE2E(b *testing.B) {
	poolSizes := []int{1, 4, 16}

	for _, poolSize := range poolSizes {
		b.Run(fmt.Sprintf("pool-%d", poolSize), func(b *testing.B) {
			benchmarkRoundTrips(b, poolSize)
		})
	}
}

func benchmarkRoundTrips(b *testing.B, poolSize int) {
	server := framework.NewTestServer(b, framework.TestServerConfig{PoolSize: poolSize})
	if err := server.Start(); err != nil {
		b.Fatalf("Failed to start server: %v", err)
	}
	defer func() { _ = server.Stop() }()

	tc := &benchClient{addr: server.Addr()}
	payload := bytes.Repeat([]byte("x"), 1024)

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if err := tc.roundTrip(payload); err != nil {
				b.Errorf("Round trip failed: %v", err)
				return
			}
		}
	})
	b.SetBytes(int64(len(payload)))
}

// benchClient opens one connection per round trip, mirroring short-lived
// clients.
type benchClient struct {
	addr string
}

func (c *benchClient) roundTrip(payload []byte) error {
	conn, err := net.DialTimeout("tcp", c.addr, 2*time.Second)
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(10 * time.Second)); err != nil {
		return err
	}
	if _, err := conn.Write(payload); err != nil {
		return err
	}

	got := make([]byte, len(payload))
	if _, err := io.ReadFull(conn, got); err != nil {
		return err
	}
	if !bytes.Equal(got, payload) {
		return fmt.Errorf("payload mismatch")
	}
	return nil
}
