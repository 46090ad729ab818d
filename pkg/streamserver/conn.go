package streamserver

import (
	"net"
	"sync"
)

// Conn is the live handle to one accepted client socket.
//
// A Conn is exclusively owned by one goroutine at a time: the acceptor
// between Accept and Enqueue, then the worker that dequeued it. The worker
// closes the Conn after the handler returns, so handlers may call Close
// themselves but must not use the Conn after returning.
//
// Each Read and Write maps to a single operation on the underlying socket:
// no buffering, no framing, no timeouts.
type Conn struct {
	tcp       net.Conn
	closeOnce sync.Once
	closeErr  error
}

func newConn(tcp net.Conn) *Conn {
	return &Conn{tcp: tcp}
}

// Read issues one blocking read on the socket and returns the number of
// bytes read. End of stream is reported as io.EOF, distinct from other
// errors. (The original C interface folded EOF, errors, and empty reads
// into a single zero return; callers that only care about "stop reading"
// can still treat any non-nil error that way.)
func (c *Conn) Read(p []byte) (int, error) {
	return c.tcp.Read(p)
}

// Write writes p to the socket and returns the number of bytes written.
// net.Conn semantics apply: a nil error means all of p was delivered to
// the kernel, and a short write always carries an error explaining why.
func (c *Conn) Write(p []byte) (int, error) {
	return c.tcp.Write(p)
}

// Close closes the underlying socket. Idempotent: the first call closes,
// later calls return the first call's result.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closeErr = c.tcp.Close()
	})
	return c.closeErr
}

// RemoteAddr returns the peer address, for logging and access decisions.
func (c *Conn) RemoteAddr() net.Addr {
	return c.tcp.RemoteAddr()
}

// LocalAddr returns the local address of the connection.
func (c *Conn) LocalAddr() net.Addr {
	return c.tcp.LocalAddr()
}
