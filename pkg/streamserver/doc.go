// Package streamserver provides a minimal TCP connection acceptor backed by
// a fixed-size pool of worker goroutines.
//
// The host application drives the accept loop; every accepted connection is
// wrapped in a Conn, published to an unbounded FIFO hand-off queue, and
// picked up by exactly one worker, which invokes the caller-supplied
// Handler and then closes the connection. No framing, buffering, or
// timeouts are imposed on the byte stream: any application protocol lives
// entirely inside the handler.
//
// Ownership model: a Conn is created by the acceptor, transferred through
// the queue to exactly one worker, and owned by that worker until it is
// closed. Handlers must not retain the Conn past their return.
package streamserver
