package streamserver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grzegorz-grzeda/stream-server/internal/logger"
	"github.com/grzegorz-grzeda/stream-server/internal/queue"
	"github.com/grzegorz-grzeda/stream-server/internal/ratelimiter"
	"github.com/grzegorz-grzeda/stream-server/pkg/metrics"
)

// ErrServerClosed is returned by LoopOnce and Serve after Stop has been
// called (or the driving context was cancelled).
var ErrServerClosed = errors.New("streamserver: server closed")

// Handler processes one accepted connection.
//
// The handler runs synchronously on a worker goroutine, outside any server
// lock, and has exclusive ownership of conn for its duration. The worker
// closes conn after the handler returns. handlerCtx is the opaque value the
// caller passed to New; it is shared across all invocations and its
// lifetime is the caller's concern.
type Handler func(srv *Server, conn *Conn, handlerCtx any)

// Server owns the listening socket, the worker pool, and the pending
// connection queue.
//
// Lifecycle:
//  1. New creates the listener and spawns the workers. Construction is
//     atomic: on any failure nothing is left running and an error is
//     returned.
//  2. The host drives LoopOnce repeatedly (or calls Serve, which does the
//     driving), publishing one accepted connection per call.
//  3. Stop closes the listener, lets workers drain the queue, and waits
//     for in-flight handlers.
//
// Without a Stop call the server runs indefinitely, which matches the
// baseline design: shutdown is a documented extension, not something
// handlers may rely on.
//
// Thread safety:
// LoopOnce must be driven from a single goroutine (the acceptor role).
// Stop and the accessors are safe to call concurrently with it.
type Server struct {
	config  Config
	handler Handler

	// handlerCtx is the caller's opaque context, passed verbatim to every
	// handler invocation. Not owned by the server.
	handlerCtx any

	// listener is written once during construction, read-only afterwards.
	listener net.Listener

	// pending holds accepted connections awaiting dispatch, in acceptance
	// order. Unbounded: if workers fall behind the acceptor it grows
	// without limit.
	pending *queue.Queue[*Conn]

	// workers tracks the pool goroutines for shutdown.
	workers sync.WaitGroup

	metrics metrics.ServerMetrics
	limiter *ratelimiter.RateLimiter

	// connCount is the number of connections accepted and not yet closed.
	connCount atomic.Int32

	// connSemaphore bounds live connections when MaxConnections > 0,
	// nil otherwise.
	connSemaphore chan struct{}

	// shutdown is closed by initiateShutdown; observed by the accept path.
	shutdown     chan struct{}
	shutdownOnce sync.Once

	// acceptCtx is cancelled on shutdown so rate-limit waits abort.
	acceptCtx    context.Context
	cancelAccept context.CancelFunc
}

// New creates a Server listening on the wildcard address at config.Port
// and spawns config.PoolSize workers that immediately begin waiting for
// connections.
//
// Construction is all-or-nothing: the listener is created before any
// worker starts, and every failure path returns a typed error with no
// goroutines or sockets left behind. A Server is never returned in a
// half-initialized state.
//
// Parameters:
//   - config: ports, pool size, limits (zero values defaulted)
//   - handler: invoked once per connection on a worker goroutine
//   - handlerCtx: opaque caller-owned value passed to every handler call;
//     must outlive the server
//   - serverMetrics: optional metrics collector (nil for no metrics)
func New(config Config, handler Handler, handlerCtx any, serverMetrics metrics.ServerMetrics) (*Server, error) {
	config.applyDefaults()
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if handler == nil {
		return nil, errors.New("streamserver: handler cannot be nil")
	}

	// Go's net.Listen already sets SO_REUSEADDR on the listening socket
	// and sizes the kernel backlog itself; config.Backlog is logged for
	// visibility below.
	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", config.Port))
	if err != nil {
		return nil, fmt.Errorf("listen on port %d: %w", config.Port, err)
	}

	if serverMetrics == nil {
		serverMetrics = metrics.NewNoopServerMetrics()
	}

	var connSemaphore chan struct{}
	if config.MaxConnections > 0 {
		connSemaphore = make(chan struct{}, config.MaxConnections)
	}

	var limiter *ratelimiter.RateLimiter
	if config.AcceptRate > 0 {
		limiter = ratelimiter.New(config.AcceptRate, config.AcceptBurst)
	}

	acceptCtx, cancelAccept := context.WithCancel(context.Background())

	s := &Server{
		config:        config,
		handler:       handler,
		handlerCtx:    handlerCtx,
		listener:      listener,
		pending:       queue.New[*Conn](),
		metrics:       serverMetrics,
		limiter:       limiter,
		connSemaphore: connSemaphore,
		shutdown:      make(chan struct{}),
		acceptCtx:     acceptCtx,
		cancelAccept:  cancelAccept,
	}

	for i := 0; i < config.PoolSize; i++ {
		s.workers.Add(1)
		go s.worker()
	}

	logger.Info("Stream server listening on %s (pool size %d, backlog %d)",
		listener.Addr(), config.PoolSize, config.Backlog)

	return s, nil
}

// LoopOnce accepts exactly one client connection and publishes it to the
// pending queue, then returns without waiting for it to be processed.
// Intended to be called repeatedly from the host application's own drive
// loop, which is free to interleave other work between accepts.
//
// Returns:
//   - nil after one connection was accepted and queued
//   - ErrServerClosed if Stop has been called
//   - a wrapped accept error otherwise (the listener stays usable, so the
//     host decides whether to retry or bail)
func (s *Server) LoopOnce() error {
	if s.limiter != nil {
		if err := s.limiter.Wait(s.acceptCtx); err != nil {
			return ErrServerClosed
		}
	}

	// Respect the live-connection cap before accepting, so over-limit
	// clients queue in the kernel backlog instead of being accepted and
	// parked in the pending queue.
	if s.connSemaphore != nil {
		select {
		case s.connSemaphore <- struct{}{}:
		case <-s.shutdown:
			return ErrServerClosed
		}
	}

	tcpConn, err := s.listener.Accept()
	if err != nil {
		if s.connSemaphore != nil {
			<-s.connSemaphore
		}
		select {
		case <-s.shutdown:
			return ErrServerClosed
		default:
			return fmt.Errorf("accept: %w", err)
		}
	}

	conn := newConn(tcpConn)
	current := s.connCount.Add(1)
	s.metrics.RecordConnectionAccepted()
	s.metrics.SetActiveConnections(current)

	if !s.pending.Enqueue(conn) {
		// Stop raced the accept; the workers are draining, so the
		// connection is ours to discard.
		s.releaseConn(conn)
		return ErrServerClosed
	}

	s.metrics.SetQueueDepth(s.pending.Len())
	logger.Debug("Connection accepted from %s (active: %d)", conn.RemoteAddr(), current)

	return nil
}

// Serve drives LoopOnce until ctx is cancelled or Stop is called, then
// waits for the workers to drain, up to ShutdownTimeout.
//
// Returns:
//   - nil on graceful shutdown
//   - an error if an accept failed or the drain timed out
func (s *Server) Serve(ctx context.Context) error {
	go func() {
		select {
		case <-ctx.Done():
			s.initiateShutdown()
		case <-s.shutdown:
		}
	}()

	if s.config.MetricsLogInterval > 0 {
		go s.logMetrics()
	}

	for {
		if err := s.LoopOnce(); err != nil {
			if errors.Is(err, ErrServerClosed) {
				return s.awaitWorkers()
			}
			logger.Error("Accept failed: %v", err)
			s.initiateShutdown()
			if waitErr := s.awaitWorkers(); waitErr != nil {
				logger.Warn("Shutdown after accept failure: %v", waitErr)
			}
			return err
		}
	}
}

// Stop shuts the server down: the listener is closed, queued connections
// are still handed to workers, and Stop blocks until all workers exit or
// ctx expires.
//
// Safe to call multiple times and concurrently with LoopOnce or Serve.
// A nil ctx waits up to the configured ShutdownTimeout.
func (s *Server) Stop(ctx context.Context) error {
	s.initiateShutdown()

	if ctx == nil {
		return s.awaitWorkers()
	}

	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Stream server stopped gracefully")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("streamserver: shutdown wait aborted: %w", ctx.Err())
	}
}

// initiateShutdown closes the listener and the pending queue exactly once.
// Workers drain whatever is already queued and then exit.
func (s *Server) initiateShutdown() {
	s.shutdownOnce.Do(func() {
		logger.Debug("Stream server shutdown initiated")

		close(s.shutdown)
		s.cancelAccept()

		if err := s.listener.Close(); err != nil {
			logger.Debug("Error closing listener: %v", err)
		}

		s.pending.Close()
	})
}

// awaitWorkers blocks until the pool exits or ShutdownTimeout elapses.
func (s *Server) awaitWorkers() error {
	done := make(chan struct{})
	go func() {
		s.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		logger.Info("Stream server stopped gracefully")
		return nil
	case <-time.After(s.config.ShutdownTimeout):
		remaining := s.connCount.Load()
		return fmt.Errorf("streamserver: shutdown timeout after %v: %d connection(s) still active",
			s.config.ShutdownTimeout, remaining)
	}
}

// worker is the dispatch loop run by each pool goroutine: block for the
// next pending connection, hand it to the handler, close it, repeat. The
// queue guarantees each connection is delivered to exactly one worker, in
// acceptance order.
func (s *Server) worker() {
	defer s.workers.Done()

	for {
		conn, ok := s.pending.Dequeue()
		if !ok {
			return
		}
		s.metrics.SetQueueDepth(s.pending.Len())
		s.metrics.RecordDispatch()
		s.handle(conn)
	}
}

// handle invokes the handler for one connection and then destroys it.
// Panic recovery keeps a misbehaving handler from killing the worker,
// which would silently shrink the pool.
func (s *Server) handle(conn *Conn) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in connection handler from %s: %v", conn.RemoteAddr(), r)
		}
		s.releaseConn(conn)
	}()

	start := time.Now()
	s.handler(s, conn, s.handlerCtx)
	s.metrics.RecordHandlerDuration(time.Since(start))
}

// releaseConn closes a connection and returns its accounting: connection
// count, semaphore slot, metrics.
func (s *Server) releaseConn(conn *Conn) {
	if err := conn.Close(); err != nil {
		logger.Debug("Error closing connection from %s: %v", conn.RemoteAddr(), err)
	}

	current := s.connCount.Add(-1)
	if s.connSemaphore != nil {
		<-s.connSemaphore
	}

	s.metrics.RecordConnectionClosed()
	s.metrics.SetActiveConnections(current)

	logger.Debug("Connection from %s closed (active: %d)", conn.RemoteAddr(), current)
}

// logMetrics periodically logs connection counters until shutdown.
func (s *Server) logMetrics() {
	ticker := time.NewTicker(s.config.MetricsLogInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			logger.Info("Stream server metrics: active_connections=%d pending=%d",
				s.connCount.Load(), s.pending.Len())
		}
	}
}

// ActiveConnections returns the number of connections currently accepted
// and not yet closed. Primarily for tests and monitoring.
func (s *Server) ActiveConnections() int32 {
	return s.connCount.Load()
}

// PendingConnections returns the number of connections waiting for a
// worker.
func (s *Server) PendingConnections() int {
	return s.pending.Len()
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Port returns the TCP port the server is listening on. Useful when the
// configured port was 0.
func (s *Server) Port() int {
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return s.config.Port
}
