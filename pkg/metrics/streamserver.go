package metrics

import "time"

// ServerMetrics collects connection lifecycle and dispatch metrics for the
// stream server.
//
// Implementations must be safe for concurrent use: the acceptor and every
// worker record into the same instance.
type ServerMetrics interface {
	// RecordConnectionAccepted counts one accepted client connection.
	RecordConnectionAccepted()

	// RecordConnectionClosed counts one connection closed after handling.
	RecordConnectionClosed()

	// SetActiveConnections reports the number of connections currently
	// alive (accepted and not yet closed).
	SetActiveConnections(count int32)

	// SetQueueDepth reports the number of connections waiting for a worker.
	SetQueueDepth(depth int)

	// RecordDispatch counts one connection handed to a worker.
	RecordDispatch()

	// RecordHandlerDuration records how long a handler invocation took.
	RecordHandlerDuration(duration time.Duration)
}

// noopServerMetrics discards all observations.
type noopServerMetrics struct{}

func (noopServerMetrics) RecordConnectionAccepted()                    {}
func (noopServerMetrics) RecordConnectionClosed()                      {}
func (noopServerMetrics) SetActiveConnections(count int32)             {}
func (noopServerMetrics) SetQueueDepth(depth int)                      {}
func (noopServerMetrics) RecordDispatch()                              {}
func (noopServerMetrics) RecordHandlerDuration(duration time.Duration) {}

// NewNoopServerMetrics returns a ServerMetrics that records nothing.
func NewNoopServerMetrics() ServerMetrics {
	return noopServerMetrics{}
}
