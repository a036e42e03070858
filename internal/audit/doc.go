// Package audit carries security events from the authentication core to
// whatever records them.
//
// [Event] is the record, [Sink] the consumer contract and [Dispatcher] a
// buffered asynchronous relay so that emitting never blocks a login or a
// lockout decision. Sinks shipped here: no-op, channel, JSON lines, zap,
// Sentry and a fan-out [MultiSink].
//
// This package does not decide which events exist. Callers own the event
// names and details.
package audit
