package schoolauth

import (
	"io"

	"go.uber.org/zap"

	"github.com/vidkid7/SchoolManagementSystem-sub009/internal/audit"
)

type (
	// AuditEvent is one security event delivered to an AuditSink.
	AuditEvent = audit.Event
	// AuditSink receives audit events from the engine's dispatcher goroutine.
	AuditSink = audit.Sink
	// AuditOutcome is success, failure or blocked.
	AuditOutcome = audit.Outcome
	// NoOpSink discards events.
	NoOpSink = audit.NoOpSink
	// ChannelSink forwards events to a buffered channel.
	ChannelSink = audit.ChannelSink
	// MultiSink fans events out to several sinks.
	MultiSink = audit.MultiSink
)

const (
	AuditSuccess = audit.OutcomeSuccess
	AuditFailure = audit.OutcomeFailure
	AuditBlocked = audit.OutcomeBlocked
)

func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink writes one JSON object per line to w.
func NewJSONWriterSink(w io.Writer) AuditSink {
	return audit.NewJSONWriterSink(w)
}

// NewZapSink logs events through logger, at warn level for non-success outcomes.
func NewZapSink(logger *zap.Logger) AuditSink {
	return audit.NewZapSink(logger)
}
