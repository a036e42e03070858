package audit

import (
	"context"

	"go.uber.org/zap"
)

// ZapSink logs events as structured entries. Failures and blocks go to warn.
type ZapSink struct {
	logger *zap.Logger
}

func NewZapSink(logger *zap.Logger) *ZapSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapSink{logger: logger.Named("audit")}
}

func (s *ZapSink) Emit(_ context.Context, event Event) {
	fields := make([]zap.Field, 0, 6+len(event.Details))
	fields = append(fields,
		zap.String("event", event.Event),
		zap.String("outcome", string(event.Outcome)),
		zap.Time("at", event.Timestamp),
	)
	if event.SubjectID != 0 {
		fields = append(fields, zap.Int64("subject_id", event.SubjectID))
	}
	if event.Identifier != "" {
		fields = append(fields, zap.String("identifier", event.Identifier))
	}
	if event.IP != "" {
		fields = append(fields, zap.String("ip", event.IP))
	}
	if event.Error != "" {
		fields = append(fields, zap.String("error_code", event.Error))
	}
	for k, v := range event.Details {
		fields = append(fields, zap.String("details."+k, v))
	}

	if event.Outcome == OutcomeSuccess {
		s.logger.Info("security event", fields...)
		return
	}
	s.logger.Warn("security event", fields...)
}
