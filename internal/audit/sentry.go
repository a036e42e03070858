package audit

import (
	"context"
	"strconv"

	"github.com/getsentry/sentry-go"
)

// SentrySink forwards selected events to Sentry as messages. Only event
// names listed at construction are sent; everything else is ignored.
type SentrySink struct {
	hub    *sentry.Hub
	events map[string]sentry.Level
}

// NewSentrySink forwards the named events at the given levels. A nil hub
// uses sentry.CurrentHub().
func NewSentrySink(hub *sentry.Hub, events map[string]sentry.Level) *SentrySink {
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	return &SentrySink{hub: hub, events: events}
}

func (s *SentrySink) Emit(_ context.Context, event Event) {
	level, ok := s.events[event.Event]
	if !ok {
		return
	}

	s.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(level)
		scope.SetTag("event", event.Event)
		scope.SetTag("outcome", string(event.Outcome))
		if event.Identifier != "" {
			scope.SetTag("identifier", event.Identifier)
		}
		if event.SubjectID != 0 {
			scope.SetUser(sentry.User{ID: strconv.FormatInt(event.SubjectID, 10)})
		}
		if len(event.Details) > 0 {
			details := make(sentry.Context, len(event.Details))
			for k, v := range event.Details {
				details[k] = v
			}
			scope.SetContext("details", details)
		}
		s.hub.CaptureMessage(event.Event)
	})
}
