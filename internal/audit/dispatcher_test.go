package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, &countingSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	// nil receiver must be safe
	d.Emit(context.Background(), Event{Event: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("expected zero drops on nil dispatcher")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 64}, sink)

	for i := 0; i < 50; i++ {
		d.Emit(context.Background(), Event{Event: "login_failed_attempt"})
	}
	d.Close()

	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected 50 delivered events, got %d", got)
	}

	d.Emit(context.Background(), Event{Event: "after_close"})
	if got := sink.count.Load(); got != 50 {
		t.Fatalf("expected emit after close to be ignored, got %d", got)
	}
}

func TestDispatcherDropIfFullNeverBlocks(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true}, sink)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 20; i++ {
			d.Emit(context.Background(), Event{Event: "account_locked"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked with DropIfFull enabled")
	}

	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a stalled sink")
	}
	close(sink.gate)
	d.Close()
}

func TestDispatcherBlockingRespectsContext(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	defer func() {
		close(sink.gate)
		d.Close()
	}()

	// one event parked in the sink, one in the buffer
	d.Emit(context.Background(), Event{Event: "a"})
	d.Emit(context.Background(), Event{Event: "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	d.Emit(ctx, Event{Event: "c"})
	if time.Since(start) > time.Second {
		t.Fatal("expected Emit to return once the context expired")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{Event: "account_locked", Identifier: "alice", Outcome: OutcomeBlocked})
	sink.Emit(context.Background(), Event{Event: "lockout_reset", Identifier: "alice", Outcome: OutcomeSuccess})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var first Event
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if first.Event != "account_locked" || first.Outcome != OutcomeBlocked || first.Identifier != "alice" {
		t.Fatalf("unexpected event: %+v", first)
	}
}

func TestZapSinkLevels(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewZapSink(zap.New(core))

	sink.Emit(context.Background(), Event{Event: "lockout_reset", Outcome: OutcomeSuccess, SubjectID: 7})
	sink.Emit(context.Background(), Event{
		Event:      "account_locked",
		Outcome:    OutcomeBlocked,
		Identifier: "alice",
		Details:    map[string]string{"failed_attempts": "5"},
	})

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Level != zap.InfoLevel || entries[1].Level != zap.WarnLevel {
		t.Fatalf("unexpected levels: %v %v", entries[0].Level, entries[1].Level)
	}
	if entries[1].ContextMap()["details.failed_attempts"] != "5" {
		t.Fatalf("expected details field, got %v", entries[1].ContextMap())
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	MultiSink{a, nil, b}.Emit(context.Background(), Event{Event: "x"})
	if a.count.Load() != 1 || b.count.Load() != 1 {
		t.Fatal("expected every sink to receive the event")
	}
}

func TestChannelSinkAndSinkFunc(t *testing.T) {
	ch := NewChannelSink(0)
	ch.Emit(context.Background(), Event{Event: "x"})
	if got := <-ch.Events(); got.Event != "x" {
		t.Fatalf("unexpected event %q", got.Event)
	}

	var seen string
	SinkFunc(func(_ context.Context, e Event) { seen = e.Event }).Emit(context.Background(), Event{Event: "y"})
	if seen != "y" {
		t.Fatalf("expected SinkFunc to be called, got %q", seen)
	}
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	var calls atomic.Int64
	sink := SinkFunc(func(_ context.Context, e Event) {
		calls.Add(1)
		if e.Event == "boom" {
			panic("sink failure")
		}
	})
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8, Logger: zap.New(core)}, sink)

	d.Emit(context.Background(), Event{Event: "boom"})
	d.Emit(context.Background(), Event{Event: "login_success"})
	d.Close()

	if calls.Load() != 2 {
		t.Fatalf("expected worker to keep running after a panic, got %d calls", calls.Load())
	}
	if d.Delivered() != 1 {
		t.Fatalf("expected 1 delivered event, got %d", d.Delivered())
	}
	if logs.FilterMessage("audit sink panicked").Len() != 1 {
		t.Fatal("expected the panic to be logged")
	}
}

func TestDispatcherStampsMissingTimestamp(t *testing.T) {
	fixed := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)
	ch := NewChannelSink(4)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, Now: func() time.Time { return fixed }}, ch)

	preset := fixed.Add(-time.Hour)
	d.Emit(context.Background(), Event{Event: "a"})
	d.Emit(context.Background(), Event{Event: "b", Timestamp: preset})
	d.Close()

	if got := <-ch.Events(); !got.Timestamp.Equal(fixed) {
		t.Fatalf("expected stamped time %v, got %v", fixed, got.Timestamp)
	}
	if got := <-ch.Events(); !got.Timestamp.Equal(preset) {
		t.Fatalf("expected preset time kept, got %v", got.Timestamp)
	}
}

func TestDispatcherCloseIsIdempotent(t *testing.T) {
	d := NewDispatcher(Config{Enabled: true, BufferSize: 2}, &countingSink{})
	d.Close()
	d.Close()
}
