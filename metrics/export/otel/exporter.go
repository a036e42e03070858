package otel

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	schoolauth "github.com/vidkid7/SchoolManagementSystem-sub009"
	"github.com/vidkid7/SchoolManagementSystem-sub009/metrics/export/internaldefs"
)

var (
	ErrNilMeter  = errors.New("nil meter")
	ErrNilSource = errors.New("nil metrics source")
)

type metricsSource interface {
	MetricsSnapshot() schoolauth.MetricsSnapshot
	AuditDropped() uint64
}

// latencyInstruments mirrors one engine histogram as cumulative bucket,
// count and sum gauges. Buckets carry an "le" attribute like Prometheus.
type latencyInstruments struct {
	id      schoolauth.MetricID
	buckets metric.Int64ObservableGauge
	count   metric.Int64ObservableGauge
	sum     metric.Float64ObservableGauge
}

// Exporter owns the callback registration. Close unregisters it.
type Exporter struct {
	source       metricsSource
	registration metric.Registration

	counters     map[schoolauth.MetricID]metric.Int64ObservableCounter
	latency      []latencyInstruments
	auditDropped metric.Int64ObservableCounter
	bucketAttrs  []metric.ObserveOption
}

func NewExporter(meter metric.Meter, source metricsSource) (*Exporter, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if source == nil {
		return nil, ErrNilSource
	}

	e := &Exporter{
		source:      source,
		counters:    make(map[schoolauth.MetricID]metric.Int64ObservableCounter, len(internaldefs.CounterDefs)),
		bucketAttrs: bucketAttributes(),
	}
	var observables []metric.Observable

	for _, def := range internaldefs.CounterDefs {
		ins, err := meter.Int64ObservableCounter(def.Name, metric.WithDescription(def.Help))
		if err != nil {
			return nil, fmt.Errorf("observable counter %s: %w", def.Name, err)
		}
		e.counters[def.ID] = ins
		observables = append(observables, ins)
	}

	for _, def := range internaldefs.HistogramDefs {
		li := latencyInstruments{id: def.ID}
		var err error
		if li.buckets, err = meter.Int64ObservableGauge(def.Name+"_bucket", metric.WithDescription("Cumulative bucket count.")); err != nil {
			return nil, fmt.Errorf("bucket gauge %s: %w", def.Name, err)
		}
		if li.count, err = meter.Int64ObservableGauge(def.Name+"_count", metric.WithDescription(def.Help)); err != nil {
			return nil, fmt.Errorf("count gauge %s: %w", def.Name, err)
		}
		if li.sum, err = meter.Float64ObservableGauge(def.Name+"_sum", metric.WithDescription("Estimated from bucket bounds."), metric.WithUnit("s")); err != nil {
			return nil, fmt.Errorf("sum gauge %s: %w", def.Name, err)
		}
		e.latency = append(e.latency, li)
		observables = append(observables, li.buckets, li.count, li.sum)
	}

	dropped, err := meter.Int64ObservableCounter(internaldefs.AuditDroppedName, metric.WithDescription(internaldefs.AuditDroppedHelp))
	if err != nil {
		return nil, fmt.Errorf("audit dropped counter: %w", err)
	}
	e.auditDropped = dropped
	observables = append(observables, dropped)

	reg, err := meter.RegisterCallback(e.observe, observables...)
	if err != nil {
		return nil, fmt.Errorf("register callback: %w", err)
	}
	e.registration = reg
	return e, nil
}

func bucketAttributes() []metric.ObserveOption {
	opts := make([]metric.ObserveOption, 0, len(internaldefs.HistogramBounds)+1)
	for _, bound := range internaldefs.HistogramBounds {
		opts = append(opts, metric.WithAttributes(attribute.String("le", strconv.FormatFloat(bound, 'g', -1, 64))))
	}
	return append(opts, metric.WithAttributes(attribute.String("le", "+Inf")))
}

func (e *Exporter) observe(_ context.Context, o metric.Observer) error {
	snapshot := e.source.MetricsSnapshot()
	for id, ins := range e.counters {
		o.ObserveInt64(ins, int64(snapshot.Counters[id]))
	}
	for _, li := range e.latency {
		raw := internaldefs.NormalizeBuckets(snapshot.Histograms[li.id])
		cumulative := internaldefs.CumulativeBuckets(raw)
		for i, n := range cumulative {
			o.ObserveInt64(li.buckets, int64(n), e.bucketAttrs[i])
		}
		o.ObserveInt64(li.count, int64(cumulative[len(cumulative)-1]))
		o.ObserveFloat64(li.sum, internaldefs.SumEstimate(raw))
	}
	o.ObserveInt64(e.auditDropped, int64(e.source.AuditDropped()))
	return nil
}

func (e *Exporter) Close() error {
	if e == nil || e.registration == nil {
		return nil
	}
	return e.registration.Unregister()
}
