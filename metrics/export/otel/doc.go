// Package otel registers engine counters as OpenTelemetry observable
// instruments.
//
// Each counter becomes an Int64ObservableCounter. The validation latency
// histogram becomes a cumulative bucket gauge keyed by an "le" attribute,
// plus count and estimated-sum gauges. One callback reads
// Engine.MetricsSnapshot per collection; callers own the MeterProvider.
package otel
