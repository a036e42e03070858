// Package prometheus exposes engine counters through a client_golang
// [prometheus.Collector].
//
// [NewCollector] reads Engine.MetricsSnapshot on every scrape. Register it
// on your own registry, or use [Handler] for a ready-made endpoint backed
// by a private registry.
package prometheus
