// Package metrics records render, build and HTTP metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metric calls never need nil checks:
//
//	b, err := build.New(lib, renderer, "dist", build.WithRecorder(rec))
//
// PrometheusRecorder registers its collectors on a caller-supplied registry;
// HTTPHandler exposes that registry in the Prometheus text and OpenMetrics
// formats.
package metrics
