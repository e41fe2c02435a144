// Package metrics exposes the relay's Prometheus instrumentation: one file
// per domain (gateway, messages, calls, sessions), each registering its
// counters/gauges/histograms against the package's own Registry via
// promauto, grounded on the teacher's internal/metrics file-per-subsystem
// layout and its promauto.With(Registry) registration idiom.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "whisper2"

// Registry is a private registry rather than the global default, so tests
// in this package don't collide with other packages' metrics registrations.
var Registry = prometheus.NewRegistry()
