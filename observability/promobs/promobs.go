// Package promobs exposes the pipeline's Metric* names (defined in
// observability) as Prometheus collectors, registered on a caller-owned
// registry so multiple gopnik instances in one process don't collide on
// the default global registry.
package promobs

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/wudi/gopnik/observability"
)

// Metrics bundles the histogram/counter collectors backing every
// observability.Metric* name the pipeline emits.
type Metrics struct {
	ParseTime       prometheus.Histogram
	PageCount       prometheus.Histogram
	DecodedBytes    prometheus.Histogram
	DetectionTime   prometheus.Histogram
	FusionTime      prometheus.Histogram
	DetectionsFused prometheus.Histogram
	RedactionTime   prometheus.Histogram
	RedactionsCount prometheus.Counter
	DegradedCount   prometheus.Counter
	SignTime        prometheus.Histogram
	AuditCount      prometheus.Counter
}

// New constructs and registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	histogram := func(name, help string) prometheus.Histogram {
		h := prometheus.NewHistogram(prometheus.HistogramOpts{Name: metricToPromName(name), Help: help})
		reg.MustRegister(h)
		return h
	}
	counter := func(name, help string) prometheus.Counter {
		c := prometheus.NewCounter(prometheus.CounterOpts{Name: metricToPromName(name), Help: help})
		reg.MustRegister(c)
		return c
	}

	return &Metrics{
		ParseTime:       histogram(observability.MetricParseTime, "duration of PDF/raster parsing, seconds"),
		PageCount:       histogram(observability.MetricPageCount, "pages per processed document"),
		DecodedBytes:    histogram(observability.MetricDecodedBytes, "decoded raster bytes per page"),
		DetectionTime:   histogram(observability.MetricDetectionTime, "duration of per-page detection, seconds"),
		FusionTime:      histogram(observability.MetricFusionTime, "duration of per-page fusion, seconds"),
		DetectionsFused: histogram(observability.MetricDetectionsFused, "detections fused per page"),
		RedactionTime:   histogram(observability.MetricRedactionTime, "duration of per-page redaction, seconds"),
		RedactionsCount: counter(observability.MetricRedactionsCount, "total redactions applied"),
		DegradedCount:   counter(observability.MetricDegradedCount, "total redactions that fell back to a degraded style"),
		SignTime:        histogram(observability.MetricSignTime, "duration of audit record signing, seconds"),
		AuditCount:      counter(observability.MetricAuditCount, "total audit records produced"),
	}
}

// ObserveDuration records d against h, a small helper so call sites read
// as `defer promobs.ObserveDuration(m.ParseTime, time.Now())`.
func ObserveDuration(h prometheus.Histogram, since time.Time) {
	h.Observe(time.Since(since).Seconds())
}

// metricToPromName converts a dotted metric name (as used by the
// vendor-neutral observability.Metric* constants) into a Prometheus
// snake_case metric name.
func metricToPromName(dotted string) string {
	out := make([]byte, 0, len(dotted))
	for i := 0; i < len(dotted); i++ {
		if dotted[i] == '.' {
			out = append(out, '_')
			continue
		}
		out = append(out, dotted[i])
	}
	return string(out)
}
