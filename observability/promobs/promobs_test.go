package promobs

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RedactionsCount.Inc()
	m.DegradedCount.Add(2)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatalf("expected registered metric families, got none")
	}
}

func TestMetricToPromNameReplacesDots(t *testing.T) {
	got := metricToPromName("gopnik.parse.duration")
	if got != "gopnik_parse_duration" {
		t.Fatalf("expected gopnik_parse_duration, got %s", got)
	}
}
