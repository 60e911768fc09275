package metrics

import (
	"testing"
	"time"
)

func TestInMemoryCollector_Counters(t *testing.T) {
	c := NewInMemoryCollector()

	c.CounterInc(IngestFilesTotal.Name, "format", "nessus", "status", "ok")
	c.CounterInc(IngestFilesTotal.Name, "format", "nessus", "status", "ok")
	c.CounterAdd(IngestFindingsTotal.Name, 12, "format", "nessus", "severity", "high")

	if got := c.GetCounter(IngestFilesTotal.Name, "format", "nessus", "status", "ok"); got != 2 {
		t.Errorf("files counter = %v, want 2", got)
	}
	if got := c.GetCounter(IngestFindingsTotal.Name, "format", "nessus", "severity", "high"); got != 12 {
		t.Errorf("findings counter = %v, want 12", got)
	}
	if got := c.GetCounter(IngestFilesTotal.Name, "format", "trivy", "status", "ok"); got != 0 {
		t.Errorf("unrelated labels must stay zero, got %v", got)
	}
}

func TestInMemoryCollector_Reset(t *testing.T) {
	c := NewInMemoryCollector()
	c.CounterInc(IngestWarningsTotal.Name, "format", "snyk")
	c.Reset()
	if got := c.GetCounter(IngestWarningsTotal.Name, "format", "snyk"); got != 0 {
		t.Errorf("counter after Reset = %v, want 0", got)
	}
}

func TestTimer_ObserveDuration(t *testing.T) {
	c := NewInMemoryCollector()
	timer := NewTimer(c, IngestParseDuration.Name, "format", "trivy")
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()

	observations := c.GetHistogram(IngestParseDuration.Name, "format", "trivy")
	if len(observations) != 1 {
		t.Fatalf("expected 1 observation, got %d", len(observations))
	}
	if observations[0] <= 0 || d <= 0 {
		t.Errorf("duration = %v, observation = %v", d, observations[0])
	}
}

func TestPrometheusCollector_IngestMetrics(t *testing.T) {
	c := NewPrometheusCollector(&PrometheusConfig{
		Namespace:             "testns",
		RegisterIngestMetrics: true,
	})

	// Unregistered names are a no-op, not a panic.
	c.CounterInc("does_not_exist", "format", "nessus")

	c.CounterInc(IngestFilesTotal.Name, "format", "nessus", "status", "ok")
	c.HistogramObserve(IngestParseDuration.Name, 0.2, "format", "nessus")

	if c.Handler() == nil {
		t.Error("Handler() = nil")
	}

	families, err := c.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error = %v", err)
	}
	found := false
	for _, mf := range families {
		if mf.GetName() == "testns_"+IngestFilesTotal.Name {
			found = true
		}
	}
	if !found {
		t.Errorf("files counter not gathered")
	}
}
