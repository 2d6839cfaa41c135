package metrics

import (
	"strings"
	"testing"
	"time"
)

func TestAddAccumulates(t *testing.T) {
	c := NewCollector()
	c.Add("probes_total", 1, map[string]string{"service": "gateway"})
	c.Add("probes_total", 2, map[string]string{"service": "gateway"})
	c.Add("probes_total", 1, map[string]string{"service": "agent"})

	samples := c.Snapshot()
	if len(samples) != 2 {
		t.Fatalf("expected 2 series, got %d", len(samples))
	}
	for _, m := range samples {
		if m.Labels["service"] == "gateway" && m.Value != 3 {
			t.Errorf("gateway counter = %v", m.Value)
		}
	}
}

func TestSetAndObserve(t *testing.T) {
	c := NewCollector()
	c.Set("stack_status", 1, nil)
	c.Set("stack_status", 0, nil)
	c.Observe("probe_duration_ms", 250*time.Millisecond, nil)

	samples := c.Snapshot()
	if len(samples) != 2 {
		t.Fatalf("expected 2 series, got %d", len(samples))
	}
	for _, m := range samples {
		switch m.Name {
		case "stack_status":
			if m.Value != 0 {
				t.Errorf("gauge should hold last value, got %v", m.Value)
			}
		case "probe_duration_ms":
			if m.Value != 250 {
				t.Errorf("timer = %v", m.Value)
			}
		}
	}
}

func TestWritePrometheus(t *testing.T) {
	c := NewCollector()
	c.Add("probes_total", 4, map[string]string{"service": "gateway"})
	var sb strings.Builder
	c.WritePrometheus(&sb)
	out := sb.String()
	if !strings.Contains(out, "# TYPE probes_total counter") {
		t.Errorf("missing TYPE line:\n%s", out)
	}
	if !strings.Contains(out, `probes_total{service="gateway"} 4`) {
		t.Errorf("missing sample line:\n%s", out)
	}
}
