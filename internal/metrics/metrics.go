package metrics

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Type classifies a metric sample.
type Type string

const (
	Counter Type = "counter"
	Gauge   Type = "gauge"
	Timer   Type = "timer"
)

// Metric is one recorded sample.
type Metric struct {
	Name      string            `json:"name"`
	Type      Type              `json:"type"`
	Value     float64           `json:"value"`
	Labels    map[string]string `json:"labels,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Collector accumulates in-process metrics for the status server.
type Collector struct {
	mu      sync.RWMutex
	samples map[string]Metric
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{samples: map[string]Metric{}}
}

func key(name string, labels map[string]string) string {
	if len(labels) == 0 {
		return name
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, k+"="+v)
	}
	sort.Strings(pairs)
	return name + "{" + strings.Join(pairs, ",") + "}"
}

// Add increments a counter.
func (c *Collector) Add(name string, delta float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := key(name, labels)
	m := c.samples[k]
	c.samples[k] = Metric{Name: name, Type: Counter, Value: m.Value + delta, Labels: labels, Timestamp: time.Now()}
}

// Set records a gauge value.
func (c *Collector) Set(name string, value float64, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[key(name, labels)] = Metric{Name: name, Type: Gauge, Value: value, Labels: labels, Timestamp: time.Now()}
}

// Observe records a duration in milliseconds.
func (c *Collector) Observe(name string, d time.Duration, labels map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.samples[key(name, labels)] = Metric{Name: name, Type: Timer, Value: float64(d.Milliseconds()), Labels: labels, Timestamp: time.Now()}
}

// Snapshot returns the current samples sorted by key.
func (c *Collector) Snapshot() []Metric {
	c.mu.RLock()
	defer c.mu.RUnlock()
	keys := make([]string, 0, len(c.samples))
	for k := range c.samples {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]Metric, 0, len(keys))
	for _, k := range keys {
		out = append(out, c.samples[k])
	}
	return out
}

// WritePrometheus renders samples in the Prometheus text exposition format.
func (c *Collector) WritePrometheus(w io.Writer) {
	seen := map[string]bool{}
	for _, m := range c.Snapshot() {
		if !seen[m.Name] {
			fmt.Fprintf(w, "# TYPE %s %s\n", m.Name, promType(m.Type))
			seen[m.Name] = true
		}
		fmt.Fprintf(w, "%s%s %g\n", m.Name, promLabels(m.Labels), m.Value)
	}
}

func promType(t Type) string {
	if t == Counter {
		return "counter"
	}
	return "gauge"
}

func promLabels(labels map[string]string) string {
	if len(labels) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(labels))
	for k, v := range labels {
		pairs = append(pairs, fmt.Sprintf(`%s=%q`, k, v))
	}
	sort.Strings(pairs)
	return "{" + strings.Join(pairs, ",") + "}"
}
