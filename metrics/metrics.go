package metrics

import (
	"maps"
	"slices"
	"strings"
	"sync"
)

// Sample is the current value of one series held by a PushRegistry.
type Sample struct {
	Name   string
	Labels map[string]string
	Value  float64
}

// sampleStore keeps the latest value of every series, in first-write order.
type sampleStore struct {
	mu      sync.Mutex
	samples map[string]*Sample
	order   []string
}

func newSampleStore() *sampleStore {
	return &sampleStore{samples: make(map[string]*Sample)}
}

func (s *sampleStore) get(name string, labels map[string]string) *Sample {
	key := seriesKey(name, labels)
	sample, ok := s.samples[key]
	if !ok {
		sample = &Sample{Name: name, Labels: maps.Clone(labels)}
		s.samples[key] = sample
		s.order = append(s.order, key)
	}
	return sample
}

func (s *sampleStore) set(name string, labels map[string]string, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(name, labels).Value = v
}

func (s *sampleStore) add(name string, labels map[string]string, delta float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.get(name, labels).Value += delta
}

func (s *sampleStore) snapshot() []Sample {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Sample, 0, len(s.order))
	for _, key := range s.order {
		sample := *s.samples[key]
		sample.Labels = maps.Clone(sample.Labels)
		out = append(out, sample)
	}
	return out
}

// seriesKey identifies a series independently of label map order.
func seriesKey(name string, labels map[string]string) string {
	var b strings.Builder
	b.WriteString(name)
	for _, k := range slices.Sorted(maps.Keys(labels)) {
		b.WriteString("|")
		b.WriteString(k)
		b.WriteString("=")
		b.WriteString(labels[k])
	}
	return b.String()
}
