// Package domain holds the client-reported telemetry record kinds and their on-disk aggregates.
package domain

import (
	"encoding/json"
	"time"
)

// Kind identifies one of the four telemetry streams.
type Kind string

const (
	KindEvent       Kind = "event"
	KindPageView    Kind = "pageview"
	KindPerformance Kind = "performance"
	KindError       Kind = "error"
)

// Event is a named analytics event with free-form properties.
type Event struct {
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	Path       string         `json:"path,omitempty"`
	SessionID  string         `json:"sessionId,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// PageView records one page load.
type PageView struct {
	Path      string    `json:"path"`
	Referrer  string    `json:"referrer,omitempty"`
	Title     string    `json:"title,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// PerformanceTiming is one client-side measurement set, e.g. {"ttfb": 120, "lcp": 1800} for page "/menu".
type PerformanceTiming struct {
	Name      string             `json:"name"`
	Path      string             `json:"path,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
	Timestamp time.Time          `json:"timestamp"`
}

// ErrorReport is a client-side error.
type ErrorReport struct {
	Message   string    `json:"message"`
	Stack     string    `json:"stack,omitempty"`
	Path      string    `json:"path,omitempty"`
	Component string    `json:"component,omitempty"`
	UserAgent string    `json:"userAgent,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Aggregate is the content of one telemetry file: per-key counts, a grand total and the newest
// records, newest first.
type Aggregate[T any] struct {
	Counts    map[string]int `json:"counts"`
	Total     int            `json:"total"`
	Recent    []T            `json:"recent"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Add counts item under key and keeps at most limit recent items.
func (a *Aggregate[T]) Add(key string, item T, limit int, at time.Time) {
	if a.Counts == nil {
		a.Counts = make(map[string]int)
	}
	a.Counts[key]++
	a.Total++
	a.Recent = append([]T{item}, a.Recent...)
	if limit > 0 && len(a.Recent) > limit {
		a.Recent = a.Recent[:limit]
	}
	a.UpdatedAt = at
}

// Normalize replaces nil collections with empty ones so the JSON shape is stable.
func (a *Aggregate[T]) Normalize() {
	if a.Counts == nil {
		a.Counts = map[string]int{}
	}
	if a.Recent == nil {
		a.Recent = []T{}
	}
}

type (
	EventData    = Aggregate[Event]
	PageViewData = Aggregate[PageView]
	ErrorData    = Aggregate[ErrorReport]
)

// MetricStats summarizes every sample of one metric.
type MetricStats struct {
	Count int     `json:"count"`
	Sum   float64 `json:"sum"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
}

// Observe folds v into s.
func (s *MetricStats) Observe(v float64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Count++
	s.Sum += v
	s.Avg = s.Sum / float64(s.Count)
}

// PerformanceData is the performance file: timing counts by name, per-name per-metric statistics
// and the newest samples.
type PerformanceData struct {
	Aggregate[PerformanceTiming]
	Metrics map[string]map[string]MetricStats `json:"metrics"`
}

// PerformanceFilter selects timings by name and/or path. Empty fields match everything.
type PerformanceFilter struct {
	Name string
	Path string
}

// Matches reports whether t passes f.
func (f PerformanceFilter) Matches(t PerformanceTiming) bool {
	return (f.Name == "" || t.Name == f.Name) && (f.Path == "" || t.Path == f.Path)
}

// Record is the envelope forwarded to emitters (OTel logs, Kafka) for every stored telemetry item.
type Record struct {
	Kind      Kind            `json:"kind"`
	Name      string          `json:"name"`
	Path      string          `json:"path,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}
