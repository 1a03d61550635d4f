// Package store persists client telemetry as four JSON aggregate files on local disk.
//
// The store is a best-effort sink: write failures are logged and swallowed, and a missing or
// corrupt file reads as an empty aggregate. Writers inside one process are serialized; nothing
// coordinates writers across processes.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"restaurant-pos/backend/internal/logging"
	"restaurant-pos/backend/internal/telemetry"
	"restaurant-pos/backend/internal/telemetry/domain"
)

const (
	eventsFile      = "events.json"
	pageViewsFile   = "pageviews.json"
	performanceFile = "performance.json"
	errorsFile      = "errors.json"
)

// DefaultRecentLimit is used when Options.RecentLimit is not positive.
const DefaultRecentLimit = 100

// maxErrorKeyLen bounds the aggregation key derived from an error message.
const maxErrorKeyLen = 100

// Validation errors returned by the Record and Append methods; nothing is written.
var (
	ErrNameRequired    = errors.New("name is required")
	ErrPathRequired    = errors.New("path is required")
	ErrMetricsRequired = errors.New("metrics are required")
	ErrMessageRequired = errors.New("message is required")
)

// Options configures a Store.
type Options struct {
	// RecentLimit caps the recent list kept in each file.
	RecentLimit int
	// Emitter receives every recorded item after it is written. May be nil.
	Emitter *telemetry.Async
	Logger  logging.Logger
}

// Store is the flat-file telemetry store rooted at one directory.
type Store struct {
	dir     string
	limit   int
	emitter *telemetry.Async
	log     logging.Logger

	mu   sync.Mutex
	nowF func() time.Time
}

// New returns a Store writing under dir, creating it if needed.
func New(dir string, opts Options) (*Store, error) {
	if dir == "" {
		return nil, errors.New("telemetry store: directory is empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("telemetry store: create %s: %w", dir, err)
	}
	limit := opts.RecentLimit
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	log := opts.Logger
	if log == nil {
		log = logging.Nop()
	}
	return &Store{
		dir:     dir,
		limit:   limit,
		emitter: opts.Emitter,
		log:     log,
		nowF:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// RecordEvent counts one occurrence of the named event.
func (s *Store) RecordEvent(ctx context.Context, name string, properties map[string]any) error {
	return s.AppendEvent(ctx, domain.Event{Name: name, Properties: properties})
}

// AppendEvent records ev, keyed by its name.
func (s *Store) AppendEvent(ctx context.Context, ev domain.Event) error {
	if ev.Name == "" {
		return ErrNameRequired
	}
	ev.Timestamp = s.stamp(ev.Timestamp)
	s.mu.Lock()
	data := load[domain.EventData](ctx, s, eventsFile)
	data.Add(ev.Name, ev, s.limit, s.nowF())
	s.save(ctx, eventsFile, &data)
	s.mu.Unlock()

	s.forward(domain.KindEvent, ev.Name, ev.Path, ev.Timestamp, ev)
	return nil
}

// RecordPageView records one view of pv.Path.
func (s *Store) RecordPageView(ctx context.Context, pv domain.PageView) error {
	if pv.Path == "" {
		return ErrPathRequired
	}
	pv.Timestamp = s.stamp(pv.Timestamp)
	s.mu.Lock()
	data := load[domain.PageViewData](ctx, s, pageViewsFile)
	data.Add(pv.Path, pv, s.limit, s.nowF())
	s.save(ctx, pageViewsFile, &data)
	s.mu.Unlock()

	s.forward(domain.KindPageView, pv.Path, pv.Path, pv.Timestamp, pv)
	return nil
}

// RecordPerformanceTiming folds pt.Metrics into the statistics for pt.Name. An empty name falls back to the path.
func (s *Store) RecordPerformanceTiming(ctx context.Context, pt domain.PerformanceTiming) error {
	if pt.Name == "" {
		pt.Name = pt.Path
	}
	if pt.Name == "" {
		return ErrNameRequired
	}
	if len(pt.Metrics) == 0 {
		return ErrMetricsRequired
	}
	pt.Timestamp = s.stamp(pt.Timestamp)
	s.mu.Lock()
	data := load[domain.PerformanceData](ctx, s, performanceFile)
	data.Add(pt.Name, pt, s.limit, s.nowF())
	if data.Metrics == nil {
		data.Metrics = make(map[string]map[string]domain.MetricStats)
	}
	byMetric := data.Metrics[pt.Name]
	if byMetric == nil {
		byMetric = make(map[string]domain.MetricStats)
		data.Metrics[pt.Name] = byMetric
	}
	for metric, v := range pt.Metrics {
		st := byMetric[metric]
		st.Observe(v)
		byMetric[metric] = st
	}
	s.save(ctx, performanceFile, &data)
	s.mu.Unlock()

	s.forward(domain.KindPerformance, pt.Name, pt.Path, pt.Timestamp, pt)
	return nil
}

// RecordError records er, keyed by its message truncated to 100 characters.
func (s *Store) RecordError(ctx context.Context, er domain.ErrorReport) error {
	if er.Message == "" {
		return ErrMessageRequired
	}
	er.Timestamp = s.stamp(er.Timestamp)
	key := errorKey(er.Message)
	s.mu.Lock()
	data := load[domain.ErrorData](ctx, s, errorsFile)
	data.Add(key, er, s.limit, s.nowF())
	s.save(ctx, errorsFile, &data)
	s.mu.Unlock()

	s.forward(domain.KindError, key, er.Path, er.Timestamp, er)
	return nil
}

// EventData returns the event aggregate.
func (s *Store) EventData(ctx context.Context) domain.EventData {
	data := read[domain.EventData](ctx, s, eventsFile)
	data.Normalize()
	return data
}

// PageViews returns the page view aggregate.
func (s *Store) PageViews(ctx context.Context) domain.PageViewData {
	data := read[domain.PageViewData](ctx, s, pageViewsFile)
	data.Normalize()
	return data
}

// ErrorData returns the error aggregate.
func (s *Store) ErrorData(ctx context.Context) domain.ErrorData {
	data := read[domain.ErrorData](ctx, s, errorsFile)
	data.Normalize()
	return data
}

// PerformanceData returns the performance aggregate narrowed by f. Recent samples are filtered by
// name and path; counts and metric statistics are narrowed by name only, since they are keyed by name.
func (s *Store) PerformanceData(ctx context.Context, f domain.PerformanceFilter) domain.PerformanceData {
	data := read[domain.PerformanceData](ctx, s, performanceFile)
	data.Normalize()
	if data.Metrics == nil {
		data.Metrics = map[string]map[string]domain.MetricStats{}
	}
	if f == (domain.PerformanceFilter{}) {
		return data
	}
	recent := make([]domain.PerformanceTiming, 0, len(data.Recent))
	for _, t := range data.Recent {
		if f.Matches(t) {
			recent = append(recent, t)
		}
	}
	data.Recent = recent
	if f.Name != "" {
		counts := map[string]int{}
		metrics := map[string]map[string]domain.MetricStats{}
		if n, ok := data.Counts[f.Name]; ok {
			counts[f.Name] = n
		}
		if m, ok := data.Metrics[f.Name]; ok {
			metrics[f.Name] = m
		}
		data.Counts = counts
		data.Metrics = metrics
		data.Total = counts[f.Name]
	}
	return data
}

func (s *Store) stamp(t time.Time) time.Time {
	if t.IsZero() {
		return s.nowF()
	}
	return t.UTC()
}

// read loads name under the mutex so readers never observe a file between writers.
func read[T any](ctx context.Context, s *Store, name string) T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return load[T](ctx, s, name)
}

// load decodes name. Missing files give the zero value; corrupt files are logged and give the zero value.
// Callers hold s.mu.
func load[T any](ctx context.Context, s *Store, name string) T {
	var zero T
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn(ctx, "telemetry store: read failed", "file", name, "error", err)
		}
		return zero
	}
	if len(b) == 0 {
		return zero
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		s.log.Warn(ctx, "telemetry store: corrupt file treated as empty", "file", name, "error", err)
		return zero
	}
	return v
}

// save writes v to name via a temp file and rename. Failures are logged and swallowed. Callers hold s.mu.
func (s *Store) save(ctx context.Context, name string, v any) {
	if err := writeAtomic(filepath.Join(s.dir, name), v); err != nil {
		s.log.Warn(ctx, "telemetry store: write failed", "file", name, "error", err)
	}
}

func writeAtomic(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (s *Store) forward(kind domain.Kind, name, path string, ts time.Time, item any) {
	if s.emitter == nil {
		return
	}
	payload, err := json.Marshal(item)
	if err != nil {
		return
	}
	s.emitter.Emit(&domain.Record{Kind: kind, Name: name, Path: path, Timestamp: ts, Payload: payload})
}

func errorKey(msg string) string {
	r := []rune(msg)
	if len(r) > maxErrorKeyLen {
		return string(r[:maxErrorKeyLen])
	}
	return msg
}
