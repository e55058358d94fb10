package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/xaenox/supportlens/internal/models"
)

type MemoryStorage struct {
	mu     sync.RWMutex
	traces []models.Trace
	opts   Options
}

func NewMemoryStorage(opts Options) *MemoryStorage {
	return &MemoryStorage{
		traces: make([]models.Trace, 0),
		opts:   opts,
	}
}

func (s *MemoryStorage) SaveTrace(ctx context.Context, trace *models.Trace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.traces = append(s.traces, *trace)
	return nil
}

func (s *MemoryStorage) QueryTraces(ctx context.Context, query models.TraceQuery) ([]models.Trace, error) {
	query, err := validateQuery(query)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]models.Trace, 0, len(s.traces))
	for _, t := range s.traces {
		if query.Matches(t, s.opts.CaseSensitiveSearch) {
			result = append(result, t)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp.Time)
	})
	return result, nil
}

func (s *MemoryStorage) Analytics(ctx context.Context) (*models.Analytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	// Group in canonical order first, then any unexpected labels in first-seen order
	counts := make(map[models.Category]int)
	var extra []models.Category
	var latency int64
	for _, t := range s.traces {
		if _, seen := counts[t.Category]; !seen && !t.Category.Known() {
			extra = append(extra, t.Category)
		}
		counts[t.Category]++
		latency += t.ResponseTimeMS
	}

	stats := orderedStats(counts, extra)
	return models.BuildAnalytics(stats, latency), nil
}

func (s *MemoryStorage) CountTraces(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.traces), nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
