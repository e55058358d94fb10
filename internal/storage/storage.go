package storage

import (
	"context"
	"errors"

	"github.com/xaenox/supportlens/internal/models"
)

// ErrInvalidCategory is returned when a query names a category outside the known set.
var ErrInvalidCategory = errors.New("invalid category")

// Storage persists traces and answers dashboard queries.
type Storage interface {
	SaveTrace(ctx context.Context, trace *models.Trace) error
	// QueryTraces returns matching traces, most recent first.
	QueryTraces(ctx context.Context, query models.TraceQuery) ([]models.Trace, error)
	// Analytics is always computed over the whole trace set.
	Analytics(ctx context.Context) (*models.Analytics, error)
	CountTraces(ctx context.Context) (int, error)
	Close() error
}

// Options tunes search behaviour shared by every backend.
type Options struct {
	CaseSensitiveSearch bool
}

func validateQuery(query models.TraceQuery) (models.TraceQuery, error) {
	query = query.Normalize()
	if query.Category != "" && !query.Category.Known() {
		return query, ErrInvalidCategory
	}
	return query, nil
}

// orderedStats lists counts in canonical category order followed by any
// unexpected labels in the order they were seen.
func orderedStats(counts map[models.Category]int, extra []models.Category) []models.CategoryStat {
	stats := make([]models.CategoryStat, 0, len(models.Categories)+len(extra))
	for _, c := range models.Categories {
		stats = append(stats, models.CategoryStat{Category: c, Count: counts[c]})
	}
	for _, c := range extra {
		stats = append(stats, models.CategoryStat{Category: c, Count: counts[c]})
	}
	return stats
}
