package models

import "math"

// CategoryStat is the count and share of one category in an analytics snapshot
type CategoryStat struct {
	Category   Category `json:"category"`
	Count      int      `json:"count"`
	Percentage float64  `json:"percentage"`
}

// Analytics is an aggregate snapshot over the whole trace set
type Analytics struct {
	TotalTraces       int            `json:"total_traces"`
	ByCategory        []CategoryStat `json:"by_category"`
	AvgResponseTimeMS float64        `json:"avg_response_time_ms"`
}

// Percentage returns count as a share of total, rounded to one decimal.
// A zero total yields 0.
func Percentage(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return Round1(float64(count) / float64(total) * 100)
}

// Round1 rounds v to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// BuildAnalytics derives a snapshot from per-category counts and the summed
// latency. Categories keep the order of the counts slice; zero counts are skipped.
func BuildAnalytics(counts []CategoryStat, latencySumMS int64) *Analytics {
	total := 0
	for _, c := range counts {
		total += c.Count
	}

	a := &Analytics{
		TotalTraces: total,
		ByCategory:  []CategoryStat{},
	}
	if total == 0 {
		return a
	}

	for _, c := range counts {
		if c.Count == 0 {
			continue
		}
		a.ByCategory = append(a.ByCategory, CategoryStat{
			Category:   c.Category,
			Count:      c.Count,
			Percentage: Percentage(c.Count, total),
		})
	}
	a.AvgResponseTimeMS = Round1(float64(latencySumMS) / float64(total))
	return a
}
