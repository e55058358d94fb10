package dashboard

import "github.com/xaenox/supportlens/internal/models"

// Breakdown is the display-ready category distribution of an analytics snapshot.
type Breakdown struct {
	// Stats has exactly one entry per category of the requested order.
	Stats []models.CategoryStat
	// Unclassified holds entries whose category is outside that order.
	Unclassified []models.CategoryStat
}

// Total is the number of traces across both buckets.
func (b Breakdown) Total() int {
	n := 0
	for _, s := range b.Stats {
		n += s.Count
	}
	for _, s := range b.Unclassified {
		n += s.Count
	}
	return n
}

// Aggregate fills raw against order: every category of order appears once, in
// order, with zero count and percentage when raw lacks it. Percentages from
// raw are passed through untouched. Entries for categories not in order keep
// their relative order in Unclassified.
func Aggregate(raw []models.CategoryStat, order []models.Category) Breakdown {
	index := make(map[models.Category]int, len(order))
	b := Breakdown{Stats: make([]models.CategoryStat, len(order))}
	for i, c := range order {
		index[c] = i
		b.Stats[i] = models.CategoryStat{Category: c}
	}

	for _, s := range raw {
		i, ok := index[s.Category]
		if !ok {
			b.Unclassified = append(b.Unclassified, s)
			continue
		}
		// duplicate rows share the same total, so they merge additively
		b.Stats[i].Count += s.Count
		b.Stats[i].Percentage += s.Percentage
	}
	return b
}
