package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xaenox/supportlens/internal/models"
)

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func newTestTrace(id string, category models.Category, user, bot string, minutes int, latency int64) *models.Trace {
	return &models.Trace{
		ID:             id,
		UserMessage:    user,
		BotResponse:    bot,
		Category:       category,
		Timestamp:      models.NewTimestamp(epoch.Add(time.Duration(minutes) * time.Minute)),
		ResponseTimeMS: latency,
	}
}

func setupMemoryStore(t *testing.T, opts Options) *MemoryStorage {
	t.Helper()
	store := NewMemoryStorage(opts)
	ctx := context.Background()
	traces := []*models.Trace{
		newTestTrace("b1", models.CategoryBilling, "Why was I charged twice?", "Let me check the invoice.", 1, 1000),
		newTestTrace("b2", models.CategoryBilling, "Can I get a Refund on this charge?", "Billing will review it.", 2, 1200),
		newTestTrace("r1", models.CategoryRefund, "I want my money back", "A refund is on its way.", 3, 800),
		newTestTrace("a1", models.CategoryAccountAccess, "Locked out", "Reset your password.", 4, 600),
	}
	for _, tr := range traces {
		if err := store.SaveTrace(ctx, tr); err != nil {
			t.Fatalf("SaveTrace(%s): %v", tr.ID, err)
		}
	}
	return store
}

func traceIDs(traces []models.Trace) []string {
	ids := make([]string, len(traces))
	for i, tr := range traces {
		ids[i] = tr.ID
	}
	return ids
}

func TestMemoryQueryTracesNewestFirst(t *testing.T) {
	store := setupMemoryStore(t, Options{})

	traces, err := store.QueryTraces(context.Background(), models.TraceQuery{})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	got := traceIDs(traces)
	want := []string{"a1", "r1", "b2", "b1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestMemoryQueryTracesCategoryAndSearch(t *testing.T) {
	store := setupMemoryStore(t, Options{})

	traces, err := store.QueryTraces(context.Background(), models.TraceQuery{
		Category: models.CategoryBilling,
		Search:   "refund",
	})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	if len(traces) != 1 || traces[0].ID != "b2" {
		t.Fatalf("got %v, want [b2]", traceIDs(traces))
	}
	for _, tr := range traces {
		if tr.Category != models.CategoryBilling {
			t.Fatalf("trace %s has category %s", tr.ID, tr.Category)
		}
	}
}

func TestMemoryQueryTracesSearchBothFields(t *testing.T) {
	store := setupMemoryStore(t, Options{})

	traces, err := store.QueryTraces(context.Background(), models.TraceQuery{Search: "REFUND"})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	// b2 matches on the user message, r1 on the bot response
	got := traceIDs(traces)
	if len(got) != 2 || got[0] != "r1" || got[1] != "b2" {
		t.Fatalf("got %v, want [r1 b2]", got)
	}
}

func TestMemoryQueryTracesCaseSensitive(t *testing.T) {
	store := setupMemoryStore(t, Options{CaseSensitiveSearch: true})

	traces, err := store.QueryTraces(context.Background(), models.TraceQuery{Search: "Refund"})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	if got := traceIDs(traces); len(got) != 1 || got[0] != "b2" {
		t.Fatalf("got %v, want [b2]", got)
	}
}

func TestMemoryQueryTracesAllIsNoFilter(t *testing.T) {
	store := setupMemoryStore(t, Options{})

	traces, err := store.QueryTraces(context.Background(), models.TraceQuery{Category: models.Category(models.CategoryAll)})
	if err != nil {
		t.Fatalf("QueryTraces: %v", err)
	}
	if len(traces) != 4 {
		t.Fatalf("got %d traces, want 4", len(traces))
	}
}

func TestMemoryQueryTracesInvalidCategory(t *testing.T) {
	store := setupMemoryStore(t, Options{})

	_, err := store.QueryTraces(context.Background(), models.TraceQuery{Category: "Shipping"})
	if !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("err = %v, want ErrInvalidCategory", err)
	}
}

func TestMemoryAnalytics(t *testing.T) {
	store := setupMemoryStore(t, Options{})

	a, err := store.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.TotalTraces != 4 {
		t.Fatalf("total = %d, want 4", a.TotalTraces)
	}
	if a.AvgResponseTimeMS != 900 {
		t.Fatalf("avg = %v, want 900", a.AvgResponseTimeMS)
	}

	want := []models.CategoryStat{
		{Category: models.CategoryBilling, Count: 2, Percentage: 50},
		{Category: models.CategoryRefund, Count: 1, Percentage: 25},
		{Category: models.CategoryAccountAccess, Count: 1, Percentage: 25},
	}
	if len(a.ByCategory) != len(want) {
		t.Fatalf("by_category = %+v", a.ByCategory)
	}
	sum := 0
	for i, s := range a.ByCategory {
		if s != want[i] {
			t.Fatalf("by_category[%d] = %+v, want %+v", i, s, want[i])
		}
		sum += s.Count
	}
	if sum != a.TotalTraces {
		t.Fatalf("sum %d != total %d", sum, a.TotalTraces)
	}
}

func TestMemoryAnalyticsKeepsUnknownCategories(t *testing.T) {
	store := NewMemoryStorage(Options{})
	ctx := context.Background()
	store.SaveTrace(ctx, newTestTrace("x1", "Shipping", "where is it", "on the way", 1, 100))
	store.SaveTrace(ctx, newTestTrace("g1", models.CategoryGeneralInquiry, "hi", "hello", 2, 300))

	a, err := store.Analytics(ctx)
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if len(a.ByCategory) != 2 {
		t.Fatalf("by_category = %+v", a.ByCategory)
	}
	if a.ByCategory[0].Category != models.CategoryGeneralInquiry || a.ByCategory[1].Category != "Shipping" {
		t.Fatalf("order = %+v", a.ByCategory)
	}
}

func TestMemoryAnalyticsEmpty(t *testing.T) {
	store := NewMemoryStorage(Options{})

	a, err := store.Analytics(context.Background())
	if err != nil {
		t.Fatalf("Analytics: %v", err)
	}
	if a.TotalTraces != 0 || len(a.ByCategory) != 0 || a.AvgResponseTimeMS != 0 {
		t.Fatalf("empty analytics = %+v", a)
	}
}
