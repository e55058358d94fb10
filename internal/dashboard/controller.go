// Package dashboard reconciles filter input, the trace listing and the
// analytics snapshot into a single view model.
package dashboard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xaenox/supportlens/internal/clock"
	"github.com/xaenox/supportlens/internal/debounce"
	"github.com/xaenox/supportlens/internal/models"
)

// Store is the read side of the trace store the dashboard depends on.
// *client.Client satisfies it.
type Store interface {
	QueryTraces(ctx context.Context, q models.TraceQuery) ([]models.Trace, error)
	QueryAnalytics(ctx context.Context) (*models.Analytics, error)
}

// ViewModel is a snapshot of everything the presentation layer renders.
type ViewModel struct {
	State  State
	Filter FilterState
	// Query is the query Traces were fetched with.
	Query     models.TraceQuery
	Traces    []models.Trace
	Analytics *models.Analytics
	Breakdown Breakdown

	Loading    bool
	Refreshing bool
	Err        string
}

type fetchRequest struct {
	seq   uint64
	query models.TraceQuery
}

type fetchResult struct {
	fetchRequest
	traces    []models.Trace
	analytics *models.Analytics
	err       error
}

// Controller owns one FilterState and one ViewModel. All mutation happens on
// the goroutine running Run; the setters only post events to it.
type Controller struct {
	store  Store
	clock  clock.Clock
	delay  time.Duration
	logger *zap.Logger

	debouncer *debounce.Debouncer[string]

	categoryCh chan models.Category
	searchCh   chan string
	settleCh   chan string
	refreshCh  chan struct{}
	resultCh   chan fetchResult
	updates    chan ViewModel
	done       chan struct{}

	mu       sync.Mutex
	snapshot ViewModel

	// owned by the Run goroutine
	filter  FilterState
	view    ViewModel
	seq     uint64
	applied uint64 // seq of the newest successful result in view
}

type Option func(*Controller)

func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) { ctrl.clock = c }
}

func WithLogger(logger *zap.Logger) Option {
	return func(ctrl *Controller) { ctrl.logger = logger }
}

// WithDebounce sets the search quiet period. Non-positive values keep the default.
func WithDebounce(d time.Duration) Option {
	return func(ctrl *Controller) {
		if d > 0 {
			ctrl.delay = d
		}
	}
}

func NewController(store Store, opts ...Option) *Controller {
	c := &Controller{
		store:      store,
		clock:      clock.Real(),
		delay:      debounce.DefaultDelay,
		logger:     zap.NewNop(),
		categoryCh: make(chan models.Category),
		searchCh:   make(chan string),
		settleCh:   make(chan string),
		refreshCh:  make(chan struct{}),
		resultCh:   make(chan fetchResult),
		updates:    make(chan ViewModel, 1),
		done:       make(chan struct{}),
		filter:     NewFilterState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.debouncer = debounce.New(c.clock, c.delay, c.settle)
	c.view.Filter = c.filter
	c.snapshot = c.view
	return c
}

// Run starts the initial load and processes events until ctx is cancelled.
// It must be called once. Setters block until Run is receiving and return
// immediately once it has exited.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	c.view.State = InitialLoading
	c.view.Loading = true
	c.startFetch(ctx)
	c.publish()

	for {
		select {
		case <-ctx.Done():
			c.teardown()
			return ctx.Err()

		case category := <-c.categoryCh:
			if c.filter.SetCategory(category) {
				c.reload(ctx)
			}
			c.publish()

		case raw := <-c.searchCh:
			c.filter.SetRawSearch(raw)
			c.debouncer.Update(raw)
			c.publish()

		case settled := <-c.settleCh:
			if c.filter.Settle(settled) {
				c.reload(ctx)
			}
			c.publish()

		case <-c.refreshCh:
			if c.view.State == Loaded || c.view.State == Failed {
				c.reload(ctx)
				c.publish()
			}

		case res := <-c.resultCh:
			if c.apply(res) {
				c.publish()
			}
		}
	}
}

// SetCategory selects a category, or models.CategoryAll. A change reloads at once.
func (c *Controller) SetCategory(category models.Category) {
	select {
	case c.categoryCh <- category:
	case <-c.done:
	}
}

// SetSearch records typed search text. The listing reloads once the text has
// been stable for the debounce window.
func (c *Controller) SetSearch(text string) {
	select {
	case c.searchCh <- text:
	case <-c.done:
	}
}

// Refresh reloads with the current filters. It is ignored while a load is in flight.
func (c *Controller) Refresh() {
	select {
	case c.refreshCh <- struct{}{}:
	case <-c.done:
	}
}

// View returns the latest published view model.
func (c *Controller) View() ViewModel {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Updates delivers view models as they change. Only the most recent
// undelivered one is kept.
func (c *Controller) Updates() <-chan ViewModel {
	return c.updates
}

// Done is closed when Run has returned.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

func (c *Controller) settle(text string) {
	select {
	case c.settleCh <- text:
	case <-c.done:
	}
}

func (c *Controller) reload(ctx context.Context) {
	// a filter change during the initial load keeps the full-page loading state
	if c.view.State != InitialLoading {
		c.view.State = Refreshing
		c.view.Loading = false
		c.view.Refreshing = true
	}
	c.startFetch(ctx)
}

func (c *Controller) startFetch(ctx context.Context) {
	c.seq++
	req := fetchRequest{seq: c.seq, query: c.filter.Query()}
	c.logger.Debug("Fetching dashboard data",
		zap.Uint64("seq", req.seq),
		zap.String("category", string(req.query.Category)),
		zap.String("search", req.query.Search))
	go c.fetch(ctx, req)
}

// fetch loads the listing and the analytics snapshot concurrently. The first
// failure cancels the sibling request.
func (c *Controller) fetch(ctx context.Context, req fetchRequest) {
	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	res := fetchResult{fetchRequest: req}
	var (
		wg      sync.WaitGroup
		errOnce sync.Once
	)
	fail := func(err error) {
		errOnce.Do(func() {
			res.err = err
			cancel()
		})
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		traces, err := c.store.QueryTraces(fetchCtx, req.query)
		if err != nil {
			fail(err)
			return
		}
		res.traces = traces
	}()
	go func() {
		defer wg.Done()
		analytics, err := c.store.QueryAnalytics(fetchCtx)
		if err != nil {
			fail(err)
			return
		}
		res.analytics = analytics
	}()
	wg.Wait()

	select {
	case c.resultCh <- res:
	case <-ctx.Done():
	}
}

// apply folds a fetch result into the view and reports whether it changed.
// Results for a query other than the current one are stale and dropped, as
// are results older than data already shown. Only the most recently issued
// fetch ends the busy state.
func (c *Controller) apply(res fetchResult) bool {
	if res.query != c.filter.Query() {
		c.logger.Debug("Discarded stale dashboard result",
			zap.Uint64("seq", res.seq),
			zap.String("category", string(res.query.Category)),
			zap.String("search", res.query.Search))
		return false
	}
	if res.seq < c.applied {
		c.logger.Debug("Discarded superseded dashboard result",
			zap.Uint64("seq", res.seq),
			zap.Uint64("applied", c.applied))
		return false
	}

	latest := res.seq == c.seq
	if res.err != nil {
		if !latest {
			return false
		}
		c.logger.Warn("Dashboard load failed", zap.Uint64("seq", res.seq), zap.Error(res.err))
		c.view.State = Failed
		c.view.Err = res.err.Error()
	} else {
		c.applied = res.seq
		c.view.Query = res.query
		c.view.Traces = res.traces
		c.view.Analytics = res.analytics
		if res.analytics != nil {
			c.view.Breakdown = Aggregate(res.analytics.ByCategory, models.Categories)
		}
		if latest {
			c.view.State = Loaded
			c.view.Err = ""
		}
	}

	if latest {
		c.view.Loading = false
		c.view.Refreshing = false
	}
	return true
}

func (c *Controller) teardown() {
	c.debouncer.Stop()
	c.view.State = Idle
	c.view.Loading = false
	c.view.Refreshing = false
	c.publish()
}

func (c *Controller) publish() {
	c.view.Filter = c.filter
	v := c.view

	c.mu.Lock()
	c.snapshot = v
	c.mu.Unlock()

	// latest wins; this goroutine is the only sender
	select {
	case <-c.updates:
	default:
	}
	c.updates <- v
}
