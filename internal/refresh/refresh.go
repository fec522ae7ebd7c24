package refresh

import (
	"context"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/openeos/tvdisplay-core/internal/display"
	"github.com/openeos/tvdisplay-core/internal/infrastructure/logging"
	"github.com/openeos/tvdisplay-core/internal/session"
)

// DataAPI is the slice of the backend client the refresh jobs need.
type DataAPI interface {
	GetKitchenOrders(ctx context.Context, eventID string) ([]display.Order, error)
	GetReadyOrders(ctx context.Context, eventID string) ([]display.Order, error)
	GetDailyStats(ctx context.Context, eventID string) (*display.DailyStats, error)
	GetCategories(ctx context.Context, eventID string) ([]display.Category, error)
	GetProducts(ctx context.Context, eventID string) ([]display.Product, error)
	GetEvents(ctx context.Context) ([]display.Event, error)
	GetOrganization(ctx context.Context) (*display.OrganizationInfo, error)
}

// SessionView provides the current session snapshot.
type SessionView interface {
	Snapshot() session.Snapshot
}

// Journal records sync activity for diagnostics. Optional.
type Journal interface {
	Record(ctx context.Context, source, entity, detail string)
}

// fetchTimeout bounds each bulk fetch.
const fetchTimeout = 10 * time.Second

// Runner executes the periodic bulk refreshes that keep the store
// correct even if realtime events are missed: orders on a short
// interval, stats on a longer one. The catalog is fetched on start and
// on demand.
//
// Every job checks the session first; an unverified device or a missing
// event selection makes the job a no-op.
type Runner struct {
	api     DataAPI
	store   *display.Store
	sess    SessionView
	logger  *logging.Logger
	journal Journal

	ordersInterval time.Duration
	statsInterval  time.Duration

	mu        sync.Mutex
	scheduler *gocron.Scheduler
}

// New creates a refresh runner.
func New(api DataAPI, store *display.Store, sess SessionView, ordersInterval, statsInterval time.Duration, logger *logging.Logger) *Runner {
	return &Runner{
		api:            api,
		store:          store,
		sess:           sess,
		logger:         logger,
		ordersInterval: ordersInterval,
		statsInterval:  statsInterval,
	}
}

// SetJournal installs the sync journal. Must be called before Start.
func (r *Runner) SetJournal(j Journal) {
	r.journal = j
}

// Start schedules the periodic jobs and runs an initial full refresh.
// Calling Start while running is a no-op.
func (r *Runner) Start() {
	r.mu.Lock()
	if r.scheduler != nil {
		r.mu.Unlock()
		return
	}
	s := gocron.NewScheduler(time.UTC)
	r.scheduler = s
	r.mu.Unlock()

	s.Every(r.ordersInterval).Do(r.refreshOrders) //nolint:errcheck // Job config is static
	s.Every(r.statsInterval).Do(r.refreshStats)   //nolint:errcheck // Job config is static
	s.StartAsync()

	go r.RefreshNow()
}

// Stop halts the periodic jobs. Safe to call when not running.
func (r *Runner) Stop() {
	r.mu.Lock()
	s := r.scheduler
	r.scheduler = nil
	r.mu.Unlock()

	if s != nil {
		s.Stop()
	}
}

// RefreshNow performs a full refresh: orders, stats, and catalog. Used
// at startup, after an event change, and when the backend pushes a
// refresh signal.
func (r *Runner) RefreshNow() {
	r.refreshOrders()
	r.refreshStats()
	r.RefreshCatalog()
}

// eventScope returns the selected event id, or "" when refreshes
// should not run.
func (r *Runner) eventScope() string {
	snap := r.sess.Snapshot()
	if !snap.Verified() || snap.SelectedEventID == "" {
		return ""
	}
	return snap.SelectedEventID
}

func (r *Runner) record(ctx context.Context, entity string) {
	if r.journal != nil {
		r.journal.Record(ctx, "poll", entity, "")
	}
}

func (r *Runner) refreshOrders() {
	eventID := r.eventScope()
	if eventID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	orders, err := r.api.GetKitchenOrders(ctx, eventID)
	if err != nil {
		r.logger.Debug("orders refresh failed", "error", err)
	} else {
		r.store.SetOrders(orders)
		r.record(ctx, "orders")
	}

	ready, err := r.api.GetReadyOrders(ctx, eventID)
	if err != nil {
		r.logger.Debug("ready orders refresh failed", "error", err)
	} else {
		r.store.SetReadyOrders(ready)
		r.record(ctx, "ready_orders")
	}
}

func (r *Runner) refreshStats() {
	eventID := r.eventScope()
	if eventID == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	stats, err := r.api.GetDailyStats(ctx, eventID)
	if err != nil {
		r.logger.Debug("stats refresh failed", "error", err)
		return
	}
	r.store.SetStats(stats)
	r.record(ctx, "stats")
}

// RefreshCatalog fetches categories, products, events, and the
// organization. Called on start and after the event selection changes.
func (r *Runner) RefreshCatalog() {
	snap := r.sess.Snapshot()
	if !snap.Verified() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
	defer cancel()

	if org, err := r.api.GetOrganization(ctx); err != nil {
		r.logger.Debug("organization refresh failed", "error", err)
	} else {
		r.store.SetOrganization(org)
	}

	if events, err := r.api.GetEvents(ctx); err != nil {
		r.logger.Debug("events refresh failed", "error", err)
	} else {
		r.store.SetEvents(events)
	}

	eventID := snap.SelectedEventID
	if eventID == "" {
		return
	}

	if categories, err := r.api.GetCategories(ctx, eventID); err != nil {
		r.logger.Debug("categories refresh failed", "error", err)
	} else {
		r.store.SetCategories(categories)
	}

	if products, err := r.api.GetProducts(ctx, eventID); err != nil {
		r.logger.Debug("products refresh failed", "error", err)
	} else {
		r.store.SetProducts(products)
		r.record(ctx, "catalog")
	}
}
