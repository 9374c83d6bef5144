package usecase

import (
	"context"
	"fmt"
	"iter"
	"strconv"
	"sync"
	"time"

	"orders-dashboard/internal/domain"
	"orders-dashboard/pkg/cache"
	"orders-dashboard/pkg/logger"
	"orders-dashboard/pkg/utils"
)

// progressStep is how far one AdjustProgress nudge moves the bar.
const progressStep = 10

// Dashboard reconciles the authoritative order list, pending edits, push
// events and the stats snapshot into display-ready rows.
type Dashboard struct {
	gateway domain.OrderGateway
	edits   *EditBuffer
	recent  cache.RecentTracker
	now     func() time.Time

	mu        sync.Mutex
	orders    []domain.Order
	stats     domain.Stats
	loading   bool
	connected bool
	search    string
	filter    string
	inflight  map[string]struct{}

	changes chan struct{}
}

func NewDashboard(gateway domain.OrderGateway, recent cache.RecentTracker) *Dashboard {
	return &Dashboard{
		gateway:  gateway,
		edits:    NewEditBuffer(),
		recent:   recent,
		now:      time.Now,
		loading:  true,
		filter:   domain.StatusFilterAll,
		inflight: make(map[string]struct{}),
		changes:  make(chan struct{}, 1),
	}
}

// Changes delivers a signal after any state change. Signals coalesce, so
// a receiver should re-read everything it shows.
func (d *Dashboard) Changes() <-chan struct{} {
	return d.changes
}

func (d *Dashboard) notify() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// Load performs the initial bulk read. On failure the dashboard stays in
// the loading state. Orders pushed while the read was in flight and
// missing from its result stay at the head of the list.
func (d *Dashboard) Load(ctx context.Context) error {
	orders, stats, err := d.gateway.FetchAll(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Initial load failed")
		return err
	}

	fetched := make(map[string]struct{}, len(orders))
	for _, o := range orders {
		fetched[o.ID] = struct{}{}
	}

	d.mu.Lock()
	merged := make([]domain.Order, 0, len(d.orders)+len(orders))
	for _, o := range d.orders {
		if _, ok := fetched[o.ID]; !ok {
			merged = append(merged, o)
		}
	}
	kept := len(merged)
	d.orders = append(merged, orders...)
	d.stats = stats
	d.loading = false
	d.mu.Unlock()

	logger.Info().Int("orders", len(orders)).Int("pushed", kept).Msg("Dashboard loaded")
	d.notify()
	return nil
}

func (d *Dashboard) Loading() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loading
}

// --- Push events ---

// ApplyNewOrder puts o at the head of the list, or replaces the existing
// order with the same ID where it stands.
func (d *Dashboard) ApplyNewOrder(o domain.Order) {
	d.mu.Lock()
	if i := d.indexOf(o.ID); i >= 0 {
		d.orders[i] = o
	} else {
		d.orders = append([]domain.Order{o}, d.orders...)
	}
	d.mu.Unlock()

	d.markRecent(o.ID)
	d.notify()
}

// ApplyOrderUpdated replaces the order with the same ID in place. Unknown
// IDs are ignored.
func (d *Dashboard) ApplyOrderUpdated(o domain.Order) {
	d.mu.Lock()
	i := d.indexOf(o.ID)
	if i < 0 {
		d.mu.Unlock()
		logger.Debug().Str("order_id", o.ID).Msg("Update for unknown order ignored")
		return
	}
	d.orders[i] = o
	d.mu.Unlock()

	d.markRecent(o.ID)
	d.notify()
}

func (d *Dashboard) ApplyStats(s domain.Stats) {
	d.mu.Lock()
	d.stats = s
	d.mu.Unlock()
	d.notify()
}

func (d *Dashboard) ApplyLiveViews(v domain.LiveViews) {
	d.mu.Lock()
	d.stats.LiveViews = v.LiveViews
	d.stats.UniqueVisitors = v.UniqueVisitors
	d.mu.Unlock()
	d.notify()
}

func (d *Dashboard) ApplyConnectivity(up bool) {
	d.mu.Lock()
	d.connected = up
	d.mu.Unlock()
	d.notify()
}

func (d *Dashboard) Connected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

func (d *Dashboard) markRecent(id string) {
	if d.recent != nil {
		d.recent.Mark(id)
	}
}

// --- Search & filter ---

func (d *Dashboard) SetSearch(term string) {
	d.mu.Lock()
	d.search = term
	d.mu.Unlock()
	d.notify()
}

// SetStatusFilter accepts "all" or one of the order statuses.
func (d *Dashboard) SetStatusFilter(filter string) error {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.filter = filter
	d.mu.Unlock()
	d.notify()
	return nil
}

func normalizeFilter(filter string) (string, error) {
	if filter == "" {
		return domain.StatusFilterAll, nil
	}
	if filter != domain.StatusFilterAll && !domain.OrderStatus(filter).Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidFilter, filter)
	}
	return filter, nil
}

func (d *Dashboard) Search() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.search
}

func (d *Dashboard) StatusFilter() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// VisibleRows yields the orders that pass the search term and status
// filter, in list order, with pending edits laid over them. Each range
// works on a snapshot taken when it starts.
func (d *Dashboard) VisibleRows() iter.Seq[domain.Row] {
	return func(yield func(domain.Row) bool) {
		d.mu.Lock()
		search, filter := d.search, d.filter
		d.mu.Unlock()
		d.emit(search, filter, yield)
	}
}

// Rows is VisibleRows with an explicit search term and status filter
// instead of the dashboard's own.
func (d *Dashboard) Rows(search, filter string) (iter.Seq[domain.Row], error) {
	filter, err := normalizeFilter(filter)
	if err != nil {
		return nil, err
	}
	return func(yield func(domain.Row) bool) {
		d.emit(search, filter, yield)
	}, nil
}

func (d *Dashboard) emit(search, filter string, yield func(domain.Row) bool) {
	d.mu.Lock()
	orders := make([]domain.Order, len(d.orders))
	copy(orders, d.orders)
	d.mu.Unlock()

	for _, o := range orders {
		if !matchesSearch(o, search) || !matchesStatus(o, filter) {
			continue
		}
		if !yield(d.row(o)) {
			return
		}
	}
}

func matchesSearch(o domain.Order, term string) bool {
	return utils.ContainsFold(o.Name, term) ||
		utils.ContainsFold(o.Phone, term) ||
		utils.ContainsFold(o.City, term)
}

// matchesStatus checks the authoritative status, not a pending one.
func matchesStatus(o domain.Order, filter string) bool {
	return filter == domain.StatusFilterAll || string(o.Status) == filter
}

func (d *Dashboard) row(o domain.Order) domain.Row {
	r := domain.Row{Order: o}
	if patch, ok := d.edits.Get(o.ID); ok {
		r.Order = patch.Apply(o)
		r.Dirty = true
	}
	if d.recent != nil {
		r.Recent = d.recent.Recent(o.ID)
	}
	return r
}

// Row returns one merged order regardless of search and filter.
func (d *Dashboard) Row(id string) (domain.Row, error) {
	d.mu.Lock()
	i := d.indexOf(id)
	if i < 0 {
		d.mu.Unlock()
		return domain.Row{}, domain.ErrOrderNotFound
	}
	o := d.orders[i]
	d.mu.Unlock()
	return d.row(o), nil
}

func (d *Dashboard) Stats() domain.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}

// Authoritative returns the last confirmed record for id, without edits.
func (d *Dashboard) Authoritative(id string) (domain.Order, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexOf(id)
	if i < 0 {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return d.orders[i], nil
}

// indexOf must be called with mu held.
func (d *Dashboard) indexOf(id string) int {
	for i := range d.orders {
		if d.orders[i].ID == id {
			return i
		}
	}
	return -1
}

// --- Editing ---

// SetField stages an edit for an existing order.
func (d *Dashboard) SetField(id string, field domain.Field, value string) error {
	if _, err := d.Authoritative(id); err != nil {
		return err
	}
	if err := d.edits.SetField(id, field, value); err != nil {
		return err
	}
	d.notify()
	return nil
}

// CycleStatus stages the status after the one currently shown.
func (d *Dashboard) CycleStatus(id string) error {
	r, err := d.Row(id)
	if err != nil {
		return err
	}
	return d.SetField(id, domain.FieldStatus, string(r.Order.Status.Next()))
}

// AdjustProgress moves the shown progress by steps of ten, within 0-100.
func (d *Dashboard) AdjustProgress(id string, steps int) error {
	r, err := d.Row(id)
	if err != nil {
		return err
	}
	v := utils.Clamp(r.Order.Progress+steps*progressStep, 0, 100)
	return d.SetField(id, domain.FieldProgress, strconv.Itoa(v))
}

func (d *Dashboard) Discard(id string) {
	d.edits.Discard(id)
	d.notify()
}

func (d *Dashboard) Dirty(id string) bool {
	return d.edits.Has(id)
}

// Committing reports whether a commit for id is in flight.
func (d *Dashboard) Committing(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.inflight[id]
	return ok
}

// Commit sends the pending edit for id to the backend. Without an edit,
// or while an earlier commit for id is still running, it does nothing.
// On success the edit is merged into the authoritative order and the
// recomputed stats are pushed upstream. On failure the edit is kept.
func (d *Dashboard) Commit(ctx context.Context, id string) error {
	l := logger.WithOrderID(*logger.Get(), id)

	d.mu.Lock()
	patch, ok := d.edits.Get(id)
	if _, busy := d.inflight[id]; !ok || busy {
		d.mu.Unlock()
		return nil
	}
	d.inflight[id] = struct{}{}
	d.mu.Unlock()

	updated, err := d.gateway.CommitField(ctx, id, patch)

	d.mu.Lock()
	delete(d.inflight, id)
	if err != nil {
		d.mu.Unlock()
		l.Error().Err(err).Msg("Failed to update order")
		d.notify()
		return fmt.Errorf("failed to update order %s: %w", id, err)
	}

	if i := d.indexOf(id); i >= 0 {
		base := d.orders[i]
		if updated != nil && updated.ID == id {
			base = *updated
		}
		d.orders[i] = patch.Apply(base)
	}
	d.edits.Settle(id, patch)
	next := Aggregate(d.orders, d.stats, d.now())
	d.mu.Unlock()

	l.Info().Msg("Order updated")
	d.notify()

	if err := d.pushStats(ctx, next); err != nil {
		l.Warn().Err(err).Msg("Failed to save stats")
	}
	return nil
}

// RefreshStats recomputes the stats from the current list and pushes them.
func (d *Dashboard) RefreshStats(ctx context.Context) (domain.Stats, error) {
	d.mu.Lock()
	next := Aggregate(d.orders, d.stats, d.now())
	d.mu.Unlock()

	if err := d.pushStats(ctx, next); err != nil {
		logger.Warn().Err(err).Msg("Failed to refresh stats")
		return domain.Stats{}, fmt.Errorf("failed to refresh stats: %w", err)
	}
	return d.Stats(), nil
}

// pushStats saves next upstream and adopts it locally once saved. View
// analytics that moved during the call are kept.
func (d *Dashboard) pushStats(ctx context.Context, next domain.Stats) error {
	if err := d.gateway.PushStats(ctx, next); err != nil {
		return err
	}

	d.mu.Lock()
	next.LiveViews = d.stats.LiveViews
	next.TotalViews = d.stats.TotalViews
	next.UniqueVisitors = d.stats.UniqueVisitors
	d.stats = next
	d.mu.Unlock()

	d.notify()
	return nil
}

// TrackView pings the backend view counter.
func (d *Dashboard) TrackView(ctx context.Context) {
	d.gateway.TrackView(ctx)
}
