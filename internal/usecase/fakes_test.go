package usecase

import (
	"context"
	"sync"

	"orders-dashboard/internal/domain"

	"github.com/shopspring/decimal"
)

// fakeGateway records calls and returns canned results.
type fakeGateway struct {
	mu sync.Mutex

	orders   []domain.Order
	stats    domain.Stats
	fetchErr error

	commitErr   error
	commitEcho  *domain.Order
	commits     []domain.OrderPatch
	commitGate  chan struct{} // when set, CommitField blocks until closed
	commitEnter chan struct{}

	pushErr error
	pushed  []domain.Stats
	views   int
}

func (f *fakeGateway) FetchAll(ctx context.Context) ([]domain.Order, domain.Stats, error) {
	if f.fetchErr != nil {
		return nil, domain.Stats{}, f.fetchErr
	}
	out := make([]domain.Order, len(f.orders))
	copy(out, f.orders)
	return out, f.stats, nil
}

func (f *fakeGateway) CommitField(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	f.mu.Lock()
	f.commits = append(f.commits, patch)
	gate, enter := f.commitGate, f.commitEnter
	f.mu.Unlock()

	if enter != nil {
		enter <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	return f.commitEcho, nil
}

func (f *fakeGateway) PushStats(ctx context.Context, stats domain.Stats) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushed = append(f.pushed, stats)
	return f.pushErr
}

func (f *fakeGateway) TrackView(ctx context.Context) {
	f.mu.Lock()
	f.views++
	f.mu.Unlock()
}

func (f *fakeGateway) commitCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.commits)
}

func (f *fakeGateway) pushCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.pushed)
}

// fakeTracker is a RecentTracker without expiry.
type fakeTracker struct {
	mu    sync.Mutex
	marks map[string]bool
}

func newFakeTracker() *fakeTracker { return &fakeTracker{marks: map[string]bool{}} }

func (t *fakeTracker) Mark(key string) {
	t.mu.Lock()
	t.marks[key] = true
	t.mu.Unlock()
}

func (t *fakeTracker) Recent(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.marks[key]
}

func order(id, name string, status domain.OrderStatus, total, fee int64) domain.Order {
	return domain.Order{
		ID:          id,
		Name:        name,
		Status:      status,
		Total:       decimal.NewFromInt(total),
		ShippingFee: decimal.NewFromInt(fee),
	}
}

func sampleOrders() []domain.Order {
	a := order("A", "Al", domain.OrderStatusPending, 100, 10)
	a.Phone, a.City = "0300-111", "Lahore"
	b := order("B", "Bo", domain.OrderStatusDelivered, 200, 20)
	b.Phone, b.City = "0311-222", "Karachi"
	return []domain.Order{a, b}
}
