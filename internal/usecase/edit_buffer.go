package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"orders-dashboard/internal/domain"

	"github.com/go-playground/validator/v10"
)

// EditBuffer holds uncommitted per-order edits, keyed by order ID.
// It never touches the authoritative order list.
type EditBuffer struct {
	mu       sync.Mutex
	entries  map[string]domain.OrderPatch
	validate *validator.Validate
}

func NewEditBuffer() *EditBuffer {
	return &EditBuffer{
		entries:  make(map[string]domain.OrderPatch),
		validate: validator.New(),
	}
}

// SetField parses value for field and stores it in the order's entry,
// overwriting any earlier value for that field.
func (b *EditBuffer) SetField(id string, field domain.Field, value string) error {
	patch, err := b.parse(field, value)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[id] = b.entries[id].Merge(patch)
	return nil
}

func (b *EditBuffer) parse(field domain.Field, value string) (domain.OrderPatch, error) {
	var patch domain.OrderPatch
	switch field {
	case domain.FieldTrackingID:
		v := strings.TrimSpace(value)
		patch.TrackingID = &v
	case domain.FieldStatus:
		v := domain.OrderStatus(strings.ToLower(strings.TrimSpace(value)))
		patch.Status = &v
	case domain.FieldProgress:
		v, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return patch, fmt.Errorf("%w: progress %q is not a number", domain.ErrInvalidEdit, value)
		}
		patch.Progress = &v
	case domain.FieldNotes:
		v := value
		patch.Notes = &v
	default:
		return patch, domain.ErrUnknownField
	}

	if err := b.validate.Struct(patch); err != nil {
		return patch, fmt.Errorf("%w: %s: %v", domain.ErrInvalidEdit, field, err)
	}
	return patch, nil
}

func (b *EditBuffer) Get(id string) (domain.OrderPatch, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.entries[id]
	return p, ok
}

func (b *EditBuffer) Has(id string) bool {
	_, ok := b.Get(id)
	return ok
}

func (b *EditBuffer) Discard(id string) {
	b.mu.Lock()
	delete(b.entries, id)
	b.mu.Unlock()
}

func (b *EditBuffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Settle drops the fields of committed whose buffered value is still the
// committed one. Fields edited again since then stay pending.
func (b *EditBuffer) Settle(id string, committed domain.OrderPatch) {
	b.mu.Lock()
	defer b.mu.Unlock()

	p, ok := b.entries[id]
	if !ok {
		return
	}
	if committed.TrackingID != nil && p.TrackingID != nil && *p.TrackingID == *committed.TrackingID {
		p.TrackingID = nil
	}
	if committed.Status != nil && p.Status != nil && *p.Status == *committed.Status {
		p.Status = nil
	}
	if committed.Progress != nil && p.Progress != nil && *p.Progress == *committed.Progress {
		p.Progress = nil
	}
	if committed.Notes != nil && p.Notes != nil && *p.Notes == *committed.Notes {
		p.Notes = nil
	}

	if p.IsEmpty() {
		delete(b.entries, id)
		return
	}
	b.entries[id] = p
}
