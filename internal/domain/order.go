package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// The backend stores money as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

// --- Order Entities ---

type Order struct {
	ID           string          `json:"_id"`
	Name         string          `json:"name"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	City         string          `json:"city"`
	Country      string          `json:"country"`
	Quantity     int             `json:"quantity"`
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	ShippingFee  decimal.Decimal `json:"shippingFee"`
	Total        decimal.Decimal `json:"total"` // subtotal + shippingFee, not enforced here
	OrderDate    time.Time       `json:"orderDate"`
	Status       OrderStatus     `json:"orderStatus"`
	TrackingID   string          `json:"trackingId"`
	Progress     int             `json:"progress"` // 0-100
	Notes        string          `json:"notes"`
}

// OrderPatch is a partial overlay of an Order's mutable fields.
// A nil pointer means the field is untouched.
type OrderPatch struct {
	TrackingID *string      `json:"trackingId,omitempty" validate:"omitnil,max=64"`
	Status     *OrderStatus `json:"orderStatus,omitempty" validate:"omitnil,oneof=pending confirmed shipped delivered canceled returned"`
	Progress   *int         `json:"progress,omitempty" validate:"omitnil,min=0,max=100"`
	Notes      *string      `json:"notes,omitempty" validate:"omitnil,max=1000"`
}

// IsEmpty reports whether no field is set.
func (p OrderPatch) IsEmpty() bool {
	return p.TrackingID == nil && p.Status == nil && p.Progress == nil && p.Notes == nil
}

// Merge returns p with every field set in other copied over it.
func (p OrderPatch) Merge(other OrderPatch) OrderPatch {
	if other.TrackingID != nil {
		p.TrackingID = other.TrackingID
	}
	if other.Status != nil {
		p.Status = other.Status
	}
	if other.Progress != nil {
		p.Progress = other.Progress
	}
	if other.Notes != nil {
		p.Notes = other.Notes
	}
	return p
}

// Apply returns a copy of o with the patch fields laid over it.
func (p OrderPatch) Apply(o Order) Order {
	if p.TrackingID != nil {
		o.TrackingID = *p.TrackingID
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Progress != nil {
		o.Progress = *p.Progress
	}
	if p.Notes != nil {
		o.Notes = *p.Notes
	}
	return o
}

// Row is one display-ready order: the authoritative record with any
// pending edit laid over it.
type Row struct {
	Order  Order `json:"order"`
	Dirty  bool  `json:"dirty"`  // has uncommitted local changes
	Recent bool  `json:"recent"` // changed by a push event within the recent window
}

// --- Interfaces ---

// OrderGateway is the remote order/stats API.
type OrderGateway interface {
	FetchAll(ctx context.Context) ([]Order, Stats, error)
	CommitField(ctx context.Context, id string, patch OrderPatch) (*Order, error)
	PushStats(ctx context.Context, stats Stats) error
	TrackView(ctx context.Context)
}
