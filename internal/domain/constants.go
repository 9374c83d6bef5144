package domain

// OrderStatus is the lifecycle state of an order. Any status may be set
// to any other; the backend owns transition rules.
type OrderStatus string

// Order Statuses
const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCanceled  OrderStatus = "canceled"
	OrderStatusReturned  OrderStatus = "returned"
)

// StatusFilterAll matches every status.
const StatusFilterAll = "all"

// List Exports for API
var OrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCanceled,
	OrderStatusReturned,
}

func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Next returns the status after s in OrderStatuses, wrapping around.
func (s OrderStatus) Next() OrderStatus {
	for i, v := range OrderStatuses {
		if s == v {
			return OrderStatuses[(i+1)%len(OrderStatuses)]
		}
	}
	return OrderStatusPending
}

// Field names an editable order field, spelled as on the wire.
type Field string

const (
	FieldTrackingID Field = "trackingId"
	FieldStatus     Field = "orderStatus"
	FieldProgress   Field = "progress"
	FieldNotes      Field = "notes"
)

var EditableFields = []Field{
	FieldTrackingID,
	FieldStatus,
	FieldProgress,
	FieldNotes,
}

// ParseField maps a wire name to a Field.
func ParseField(name string) (Field, error) {
	for _, f := range EditableFields {
		if string(f) == name {
			return f, nil
		}
	}
	return "", ErrUnknownField
}
