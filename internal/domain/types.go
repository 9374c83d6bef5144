package domain

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// --- Stats ---

// Stats is the dashboard statistics snapshot. The order-derived fields
// are recomputed client-side; the view analytics are owned by the server.
type Stats struct {
	Total       int             `json:"total"`
	Pending     int             `json:"pending"`
	Confirmed   int             `json:"confirmed"`
	Delivered   int             `json:"delivered"`
	Returns     int             `json:"returns"`
	TotalSales  decimal.Decimal `json:"totalSales"`
	Losses      decimal.Decimal `json:"losses"`
	Profit      decimal.Decimal `json:"profit"`
	LastUpdated time.Time       `json:"lastUpdated"`

	LiveViews      int `json:"liveViews"`
	TotalViews     int `json:"totalViews"`
	UniqueVisitors int `json:"uniqueVisitors"`
}

// LiveViews is the payload of a liveViewsUpdated push event.
type LiveViews struct {
	LiveViews      int `json:"liveViews"`
	UniqueVisitors int `json:"uniqueVisitors"`
}

// Response standardizes local API responses.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// --- Errors ---

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrUnknownField      = errors.New("unknown order field")
	ErrInvalidEdit       = errors.New("invalid edit")
	ErrInvalidFilter     = errors.New("invalid status filter")
	ErrNothingToExport   = errors.New("no rows to export")
	ErrExportUnavailable = errors.New("export storage not configured")
)
