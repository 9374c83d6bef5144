package usecase

import (
	"time"

	"orders-dashboard/internal/domain"

	"github.com/shopspring/decimal"
)

// Aggregate derives the order-based stats from the authoritative list.
// View analytics are carried over from prior unchanged; at becomes
// LastUpdated. Given the same inputs the result is identical.
func Aggregate(orders []domain.Order, prior domain.Stats, at time.Time) domain.Stats {
	stats := domain.Stats{
		Total:       len(orders),
		TotalSales:  decimal.Zero,
		Losses:      decimal.Zero,
		Profit:      decimal.Zero,
		LastUpdated: at,

		LiveViews:      prior.LiveViews,
		TotalViews:     prior.TotalViews,
		UniqueVisitors: prior.UniqueVisitors,
	}

	for _, o := range orders {
		switch o.Status {
		case domain.OrderStatusPending:
			stats.Pending++
		case domain.OrderStatusConfirmed:
			stats.Confirmed++
		case domain.OrderStatusDelivered:
			stats.Delivered++
			stats.TotalSales = stats.TotalSales.Add(o.Total)
			stats.Profit = stats.Profit.Add(o.Total.Sub(o.ShippingFee))
		case domain.OrderStatusCanceled:
			stats.Losses = stats.Losses.Add(o.Total)
		case domain.OrderStatusReturned:
			stats.Returns++
			stats.Losses = stats.Losses.Add(o.Total)
		}
	}

	return stats
}
