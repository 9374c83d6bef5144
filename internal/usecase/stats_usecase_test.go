package usecase

import (
	"testing"
	"time"

	"orders-dashboard/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestAggregate_Scenario(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	stats := Aggregate(sampleOrders(), domain.Stats{}, at)

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.Delivered)
	assert.Equal(t, 0, stats.Confirmed)
	assert.True(t, stats.TotalSales.Equal(decimal.NewFromInt(200)), stats.TotalSales.String())
	assert.True(t, stats.Profit.Equal(decimal.NewFromInt(180)), stats.Profit.String())
	assert.True(t, stats.Losses.IsZero())
	assert.Equal(t, at, stats.LastUpdated)
}

func TestAggregate_EmptyList(t *testing.T) {
	stats := Aggregate(nil, domain.Stats{}, time.Now())

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.Pending)
	assert.Zero(t, stats.Returns)
	assert.True(t, stats.TotalSales.IsZero())
	assert.True(t, stats.Losses.IsZero())
	assert.True(t, stats.Profit.IsZero())
}

func TestAggregate_LossesAndReturns(t *testing.T) {
	orders := []domain.Order{
		order("1", "a", domain.OrderStatusCanceled, 50, 5),
		order("2", "b", domain.OrderStatusReturned, 70, 7),
		order("3", "c", domain.OrderStatusShipped, 90, 9),
		order("4", "d", domain.OrderStatusConfirmed, 10, 1),
	}
	stats := Aggregate(orders, domain.Stats{}, time.Now())

	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.Returns)
	assert.Equal(t, 1, stats.Confirmed)
	assert.True(t, stats.Losses.Equal(decimal.NewFromInt(120)))
	assert.True(t, stats.TotalSales.IsZero())
}

func TestAggregate_CarriesAnalytics(t *testing.T) {
	prior := domain.Stats{Total: 99, LiveViews: 3, TotalViews: 40, UniqueVisitors: 12}
	stats := Aggregate(sampleOrders(), prior, time.Now())

	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 3, stats.LiveViews)
	assert.Equal(t, 40, stats.TotalViews)
	assert.Equal(t, 12, stats.UniqueVisitors)
}

func TestAggregate_IsDeterministic(t *testing.T) {
	prior := domain.Stats{LiveViews: 1}
	at := time.Now()
	first := Aggregate(sampleOrders(), prior, at)
	second := Aggregate(sampleOrders(), prior, at.Add(time.Hour))

	second.LastUpdated = first.LastUpdated
	assert.Equal(t, first, second)
}
