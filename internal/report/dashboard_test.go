package report

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

func TestDashboard(t *testing.T) {
	loc := time.FixedZone("CST", -6*60*60)
	store := &fakeStore{
		sales: decimal.RequireFromString("1234.50"),
		counts: map[model.StatusFilter]int64{
			{}: 12,
			model.OnlyStatus(model.OrderStatusPending): 3,
		},
		perMonth: []model.MonthlyCount{
			{Year: 2024, Month: 2, Count: 4},
			{Year: 2024, Month: 3, Count: 8},
		},
	}
	agg := NewAggregator(store, loc, nil)
	agg.now = func() time.Time { return time.Date(2024, 3, 15, 3, 0, 0, 0, time.UTC) }

	d, err := agg.Dashboard(context.Background(), quarter())
	require.NoError(t, err)

	assert.EqualValues(t, 12, d.TotalOrders)
	assert.Equal(t, 1234.5, d.TotalSales)
	assert.EqualValues(t, 3, d.PendingOrders)
	assert.Equal(t, []string{"Feb", "Mar"}, d.Months)
	assert.Equal(t, []int64{4, 8}, d.OrdersPerMonth)
	assert.NotNil(t, d.RecentOrders)
	assert.Empty(t, d.RecentOrders)

	// 03:00 UTC это ещё 14 марта по местному времени.
	wantStart := time.Date(2024, 3, 14, 0, 0, 0, 0, loc)
	var sawToday, sawGlobal bool
	for _, r := range store.countRanges {
		if r == nil {
			sawGlobal = true
			continue
		}
		if r.Start.Equal(wantStart) {
			sawToday = true
			assert.True(t, r.End.Equal(wantStart.Add(24*time.Hour-time.Nanosecond)))
		}
	}
	assert.True(t, sawToday, "orders of the local day must be counted")
	assert.True(t, sawGlobal, "pending orders must not be range-bound")
}

func TestDashboardUpstreamError(t *testing.T) {
	agg := NewAggregator(&fakeStore{failOn: "recent"}, time.UTC, nil)

	_, err := agg.Dashboard(context.Background(), quarter())
	assert.ErrorIs(t, err, model.ErrUpstreamQuery)
}
