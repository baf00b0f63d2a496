package report

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// Количество последних заказов на панели.
const recentOrdersLimit = 5

// Dashboard вычисляет оперативные показатели: объём за интервал, заказы за текущий день,
// ожидающие заказы и последние поступления.
func (a *Aggregator) Dashboard(ctx context.Context, rng model.DateRange) (*model.Dashboard, error) {
	if err := checkRange(rng); err != nil {
		return nil, err
	}

	today := a.today()
	notCancelled := model.ExceptStatus(model.OrderStatusCancelled)

	var (
		total    int64
		sales    decimal.Decimal
		todayN   int64
		pending  int64
		recent   []model.Order
		perMonth []model.MonthlyCount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		total, err = a.store.CountOrders(gctx, &rng, model.StatusFilter{})
		return upstream("total orders", err)
	})
	g.Go(func() (err error) {
		sales, err = a.store.SumSales(gctx, &rng, notCancelled)
		return upstream("total sales", err)
	})
	g.Go(func() (err error) {
		todayN, err = a.store.CountOrders(gctx, &today, model.StatusFilter{})
		return upstream("orders today", err)
	})
	g.Go(func() (err error) {
		pending, err = a.store.CountOrders(gctx, nil, model.OnlyStatus(model.OrderStatusPending))
		return upstream("pending orders", err)
	})
	g.Go(func() (err error) {
		recent, err = a.store.RecentOrders(gctx, recentOrdersLimit)
		return upstream("recent orders", err)
	})
	g.Go(func() (err error) {
		perMonth, err = a.store.OrdersByMonth(gctx, rng, notCancelled)
		return upstream("orders by month", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	d := &model.Dashboard{
		TotalOrders:    total,
		TotalSales:     sales.InexactFloat64(),
		OrdersToday:    todayN,
		PendingOrders:  pending,
		RecentOrders:   recent,
		Months:         []string{},
		OrdersPerMonth: []int64{},
	}
	if d.RecentOrders == nil {
		d.RecentOrders = []model.Order{}
	}

	withYear := spansYears(rng, a.loc)
	for _, m := range perMonth {
		d.Months = append(d.Months, monthLabel(m.Year, m.Month, withYear))
		d.OrdersPerMonth = append(d.OrdersPerMonth, m.Count)
	}

	return d, nil
}

// today возвращает границы текущего календарного дня в часовом поясе агрегатора.
func (a *Aggregator) today() model.DateRange {
	now := a.now().In(a.loc)
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, a.loc)
	return model.DateRange{
		Start: start,
		End:   start.AddDate(0, 0, 1).Add(-time.Nanosecond),
	}
}
