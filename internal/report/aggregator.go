// Package report вычисляет агрегированные показатели продаж для отчётов и панели администратора.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/pedidos-system/internal/model"
	"github.com/mmeshcher/pedidos-system/internal/validation"
)

// Store описывает агрегирующие запросы к хранилищу заказов.
// Интервалы включают обе границы; nil означает всё время.
type Store interface {
	SumSales(ctx context.Context, rng *model.DateRange, f model.StatusFilter) (decimal.Decimal, error)
	CountOrders(ctx context.Context, rng *model.DateRange, f model.StatusFilter) (int64, error)
	SalesByMonth(ctx context.Context, rng model.DateRange, f model.StatusFilter) ([]model.MonthlyAmount, error)
	OrdersByMonth(ctx context.Context, rng model.DateRange, f model.StatusFilter) ([]model.MonthlyCount, error)
	CountByStatus(ctx context.Context, rng model.DateRange) ([]model.StatusCount, error)
	TopProducts(ctx context.Context, rng model.DateRange, limit int) ([]model.ProductSales, error)
	TopCustomers(ctx context.Context, rng model.DateRange, limit int) ([]model.CustomerSales, error)
	RecentOrders(ctx context.Context, limit int) ([]model.Order, error)
}

var monthNames = [12]string{"Ene", "Feb", "Mar", "Abr", "May", "Jun", "Jul", "Ago", "Sep", "Oct", "Nov", "Dic"}

// Aggregator строит отчёты только на чтение. Результаты не кэшируются.
type Aggregator struct {
	store  Store
	loc    *time.Location
	now    func() time.Time
	logger *zap.Logger
}

// NewAggregator создаёт агрегатор, считающий календарные дни и месяцы в часовом поясе loc.
func NewAggregator(store Store, loc *time.Location, logger *zap.Logger) *Aggregator {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Aggregator{store: store, loc: loc, now: time.Now, logger: logger}
}

// Location возвращает часовой пояс агрегатора.
func (a *Aggregator) Location() *time.Location {
	return a.loc
}

// Report вычисляет отчёт за интервал. Статус "todos" или пустая строка означают отсутствие фильтра.
func (a *Aggregator) Report(ctx context.Context, rng model.DateRange, status string) (model.ReportPayload, error) {
	if err := checkRange(rng); err != nil {
		return model.ReportPayload{}, err
	}

	salesFilter, countFilter, err := reportFilters(status)
	if err != nil {
		return model.ReportPayload{}, err
	}

	started := time.Now()
	p := model.NewReportPayload()

	var (
		months    []model.MonthlyAmount
		total     decimal.Decimal
		orders    int64
		cancelled int64
		statuses  []model.StatusCount
		products  []model.ProductSales
		customers []model.CustomerSales
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		months, err = a.store.SalesByMonth(gctx, rng, salesFilter)
		return upstream("sales by month", err)
	})
	g.Go(func() (err error) {
		total, err = a.store.SumSales(gctx, &rng, salesFilter)
		return upstream("total sales", err)
	})
	g.Go(func() (err error) {
		orders, err = a.store.CountOrders(gctx, &rng, countFilter)
		return upstream("total orders", err)
	})
	g.Go(func() (err error) {
		cancelled, err = a.store.CountOrders(gctx, &rng, model.OnlyStatus(model.OrderStatusCancelled))
		return upstream("cancelled orders", err)
	})
	g.Go(func() (err error) {
		statuses, err = a.store.CountByStatus(gctx, rng)
		return upstream("status distribution", err)
	})
	g.Go(func() (err error) {
		products, err = a.store.TopProducts(gctx, rng, 1)
		return upstream("top product", err)
	})
	g.Go(func() (err error) {
		customers, err = a.store.TopCustomers(gctx, rng, 1)
		return upstream("top customer", err)
	})
	if err := g.Wait(); err != nil {
		return model.ReportPayload{}, err
	}

	withYear := spansYears(rng, a.loc)
	for _, m := range months {
		p.Months = append(p.Months, monthLabel(m.Year, m.Month, withYear))
		p.Sales = append(p.Sales, m.Amount.InexactFloat64())
	}

	p.TotalSales = total.InexactFloat64()
	p.TotalOrders = orders
	p.CancelledOrders = cancelled
	if len(statuses) > 0 {
		p.StatusCounts = statuses
	}

	if top, ok := pickTopProduct(products); ok {
		p.TopProduct = model.TopProduct{
			Name:     top.Name,
			Quantity: top.Quantity,
			Total:    top.Price.Mul(decimal.NewFromInt(top.Quantity)).InexactFloat64(),
		}
	}
	if top, ok := pickTopCustomer(customers); ok {
		p.TopCustomer = model.TopCustomer{
			Name:   top.Name,
			Phone:  top.Phone,
			Orders: top.Orders,
			Total:  top.Total.InexactFloat64(),
		}
	}

	a.logger.Debug("report aggregated",
		zap.Time("start", rng.Start),
		zap.Time("end", rng.End),
		zap.String("status", status),
		zap.Duration("duration", time.Since(started)),
	)

	return p, nil
}

// reportFilters возвращает фильтр для сумм и фильтр для количества заказов.
// Без фильтра суммы не учитывают отменённые заказы, а количество учитывает все.
func reportFilters(status string) (model.StatusFilter, model.StatusFilter, error) {
	if s := strings.TrimSpace(status); s == "" || strings.EqualFold(s, model.StatusAll) {
		return model.ExceptStatus(model.OrderStatusCancelled), model.StatusFilter{}, nil
	}

	s, err := validation.ParseStatus(status)
	if err != nil {
		return model.StatusFilter{}, model.StatusFilter{}, err
	}
	return model.OnlyStatus(s), model.OnlyStatus(s), nil
}

func checkRange(rng model.DateRange) error {
	if rng.Start.IsZero() || rng.End.IsZero() {
		return fmt.Errorf("%w: start and end dates are required", model.ErrValidation)
	}
	if rng.Start.After(rng.End) {
		return fmt.Errorf("%w: start date is after end date", model.ErrValidation)
	}
	return nil
}

func upstream(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", model.ErrUpstreamQuery, op, err)
}

func spansYears(rng model.DateRange, loc *time.Location) bool {
	return rng.Start.In(loc).Year() != rng.End.In(loc).Year()
}

func monthLabel(year, month int, withYear bool) string {
	label := "?"
	if month >= 1 && month <= 12 {
		label = monthNames[month-1]
	}
	if withYear {
		return fmt.Sprintf("%s %d", label, year)
	}
	return label
}

// pickTopProduct выбирает товар с наибольшим количеством, при равенстве с меньшим идентификатором.
func pickTopProduct(list []model.ProductSales) (model.ProductSales, bool) {
	var (
		best  model.ProductSales
		found bool
	)
	for _, p := range list {
		if p.Quantity <= 0 {
			continue
		}
		if !found || p.Quantity > best.Quantity || (p.Quantity == best.Quantity && p.ProductID < best.ProductID) {
			best, found = p, true
		}
	}
	return best, found
}

// pickTopCustomer выбирает клиента с наибольшей суммой покупок.
// При равенстве побеждает больше заказов, затем имя и телефон по возрастанию.
func pickTopCustomer(list []model.CustomerSales) (model.CustomerSales, bool) {
	var (
		best  model.CustomerSales
		found bool
	)
	for _, c := range list {
		if c.Orders <= 0 {
			continue
		}
		if !found || customerBefore(c, best) {
			best, found = c, true
		}
	}
	return best, found
}

func customerBefore(a, b model.CustomerSales) bool {
	if cmp := a.Total.Cmp(b.Total); cmp != 0 {
		return cmp > 0
	}
	if a.Orders != b.Orders {
		return a.Orders > b.Orders
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Phone < b.Phone
}
