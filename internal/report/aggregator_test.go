package report

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

type fakeStore struct {
	mu sync.Mutex

	sales     decimal.Decimal
	counts    map[model.StatusFilter]int64
	months    []model.MonthlyAmount
	perMonth  []model.MonthlyCount
	statuses  []model.StatusCount
	products  []model.ProductSales
	customers []model.CustomerSales
	recent    []model.Order
	failOn    string

	sumFilters   []model.StatusFilter
	countRanges  []*model.DateRange
	countFilters []model.StatusFilter
}

func (f *fakeStore) fail(op string) error {
	if f.failOn == op {
		return errors.New("connection reset by peer")
	}
	return nil
}

func (f *fakeStore) SumSales(ctx context.Context, rng *model.DateRange, sf model.StatusFilter) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sumFilters = append(f.sumFilters, sf)
	return f.sales, f.fail("sum")
}

func (f *fakeStore) CountOrders(ctx context.Context, rng *model.DateRange, sf model.StatusFilter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.countRanges = append(f.countRanges, rng)
	f.countFilters = append(f.countFilters, sf)
	return f.counts[sf], f.fail("count")
}

func (f *fakeStore) SalesByMonth(ctx context.Context, rng model.DateRange, sf model.StatusFilter) ([]model.MonthlyAmount, error) {
	return f.months, f.fail("months")
}

func (f *fakeStore) OrdersByMonth(ctx context.Context, rng model.DateRange, sf model.StatusFilter) ([]model.MonthlyCount, error) {
	return f.perMonth, f.fail("perMonth")
}

func (f *fakeStore) CountByStatus(ctx context.Context, rng model.DateRange) ([]model.StatusCount, error) {
	return f.statuses, f.fail("statuses")
}

func (f *fakeStore) TopProducts(ctx context.Context, rng model.DateRange, limit int) ([]model.ProductSales, error) {
	return f.products, f.fail("products")
}

func (f *fakeStore) TopCustomers(ctx context.Context, rng model.DateRange, limit int) ([]model.CustomerSales, error) {
	return f.customers, f.fail("customers")
}

func (f *fakeStore) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	return f.recent, f.fail("recent")
}

func quarter() model.DateRange {
	return model.DateRange{
		Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC),
	}
}

func TestReportEmptyRange(t *testing.T) {
	agg := NewAggregator(&fakeStore{}, time.UTC, nil)

	p, err := agg.Report(context.Background(), quarter(), model.StatusAll)
	require.NoError(t, err)

	assert.Zero(t, p.TotalSales)
	assert.Zero(t, p.TotalOrders)
	assert.Zero(t, p.CancelledOrders)
	assert.Equal(t, model.NoTopProduct(), p.TopProduct)
	assert.Equal(t, model.NoTopCustomer(), p.TopCustomer)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"meses": [],
		"ventas": [],
		"totalVentas": 0,
		"totalPedidos": 0,
		"pedidosCancelados": 0,
		"estadosPedidos": [],
		"productoMasVendido": {"nombre": "No hay datos", "cantidad": 0, "total": 0},
		"clienteFrecuente": {"nombre": "No hay datos", "telefono": "N/A", "pedidos": 0, "total": 0}
	}`, string(raw))
}

func populatedStore() *fakeStore {
	return &fakeStore{
		sales: decimal.RequireFromString("10000.00"),
		counts: map[model.StatusFilter]int64{
			{}: 50,
			model.OnlyStatus(model.OrderStatusCancelled): 5,
		},
		months: []model.MonthlyAmount{
			{Year: 2024, Month: 1, Amount: decimal.RequireFromString("3000.00")},
			{Year: 2024, Month: 2, Amount: decimal.RequireFromString("4000.00")},
			{Year: 2024, Month: 3, Amount: decimal.RequireFromString("3000.00")},
		},
		statuses: []model.StatusCount{
			{Status: "cancelado", Count: 5},
			{Status: "entregado", Count: 45},
		},
		products: []model.ProductSales{
			{ProductID: 7, Name: "Producto B", Quantity: 100, Price: decimal.RequireFromString("40.00")},
			{ProductID: 3, Name: "Producto A", Quantity: 100, Price: decimal.RequireFromString("50.00")},
		},
		customers: []model.CustomerSales{
			{Name: "Cliente X", Phone: "12345678", Orders: 10, Total: decimal.RequireFromString("2000.00")},
		},
	}
}

func TestReportPopulated(t *testing.T) {
	store := populatedStore()
	agg := NewAggregator(store, time.UTC, nil)

	p, err := agg.Report(context.Background(), quarter(), "todos")
	require.NoError(t, err)

	assert.Equal(t, []string{"Ene", "Feb", "Mar"}, p.Months)
	assert.Equal(t, []float64{3000, 4000, 3000}, p.Sales)
	assert.Equal(t, 10000.0, p.TotalSales)
	assert.EqualValues(t, 50, p.TotalOrders)
	assert.EqualValues(t, 5, p.CancelledOrders)
	assert.Len(t, p.StatusCounts, 2)

	// Равное количество: побеждает меньший идентификатор, выручка по текущей цене.
	assert.Equal(t, model.TopProduct{Name: "Producto A", Quantity: 100, Total: 5000}, p.TopProduct)
	assert.Equal(t, model.TopCustomer{Name: "Cliente X", Phone: "12345678", Orders: 10, Total: 2000}, p.TopCustomer)

	assert.Contains(t, store.sumFilters, model.ExceptStatus(model.OrderStatusCancelled))
	assert.Contains(t, store.countFilters, model.StatusFilter{})
}

func TestReportIsIdempotent(t *testing.T) {
	agg := NewAggregator(populatedStore(), time.UTC, nil)
	ctx := context.Background()

	first, err := agg.Report(ctx, quarter(), "todos")
	require.NoError(t, err)
	second, err := agg.Report(ctx, quarter(), "todos")
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestReportStatusFilter(t *testing.T) {
	store := populatedStore()
	agg := NewAggregator(store, time.UTC, nil)

	_, err := agg.Report(context.Background(), quarter(), "ENTREGADO")
	require.NoError(t, err)

	only := model.OnlyStatus(model.OrderStatusDelivered)
	assert.Equal(t, []model.StatusFilter{only}, store.sumFilters)
	assert.Contains(t, store.countFilters, only)
	assert.Contains(t, store.countFilters, model.OnlyStatus(model.OrderStatusCancelled))
}

func TestReportErrors(t *testing.T) {
	ctx := context.Background()

	_, err := NewAggregator(&fakeStore{}, time.UTC, nil).Report(ctx, quarter(), "enviado")
	assert.ErrorIs(t, err, model.ErrValidation)

	inverted := model.DateRange{Start: quarter().End, End: quarter().Start}
	_, err = NewAggregator(&fakeStore{}, time.UTC, nil).Report(ctx, inverted, "todos")
	assert.ErrorIs(t, err, model.ErrValidation)

	_, err = NewAggregator(&fakeStore{failOn: "customers"}, time.UTC, nil).Report(ctx, quarter(), "todos")
	assert.ErrorIs(t, err, model.ErrUpstreamQuery)
}

func TestMonthLabelsAcrossYears(t *testing.T) {
	store := &fakeStore{
		months: []model.MonthlyAmount{
			{Year: 2023, Month: 12, Amount: decimal.NewFromInt(10)},
			{Year: 2024, Month: 1, Amount: decimal.NewFromInt(20)},
		},
	}
	rng := model.DateRange{
		Start: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}

	p, err := NewAggregator(store, time.UTC, nil).Report(context.Background(), rng, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dic 2023", "Ene 2024"}, p.Months)
}

func TestPickTopCustomerTieBreak(t *testing.T) {
	list := []model.CustomerSales{
		{Name: "Beto", Phone: "2", Orders: 3, Total: decimal.NewFromInt(100)},
		{Name: "Ana", Phone: "9", Orders: 3, Total: decimal.NewFromInt(100)},
		{Name: "Ana", Phone: "1", Orders: 3, Total: decimal.NewFromInt(100)},
		{Name: "Zoe", Phone: "5", Orders: 4, Total: decimal.NewFromInt(100)},
	}

	top, ok := pickTopCustomer(list)
	require.True(t, ok)
	assert.Equal(t, "Zoe", top.Name)

	top, ok = pickTopCustomer(list[:3])
	require.True(t, ok)
	assert.Equal(t, "Ana", top.Name)
	assert.Equal(t, "1", top.Phone)

	_, ok = pickTopCustomer(nil)
	assert.False(t, ok)
}
