package service

import (
	"errors"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

func catalogOf(prices ...string) map[int64]model.Product {
	out := make(map[int64]model.Product, len(prices))
	for i, p := range prices {
		id := int64(i + 1)
		out[id] = model.Product{ID: id, Name: "p", Price: decimal.RequireFromString(p), Active: true}
	}
	return out
}

func TestBuildOrderTotals(t *testing.T) {
	surcharge := decimal.RequireFromString("15.00")
	products := catalogOf("25.00", "10.50")

	tests := []struct {
		name      string
		mode      model.DeliveryMode
		lines     []model.LineRequest
		wantTotal string
		wantFee   string
	}{
		{
			name:      "pickup has no surcharge",
			mode:      model.DeliveryPickup,
			lines:     []model.LineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
			wantTotal: "60.5",
			wantFee:   "0",
		},
		{
			name:      "home delivery adds surcharge",
			mode:      model.DeliveryHome,
			lines:     []model.LineRequest{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 1}},
			wantTotal: "75.5",
			wantFee:   "15",
		},
		{
			name:      "repeated product keeps separate lines",
			mode:      model.DeliveryPickup,
			lines:     []model.LineRequest{{ProductID: 2, Quantity: 1}, {ProductID: 2, Quantity: 3}},
			wantTotal: "42",
			wantFee:   "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := model.OrderRequest{
				CustomerName:  "Ana",
				CustomerPhone: "55551234",
				DeliveryMode:  tt.mode,
				PaymentMode:   model.PaymentCash,
				Lines:         tt.lines,
			}
			o, err := BuildOrder(req, products, surcharge)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !o.Total.Equal(decimal.RequireFromString(tt.wantTotal)) {
				t.Fatalf("expected total %s, got %s", tt.wantTotal, o.Total)
			}
			if !o.DeliverySurcharge.Equal(decimal.RequireFromString(tt.wantFee)) {
				t.Fatalf("expected surcharge %s, got %s", tt.wantFee, o.DeliverySurcharge)
			}
			if o.Status != model.OrderStatusPending {
				t.Fatalf("expected status %s, got %s", model.OrderStatusPending, o.Status)
			}
			if len(o.Lines) != len(tt.lines) {
				t.Fatalf("expected %d lines, got %d", len(tt.lines), len(o.Lines))
			}
		})
	}
}

func TestBuildOrderUnknownProduct(t *testing.T) {
	req := model.OrderRequest{
		CustomerName:  "Ana",
		CustomerPhone: "55551234",
		DeliveryMode:  model.DeliveryPickup,
		PaymentMode:   model.PaymentCash,
		Lines:         []model.LineRequest{{ProductID: 1, Quantity: 1}, {ProductID: 99, Quantity: 1}},
	}

	_, err := BuildOrder(req, catalogOf("5.00"), decimal.Zero)
	if !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBuildOrderCapturesPriceAtCreation(t *testing.T) {
	products := catalogOf("12.00")
	req := model.OrderRequest{
		CustomerName:  "Ana",
		CustomerPhone: "55551234",
		DeliveryMode:  model.DeliveryPickup,
		PaymentMode:   model.PaymentCash,
		Lines:         []model.LineRequest{{ProductID: 1, Quantity: 1}},
	}

	o, err := BuildOrder(req, products, decimal.Zero)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := products[1]
	p.Price = decimal.RequireFromString("99.00")
	products[1] = p

	if !o.Lines[0].UnitPrice.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("line price must not follow catalog changes, got %s", o.Lines[0].UnitPrice)
	}
}

func TestBuildOrderTotalProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	surcharge := decimal.RequireFromString("15.00")

	properties.Property("total equals surcharge plus sum of line amounts", prop.ForAll(
		func(priceCents []int64, quantities []int, home bool) bool {
			if len(priceCents) == 0 || len(quantities) == 0 {
				return true
			}

			products := make(map[int64]model.Product, len(priceCents))
			for i, c := range priceCents {
				id := int64(i + 1)
				products[id] = model.Product{ID: id, Name: "p", Price: decimal.New(c, -2)}
			}

			mode := model.DeliveryPickup
			if home {
				mode = model.DeliveryHome
			}
			req := model.OrderRequest{
				CustomerName:  "Ana",
				CustomerPhone: "55551234",
				DeliveryMode:  mode,
				PaymentMode:   model.PaymentCash,
			}
			for i, q := range quantities {
				req.Lines = append(req.Lines, model.LineRequest{
					ProductID: int64(i%len(priceCents) + 1),
					Quantity:  q,
				})
			}

			o, err := BuildOrder(req, products, surcharge)
			if err != nil {
				return false
			}

			want := o.DeliverySurcharge
			for i, l := range o.Lines {
				if l.Seq != i || l.Quantity < 1 {
					return false
				}
				want = want.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
			}
			if home != o.DeliverySurcharge.Equal(surcharge) {
				return false
			}
			return o.Total.Equal(want) && !o.Total.IsNegative()
		},
		gen.SliceOf(gen.Int64Range(1, 1_000_000)),
		gen.SliceOf(gen.IntRange(1, 50)),
		gen.Bool(),
	))

	properties.TestingRun(t)
}
