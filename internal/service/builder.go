package service

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// BuildOrder собирает заказ из запроса и цен товаров на момент вызова.
// Итог равен надбавке за доставку плюс сумме unitPrice*quantity по позициям,
// позиции нумеруются 0..n-1 в порядке запроса. Функция ничего не сохраняет.
func BuildOrder(req model.OrderRequest, products map[int64]model.Product, surcharge decimal.Decimal) (*model.Order, error) {
	if len(req.Lines) == 0 {
		return nil, fmt.Errorf("%w: order must contain at least one product", model.ErrValidation)
	}

	fee := decimal.Zero
	if req.DeliveryMode == model.DeliveryHome {
		fee = surcharge
	}

	lines := make([]model.OrderLine, 0, len(req.Lines))
	subtotal := decimal.Zero

	for i, l := range req.Lines {
		p, ok := products[l.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: product %d", model.ErrNotFound, l.ProductID)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("%w: line %d: quantity must be at least 1", model.ErrValidation, i)
		}

		lines = append(lines, model.OrderLine{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    l.Quantity,
			Notes:       normalizeNotes(l.Notes),
			UnitPrice:   p.Price,
			Seq:         i,
		})
		subtotal = subtotal.Add(p.Price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	return &model.Order{
		CustomerName:      strings.TrimSpace(req.CustomerName),
		CustomerPhone:     strings.TrimSpace(req.CustomerPhone),
		Address:           normalizeNotes(req.Address),
		DeliveryMode:      req.DeliveryMode,
		DeliverySurcharge: fee,
		PaymentMode:       req.PaymentMode,
		Lines:             lines,
		Total:             subtotal.Add(fee),
		Status:            model.OrderStatusPending,
		UserID:            req.UserID,
	}, nil
}

func normalizeNotes(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
