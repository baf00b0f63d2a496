// Package validation содержит функции валидации входных данных.
package validation

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// IsValidPhone проверяет номер телефона: цифры, допускаются пробелы, дефисы и ведущий «+».
func IsValidPhone(phone string) bool {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return false
	}

	digits := 0
	for i, ch := range phone {
		switch {
		case unicode.IsDigit(ch):
			digits++
		case ch == '+' && i == 0:
		case ch == ' ' || ch == '-':
		default:
			return false
		}
	}

	return digits >= minPhoneDigits && digits <= maxPhoneDigits
}

// ValidateOrderRequest проверяет запрос на создание заказа до обращения к хранилищу.
func ValidateOrderRequest(req model.OrderRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return fmt.Errorf("%w: customer name is required", model.ErrValidation)
	}
	if !IsValidPhone(req.CustomerPhone) {
		return fmt.Errorf("%w: invalid customer phone", model.ErrValidation)
	}

	switch req.DeliveryMode {
	case model.DeliveryPickup, model.DeliveryHome:
	default:
		return fmt.Errorf("%w: unknown delivery mode %q", model.ErrValidation, req.DeliveryMode)
	}

	if req.PaymentMode != model.PaymentCash && req.PaymentMode != model.PaymentTransfer {
		return fmt.Errorf("%w: unknown payment mode %q", model.ErrValidation, req.PaymentMode)
	}

	if len(req.Lines) == 0 {
		return fmt.Errorf("%w: order must contain at least one product", model.ErrValidation)
	}
	for i, l := range req.Lines {
		if l.ProductID <= 0 {
			return fmt.Errorf("%w: line %d: invalid product id", model.ErrValidation, i)
		}
		if l.Quantity < 1 {
			return fmt.Errorf("%w: line %d: quantity must be at least 1", model.ErrValidation, i)
		}
	}

	return nil
}

// ParseStatus разбирает статус заказа из строки запроса.
func ParseStatus(raw string) (model.OrderStatus, error) {
	s := model.OrderStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", model.ErrValidation, raw)
	}
	return s, nil
}
