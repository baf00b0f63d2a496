package service

import (
	"fmt"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// Порядок стадий выполнения заказа. Отмена допустима из любой нетерминальной стадии.
var statusRank = map[model.OrderStatus]int{
	model.OrderStatusPending:             0,
	model.OrderStatusPendingVerification: 1,
	model.OrderStatusPreparing:           2,
	model.OrderStatusReady:               3,
	model.OrderStatusDelivered:           4,
}

// NextStatus проверяет переход из current в requested и возвращает новый статус.
// Разрешены движение вперёд (с пропуском стадий) и отмена; повтор текущего статуса
// ничего не меняет. Выход из терминального статуса и откат назад запрещены.
func NextStatus(current, requested model.OrderStatus) (model.OrderStatus, error) {
	if !requested.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", model.ErrValidation, requested)
	}
	if requested == current {
		return current, nil
	}
	if current.IsTerminal() {
		return "", fmt.Errorf("%w: order is already %s", model.ErrInvalidState, current)
	}
	if requested == model.OrderStatusCancelled {
		return requested, nil
	}

	from, known := statusRank[current]
	if !known {
		// Статус из старых данных: разрешаем любой известный целевой статус.
		return requested, nil
	}
	if statusRank[requested] < from {
		return "", fmt.Errorf("%w: cannot move order from %s back to %s", model.ErrInvalidState, current, requested)
	}

	return requested, nil
}

// statusAfterReceipt возвращает статус заказа после загрузки чека.
// Только заказ с оплатой переводом, ожидающий обработки, переходит к проверке оплаты.
func statusAfterReceipt(o *model.Order) model.OrderStatus {
	if o.PaymentMode == model.PaymentTransfer && o.Status == model.OrderStatusPending {
		return model.OrderStatusPendingVerification
	}
	return o.Status
}
