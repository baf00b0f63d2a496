package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/middleware"
	"github.com/mmeshcher/pedidos-system/internal/model"
	"github.com/mmeshcher/pedidos-system/internal/validation"
)

// CreateOrder принимает новый заказ клиента.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, "create order error", err)
		return
	}

	order, err := h.orders.CreateOrder(r.Context(), req.toModel())
	if err != nil {
		h.fail(w, "create order error", err)
		return
	}

	writeJSON(w, http.StatusCreated, newOrderResponse(*order))
}

// ListOrders возвращает все заказы, при необходимости только в одном статусе.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	var status *model.OrderStatus
	if raw := r.URL.Query().Get("estado"); strings.TrimSpace(raw) != "" {
		s, err := validation.ParseStatus(raw)
		if err != nil {
			h.fail(w, "list orders error", err)
			return
		}
		status = &s
	}

	orders, err := h.orders.ListOrders(r.Context(), status)
	if err != nil {
		h.fail(w, "list orders error", err)
		return
	}

	writeJSON(w, http.StatusOK, newOrderList(orders))
}

// GetOrder возвращает заказ по идентификатору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "get order error", err)
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		h.fail(w, "get order error", err, zap.Int64("orderID", id))
		return
	}

	writeJSON(w, http.StatusOK, newOrderResponse(*order))
}

// UpdateOrderStatus переводит заказ в статус из параметра estado.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "update order status error", err)
		return
	}

	requested := model.OrderStatus(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("estado"))))

	order, err := h.orders.UpdateStatus(r.Context(), id, requested)
	if err != nil {
		h.fail(w, "update order status error", err, zap.Int64("orderID", id), zap.String("status", string(requested)))
		return
	}

	writeJSON(w, http.StatusOK, newOrderResponse(*order))
}

// UploadReceipt принимает подтверждение оплаты заказа из поля file.
// Непозитивный идентификатор отклоняет сервис как ErrInvalidState.
func (h *Handler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	id, err := rawPathID(r, "id")
	if err != nil {
		h.fail(w, "upload receipt error", err)
		return
	}

	data, contentType, err := h.readUpload(w, r, "file", isReceipt)
	if err != nil {
		h.fail(w, "upload receipt error", err, zap.Int64("orderID", id))
		return
	}

	order, err := h.orders.UploadReceipt(r.Context(), id, data, contentType)
	if err != nil {
		h.fail(w, "upload receipt error", err, zap.Int64("orderID", id))
		return
	}

	writeJSON(w, http.StatusOK, newOrderResponse(*order))
}

// ListOrdersByUser возвращает заказы пользователя. Клиент видит только свои заказы.
func (h *Handler) ListOrdersByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := pathID(r, "usuarioId")
	if err != nil {
		h.fail(w, "list user orders error", err)
		return
	}

	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return
	}
	if p.Role != middleware.RoleAdmin && p.UserID != userID {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	orders, err := h.orders.ListOrdersByUser(r.Context(), userID)
	if err != nil {
		h.fail(w, "list user orders error", err, zap.Int64("userID", userID))
		return
	}

	writeJSON(w, http.StatusOK, newOrderList(orders))
}
