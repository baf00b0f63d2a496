package handler

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/middleware"
)

// CreateUser регистрирует пользователя. Доступно администратору.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, "create user error", err)
		return
	}

	u, err := h.users.CreateUser(r.Context(), req.toModel(0))
	if err != nil {
		h.fail(w, "create user error", err)
		return
	}

	writeJSON(w, http.StatusCreated, newUserResponse(*u))
}

// GetUser возвращает профиль. Клиент видит только свой профиль.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.ownUserID(w, r, "get user error")
	if !ok {
		return
	}

	u, err := h.users.GetUser(r.Context(), id)
	if err != nil {
		h.fail(w, "get user error", err, zap.Int64("userID", id), zap.Int64("principal", p.UserID))
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(*u))
}

// UpdateUser обновляет профиль. Роль меняет только администратор.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, p, ok := h.ownUserID(w, r, "update user error")
	if !ok {
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, "update user error", err)
		return
	}
	if p.Role != middleware.RoleAdmin && strings.TrimSpace(req.Role) != "" {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return
	}

	u, err := h.users.UpdateUser(r.Context(), req.toModel(id))
	if err != nil {
		h.fail(w, "update user error", err, zap.Int64("userID", id))
		return
	}

	writeJSON(w, http.StatusOK, newUserResponse(*u))
}

// ownUserID разбирает идентификатор пользователя из пути и проверяет,
// что запрос делает сам пользователь или администратор.
func (h *Handler) ownUserID(w http.ResponseWriter, r *http.Request, msg string) (int64, middleware.Principal, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, msg, err)
		return 0, middleware.Principal{}, false
	}

	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return 0, p, false
	}
	if p.Role != middleware.RoleAdmin && p.UserID != id {
		http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
		return 0, p, false
	}
	return id, p, true
}
