// Package handler содержит HTTP-обработчики API сервиса заказов.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/middleware"
	"github.com/mmeshcher/pedidos-system/internal/model"
)

// OrderService определяет операции с заказами, используемые HTTP-обработчиками.
type OrderService interface {
	CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error)
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrdersInRange(ctx context.Context, r model.DateRange) ([]model.Order, error)
	UpdateStatus(ctx context.Context, id int64, requested model.OrderStatus) (*model.Order, error)
	UploadReceipt(ctx context.Context, id int64, data []byte, contentType string) (*model.Order, error)
}

// CatalogService определяет операции с каталогом товаров.
type CatalogService interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	RenameCategory(ctx context.Context, id int64, name string) (*model.Category, error)
	ToggleCategory(ctx context.Context, id int64) (*model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error)
	SetProductActive(ctx context.Context, id int64, active bool) (*model.Product, error)
	UploadProductImage(ctx context.Context, id int64, data []byte, contentType string) (*model.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	TopSellingProducts(ctx context.Context, rng model.DateRange, limit int) ([]model.ProductSales, error)
}

// UserService управляет учётными записями.
type UserService interface {
	CreateUser(ctx context.Context, u model.User) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	UpdateUser(ctx context.Context, u model.User) (*model.User, error)
}

// ReportService строит отчёт о продажах и показатели панели администратора.
type ReportService interface {
	Report(ctx context.Context, rng model.DateRange, status string) (model.ReportPayload, error)
	Dashboard(ctx context.Context, rng model.DateRange) (*model.Dashboard, error)
	Location() *time.Location
}

// Renderer сериализует отчёт в документ XLSX.
type Renderer interface {
	Render(p model.ReportPayload) ([]byte, error)
}

// Pinger проверяет доступность базы данных.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps содержит зависимости обработчиков.
type Deps struct {
	Orders   OrderService
	Catalog  CatalogService
	Users    UserService
	Reports  ReportService
	Renderer Renderer
	Health   Pinger
	Auth     *middleware.AuthMiddleware
}

// Options задаёт ограничения HTTP-слоя.
type Options struct {
	Env            string
	MaxUploadBytes int64
	AllowedOrigins []string
}

// Handler реализует HTTP-обработчики API сервиса заказов.
type Handler struct {
	orders   OrderService
	catalog  CatalogService
	users    UserService
	reports  ReportService
	renderer Renderer
	health   Pinger
	auth     *middleware.AuthMiddleware
	opts     Options
	logger   *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(d Deps, opts Options, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		orders:   d.Orders,
		catalog:  d.Catalog,
		users:    d.Users,
		reports:  d.Reports,
		renderer: d.Renderer,
		health:   d.Health,
		auth:     d.Auth,
		opts:     opts,
		logger:   logger,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// Health сообщает о готовности сервиса.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := h.health.Ping(ctx); err != nil {
			h.logger.Warn("health check failed", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, model.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// fail отвечает клиенту кодом, соответствующим ошибке. Внутренние ошибки
// записываются в журнал, клиент получает только общий текст.
func (h *Handler) fail(w http.ResponseWriter, msg string, err error, fields ...zap.Field) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error(msg, append(fields, zap.Error(err))...)
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
		return
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: malformed request body: %v", model.ErrValidation, err)
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	id, err := rawPathID(r, name)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: invalid %s %d", model.ErrValidation, name, id)
	}
	return id, nil
}

// rawPathID разбирает числовой параметр пути без проверки знака.
func rawPathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s %q", model.ErrValidation, name, raw)
	}
	return id, nil
}
