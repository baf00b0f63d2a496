// Package service реализует бизнес-логику сервиса заказов.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/model"
	"github.com/mmeshcher/pedidos-system/internal/validation"
)

// Пространство имён хранилища для чеков об оплате.
const receiptNamespace = "comprobantes"

// OrderRepository описывает контракт доступа к заказам, используемый сервисом.
type OrderRepository interface {
	Close() error
	UserExists(ctx context.Context, id int64) (bool, error)
	GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error)
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error)
	ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error)
	ListOrdersInRange(ctx context.Context, r model.DateRange) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) error
	SetOrderReceipt(ctx context.Context, id int64, url string, status model.OrderStatus) error
}

// BlobStore сохраняет двоичные файлы и возвращает их публичный адрес.
type BlobStore interface {
	Store(ctx context.Context, data []byte, contentType, namespace string) (string, error)
	Delete(ctx context.Context, url string) error
}

// Options содержит настраиваемые параметры сервиса.
type Options struct {
	DeliverySurcharge decimal.Decimal
}

// Service содержит бизнес-логику заказов.
type Service struct {
	repo   OrderRepository
	blobs  BlobStore
	opts   Options
	logger *zap.Logger
}

// NewService создаёт новый сервис с указанным репозиторием и файловым хранилищем.
func NewService(repo OrderRepository, blobs BlobStore, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:   repo,
		blobs:  blobs,
		opts:   opts,
		logger: logger,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// CreateOrder проверяет запрос, фиксирует текущие цены и сохраняет заказ.
func (s *Service) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	if err := validation.ValidateOrderRequest(req); err != nil {
		return nil, err
	}

	if req.UserID != nil {
		ok, err := s.repo.UserExists(ctx, *req.UserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: user %d", model.ErrNotFound, *req.UserID)
		}
	}

	products, err := s.repo.GetProductsByIDs(ctx, lineProductIDs(req.Lines))
	if err != nil {
		return nil, err
	}

	order, err := BuildOrder(req, products, s.opts.DeliverySurcharge)
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, err
	}

	s.logger.Info("order created",
		zap.Int64("order_id", order.ID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.Int("lines", len(order.Lines)),
	)

	return order, nil
}

func lineProductIDs(lines []model.LineRequest) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.ProductID]; ok {
			continue
		}
		seen[l.ProductID] = struct{}{}
		ids = append(ids, l.ProductID)
	}
	return ids
}

// GetOrder возвращает заказ по идентификатору.
func (s *Service) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrders возвращает заказы, при необходимости отфильтрованные по статусу.
func (s *Service) ListOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error) {
	if status != nil && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", model.ErrValidation, *status)
	}
	return s.repo.ListOrders(ctx, status)
}

// ListOrdersByUser возвращает историю заказов пользователя.
func (s *Service) ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return s.repo.ListOrdersByUser(ctx, userID)
}

// ListOrdersInRange возвращает заказы, созданные в интервале.
func (s *Service) ListOrdersInRange(ctx context.Context, r model.DateRange) ([]model.Order, error) {
	if r.Start.After(r.End) {
		return nil, fmt.Errorf("%w: start date is after end date", model.ErrValidation)
	}
	return s.repo.ListOrdersInRange(ctx, r)
}

// UpdateStatus переводит заказ в новый статус, если переход допустим.
func (s *Service) UpdateStatus(ctx context.Context, id int64, requested model.OrderStatus) (*model.Order, error) {
	if !requested.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", model.ErrValidation, requested)
	}

	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	next, err := NextStatus(o.Status, requested)
	if err != nil {
		return nil, err
	}
	if next == o.Status {
		return o, nil
	}

	if err := s.repo.UpdateOrderStatus(ctx, id, next); err != nil {
		return nil, err
	}

	s.logger.Info("order status changed",
		zap.Int64("order_id", id),
		zap.String("from", string(o.Status)),
		zap.String("to", string(next)),
	)

	o.Status = next
	return o, nil
}

// UploadReceipt сохраняет чек об оплате и привязывает его к заказу.
// Заказ проверяется до записи файла, поэтому для несуществующего заказа хранилище не трогается.
func (s *Service) UploadReceipt(ctx context.Context, id int64, data []byte, contentType string) (*model.Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: order id is required", model.ErrInvalidState)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: receipt file is empty", model.ErrValidation)
	}

	o, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.blobs.Store(ctx, data, contentType, receiptNamespace)
	if err != nil {
		if errors.Is(err, model.ErrStorage) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: store receipt: %v", model.ErrStorage, err)
	}

	status := statusAfterReceipt(o)
	if err := s.repo.SetOrderReceipt(ctx, id, url, status); err != nil {
		if delErr := s.blobs.Delete(ctx, url); delErr != nil {
			s.logger.Warn("failed to remove orphaned receipt", zap.String("url", url), zap.Error(delErr))
		}
		return nil, err
	}

	s.logger.Info("receipt attached",
		zap.Int64("order_id", id),
		zap.String("status", string(status)),
		zap.Int("size", len(data)),
	)

	o.ReceiptURL = &url
	o.Status = status
	return o, nil
}
