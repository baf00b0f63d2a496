package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

type stubRepo struct {
	orders     map[int64]*model.Order
	products   map[int64]model.Product
	userExists bool

	created      *model.Order
	updateCalls  int
	receiptURL   string
	receiptState model.OrderStatus
	receiptErr   error
}

func newStubRepo() *stubRepo {
	return &stubRepo{
		orders:     map[int64]*model.Order{},
		products:   catalogOf("25.00", "10.00"),
		userExists: true,
	}
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) UserExists(ctx context.Context, id int64) (bool, error) {
	return s.userExists, nil
}

func (s *stubRepo) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	out := make(map[int64]model.Product, len(ids))
	for _, id := range ids {
		if p, ok := s.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (s *stubRepo) CreateOrder(ctx context.Context, o *model.Order) error {
	o.ID = int64(len(s.orders) + 1)
	s.orders[o.ID] = o
	s.created = o
	return nil
}

func (s *stubRepo) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, ok := s.orders[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubRepo) ListOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) ListOrdersInRange(ctx context.Context, r model.DateRange) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	s.updateCalls++
	s.orders[id].Status = status
	return nil
}

func (s *stubRepo) SetOrderReceipt(ctx context.Context, id int64, url string, status model.OrderStatus) error {
	if s.receiptErr != nil {
		return s.receiptErr
	}
	s.receiptURL = url
	s.receiptState = status
	return nil
}

type stubBlobs struct {
	stored   []string
	deleted  []string
	storeErr error
}

func (b *stubBlobs) Store(ctx context.Context, data []byte, contentType, namespace string) (string, error) {
	if b.storeErr != nil {
		return "", b.storeErr
	}
	url := "https://files.example.com/" + namespace + "/receipt.png"
	b.stored = append(b.stored, url)
	return url, nil
}

func (b *stubBlobs) Delete(ctx context.Context, url string) error {
	b.deleted = append(b.deleted, url)
	return nil
}

func validOrderRequest() model.OrderRequest {
	return model.OrderRequest{
		CustomerName:  "Ana López",
		CustomerPhone: "+502 5555-1234",
		DeliveryMode:  model.DeliveryHome,
		PaymentMode:   model.PaymentTransfer,
		Lines: []model.LineRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 1},
		},
	}
}

func newTestService(repo *stubRepo, blobs *stubBlobs) *Service {
	return NewService(repo, blobs, Options{DeliverySurcharge: decimal.RequireFromString("15.00")}, nil)
}

func TestCreateOrder(t *testing.T) {
	repo := newStubRepo()
	svc := newTestService(repo, &stubBlobs{})

	o, err := svc.CreateOrder(context.Background(), validOrderRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.ID == 0 || repo.created == nil {
		t.Fatalf("order must be persisted")
	}
	if !o.Total.Equal(decimal.RequireFromString("75.00")) {
		t.Fatalf("expected total 75.00, got %s", o.Total)
	}
	if o.Status != model.OrderStatusPending {
		t.Fatalf("expected status %s, got %s", model.OrderStatusPending, o.Status)
	}
}

func TestCreateOrderErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *stubRepo, req *model.OrderRequest)
		wantErr error
	}{
		{
			name:    "empty lines",
			mutate:  func(r *stubRepo, req *model.OrderRequest) { req.Lines = nil },
			wantErr: model.ErrValidation,
		},
		{
			name: "unknown product",
			mutate: func(r *stubRepo, req *model.OrderRequest) {
				req.Lines = append(req.Lines, model.LineRequest{ProductID: 42, Quantity: 1})
			},
			wantErr: model.ErrNotFound,
		},
		{
			name: "unknown user",
			mutate: func(r *stubRepo, req *model.OrderRequest) {
				id := int64(7)
				req.UserID = &id
				r.userExists = false
			},
			wantErr: model.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newStubRepo()
			req := validOrderRequest()
			tt.mutate(repo, &req)

			_, err := newTestService(repo, &stubBlobs{}).CreateOrder(context.Background(), req)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if repo.created != nil {
				t.Fatalf("order must not be persisted on error")
			}
		})
	}
}

func TestUpdateStatus(t *testing.T) {
	repo := newStubRepo()
	repo.orders[1] = &model.Order{ID: 1, Status: model.OrderStatusDelivered}
	repo.orders[2] = &model.Order{ID: 2, Status: model.OrderStatusPending}
	svc := newTestService(repo, &stubBlobs{})
	ctx := context.Background()

	if _, err := svc.UpdateStatus(ctx, 1, model.OrderStatusPending); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if repo.orders[1].Status != model.OrderStatusDelivered {
		t.Fatalf("delivered order must stay delivered")
	}

	if _, err := svc.UpdateStatus(ctx, 99, model.OrderStatusReady); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if _, err := svc.UpdateStatus(ctx, 2, model.OrderStatus("bogus")); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	o, err := svc.UpdateStatus(ctx, 2, model.OrderStatusReady)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.Status != model.OrderStatusReady {
		t.Fatalf("expected %s, got %s", model.OrderStatusReady, o.Status)
	}

	calls := repo.updateCalls
	if _, err := svc.UpdateStatus(ctx, 2, model.OrderStatusReady); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.updateCalls != calls {
		t.Fatalf("repeating the current status must not write")
	}
}

func TestUploadReceipt(t *testing.T) {
	ctx := context.Background()
	data := []byte("fake-png")

	t.Run("zero id", func(t *testing.T) {
		blobs := &stubBlobs{}
		_, err := newTestService(newStubRepo(), blobs).UploadReceipt(ctx, 0, data, "image/png")
		if !errors.Is(err, model.ErrInvalidState) {
			t.Fatalf("expected ErrInvalidState, got %v", err)
		}
		if len(blobs.stored) != 0 {
			t.Fatalf("no file must be stored")
		}
	})

	t.Run("missing order stores nothing", func(t *testing.T) {
		blobs := &stubBlobs{}
		_, err := newTestService(newStubRepo(), blobs).UploadReceipt(ctx, 10, data, "image/png")
		if !errors.Is(err, model.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if len(blobs.stored) != 0 {
			t.Fatalf("no file must be stored for a missing order")
		}
	})

	t.Run("transfer moves to verification", func(t *testing.T) {
		repo := newStubRepo()
		repo.orders[3] = &model.Order{ID: 3, PaymentMode: model.PaymentTransfer, Status: model.OrderStatusPending}
		blobs := &stubBlobs{}

		o, err := newTestService(repo, blobs).UploadReceipt(ctx, 3, data, "image/png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.Status != model.OrderStatusPendingVerification || repo.receiptState != model.OrderStatusPendingVerification {
			t.Fatalf("expected %s, got %s", model.OrderStatusPendingVerification, o.Status)
		}
		if o.ReceiptURL == nil || *o.ReceiptURL != repo.receiptURL {
			t.Fatalf("receipt url must be attached to the order")
		}
	})

	t.Run("cash keeps status", func(t *testing.T) {
		repo := newStubRepo()
		repo.orders[4] = &model.Order{ID: 4, PaymentMode: model.PaymentCash, Status: model.OrderStatusPending}

		o, err := newTestService(repo, &stubBlobs{}).UploadReceipt(ctx, 4, data, "image/png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if o.Status != model.OrderStatusPending {
			t.Fatalf("expected %s, got %s", model.OrderStatusPending, o.Status)
		}
	})

	t.Run("storage failure", func(t *testing.T) {
		repo := newStubRepo()
		repo.orders[5] = &model.Order{ID: 5, PaymentMode: model.PaymentTransfer, Status: model.OrderStatusPending}
		blobs := &stubBlobs{storeErr: errors.New("bucket unavailable")}

		_, err := newTestService(repo, blobs).UploadReceipt(ctx, 5, data, "image/png")
		if !errors.Is(err, model.ErrStorage) {
			t.Fatalf("expected ErrStorage, got %v", err)
		}
		if repo.receiptURL != "" {
			t.Fatalf("order must not reference a failed upload")
		}
	})

	t.Run("database failure removes stored file", func(t *testing.T) {
		repo := newStubRepo()
		repo.orders[6] = &model.Order{ID: 6, PaymentMode: model.PaymentTransfer, Status: model.OrderStatusPending}
		repo.receiptErr = errors.New("connection reset")
		blobs := &stubBlobs{}

		if _, err := newTestService(repo, blobs).UploadReceipt(ctx, 6, data, "image/png"); err == nil {
			t.Fatalf("expected error")
		}
		if len(blobs.deleted) != 1 || blobs.deleted[0] != blobs.stored[0] {
			t.Fatalf("stored file must be removed, deleted=%v", blobs.deleted)
		}
	})
}
