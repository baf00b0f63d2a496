package validation

import (
	"errors"
	"testing"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		name  string
		phone string
		valid bool
	}{
		{
			name:  "local number",
			phone: "12345678",
			valid: true,
		},
		{
			name:  "international with spaces",
			phone: "+502 5555-1234",
			valid: true,
		},
		{
			name:  "too short",
			phone: "1234",
			valid: false,
		},
		{
			name:  "contains letters",
			phone: "5555abcd",
			valid: false,
		},
		{
			name:  "plus in the middle",
			phone: "5555+1234",
			valid: false,
		},
		{
			name:  "empty string",
			phone: "",
			valid: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidPhone(tt.phone)
			if got != tt.valid {
				t.Fatalf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.valid)
			}
		})
	}
}

func validRequest() model.OrderRequest {
	return model.OrderRequest{
		CustomerName:  "Ana",
		CustomerPhone: "55551234",
		DeliveryMode:  model.DeliveryPickup,
		PaymentMode:   model.PaymentCash,
		Lines: []model.LineRequest{
			{ProductID: 1, Quantity: 2},
		},
	}
}

func TestValidateOrderRequest(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(r *model.OrderRequest)
		wantErr bool
	}{
		{
			name:   "valid",
			mutate: func(r *model.OrderRequest) {},
		},
		{
			name:    "blank name",
			mutate:  func(r *model.OrderRequest) { r.CustomerName = "   " },
			wantErr: true,
		},
		{
			name:    "bad phone",
			mutate:  func(r *model.OrderRequest) { r.CustomerPhone = "abc" },
			wantErr: true,
		},
		{
			name:    "unknown delivery mode",
			mutate:  func(r *model.OrderRequest) { r.DeliveryMode = "drone" },
			wantErr: true,
		},
		{
			name:    "unknown payment mode",
			mutate:  func(r *model.OrderRequest) { r.PaymentMode = "tarjeta" },
			wantErr: true,
		},
		{
			name:    "no lines",
			mutate:  func(r *model.OrderRequest) { r.Lines = nil },
			wantErr: true,
		},
		{
			name:    "zero quantity",
			mutate:  func(r *model.OrderRequest) { r.Lines[0].Quantity = 0 },
			wantErr: true,
		},
		{
			name:    "missing product id",
			mutate:  func(r *model.OrderRequest) { r.Lines[0].ProductID = 0 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			err := ValidateOrderRequest(req)
			if tt.wantErr {
				if !errors.Is(err, model.ErrValidation) {
					t.Fatalf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus(" Listo ")
	if err != nil {
		t.Fatalf("ParseStatus error: %v", err)
	}
	if s != model.OrderStatusReady {
		t.Fatalf("status = %q, want %q", s, model.OrderStatusReady)
	}

	if _, err := ParseStatus("perdido"); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}
