// Package model содержит доменные сущности сервиса заказов.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus описывает стадию выполнения заказа.
type OrderStatus string

const (
	OrderStatusPending             OrderStatus = "pendiente"
	OrderStatusPendingVerification OrderStatus = "pendiente_verificacion"
	OrderStatusPreparing           OrderStatus = "en_preparacion"
	OrderStatusReady               OrderStatus = "listo"
	OrderStatusDelivered           OrderStatus = "entregado"
	OrderStatusCancelled           OrderStatus = "cancelado"
)

// StatusAll означает отсутствие фильтра по статусу в отчётах.
const StatusAll = "todos"

// IsTerminal сообщает, что из статуса больше нет переходов.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

// Valid проверяет, что статус входит в известный набор.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPendingVerification, OrderStatusPreparing,
		OrderStatusReady, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// DeliveryMode описывает способ получения заказа.
type DeliveryMode string

const (
	DeliveryPickup DeliveryMode = "recoger"
	DeliveryHome   DeliveryMode = "domicilio"
)

// PaymentMode описывает способ оплаты заказа.
type PaymentMode string

const (
	PaymentCash     PaymentMode = "efectivo"
	PaymentTransfer PaymentMode = "transferencia"
)

// Order описывает заказ клиента вместе с позициями.
type Order struct {
	ID                int64
	CustomerName      string
	CustomerPhone     string
	Address           *string
	DeliveryMode      DeliveryMode
	DeliverySurcharge decimal.Decimal
	PaymentMode       PaymentMode
	ReceiptURL        *string
	Lines             []OrderLine
	Total             decimal.Decimal
	Status            OrderStatus
	CreatedAt         time.Time
	UserID            *int64
}

// OrderLine описывает позицию заказа. Цена фиксируется в момент создания заказа.
type OrderLine struct {
	ProductID   int64
	ProductName string
	Quantity    int
	Notes       *string
	UnitPrice   decimal.Decimal
	Seq         int
}

// LineRequest описывает позицию во входящем запросе на создание заказа.
type LineRequest struct {
	ProductID int64
	Quantity  int
	Notes     *string
}

// OrderRequest содержит данные для создания заказа.
type OrderRequest struct {
	CustomerName  string
	CustomerPhone string
	Address       *string
	DeliveryMode  DeliveryMode
	PaymentMode   PaymentMode
	UserID        *int64
	Lines         []LineRequest
}

// Product описывает товар каталога с текущей ценой.
type Product struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	CategoryID  int64
	ImageURL    *string
	Active      bool
}

// Category описывает категорию товаров.
type Category struct {
	ID     int64
	Name   string
	Active bool
}

// Роли пользователей.
const (
	RoleAdmin    = "ADMIN"
	RoleCustomer = "CLIENTE"
)

// User описывает учётную запись, к которой привязываются заказы клиента.
type User struct {
	ID        int64
	Name      string
	Email     string
	Phone     string
	Role      string
	CreatedAt time.Time
}

// DateRange задаёт включительный интервал времени для отчётов.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// StatusFilter ограничивает агрегаты одним статусом. При Exclude статус исключается.
// Нулевое значение означает отсутствие фильтра.
type StatusFilter struct {
	Status  OrderStatus
	Exclude bool
}

// OnlyStatus возвращает фильтр, оставляющий только заказы со статусом s.
func OnlyStatus(s OrderStatus) StatusFilter {
	return StatusFilter{Status: s}
}

// ExceptStatus возвращает фильтр, исключающий заказы со статусом s.
func ExceptStatus(s OrderStatus) StatusFilter {
	return StatusFilter{Status: s, Exclude: true}
}

// IsZero сообщает, что фильтр не задан.
func (f StatusFilter) IsZero() bool {
	return f.Status == ""
}

// ProductFilter задаёт условия выборки товаров каталога.
type ProductFilter struct {
	ActiveOnly bool
	CategoryID *int64
	Name       string
}
