package model

import "github.com/shopspring/decimal"

// NoDataName подставляется в выделенные показатели отчёта, когда данных нет.
const NoDataName = "No hay datos"

// NoDataPhone подставляется вместо телефона клиента, когда данных нет.
const NoDataPhone = "N/A"

// StatusCount содержит количество заказов в одном статусе.
type StatusCount struct {
	Status string `json:"estado"`
	Count  int64  `json:"cantidad"`
}

// TopProduct описывает самый продаваемый товар периода.
type TopProduct struct {
	Name     string  `json:"nombre"`
	Quantity int64   `json:"cantidad"`
	Total    float64 `json:"total"`
}

// HasData сообщает, что показатель не является заглушкой.
func (p TopProduct) HasData() bool {
	return p.Name != "" && p.Name != NoDataName
}

// TopCustomer описывает клиента с наибольшей суммой покупок за период.
type TopCustomer struct {
	Name   string  `json:"nombre"`
	Phone  string  `json:"telefono"`
	Orders int64   `json:"pedidos"`
	Total  float64 `json:"total"`
}

// HasData сообщает, что показатель не является заглушкой.
func (c TopCustomer) HasData() bool {
	return c.Name != "" && c.Name != NoDataName
}

// NoTopProduct возвращает заглушку для периода без продаж.
func NoTopProduct() TopProduct {
	return TopProduct{Name: NoDataName}
}

// NoTopCustomer возвращает заглушку для периода без клиентов.
func NoTopCustomer() TopCustomer {
	return TopCustomer{Name: NoDataName, Phone: NoDataPhone}
}

// ReportPayload содержит агрегированные показатели продаж за период.
// Значение не сохраняется и не кэшируется.
type ReportPayload struct {
	Months          []string      `json:"meses"`
	Sales           []float64     `json:"ventas"`
	TotalSales      float64       `json:"totalVentas"`
	TotalOrders     int64         `json:"totalPedidos"`
	CancelledOrders int64         `json:"pedidosCancelados"`
	StatusCounts    []StatusCount `json:"estadosPedidos"`
	TopProduct      TopProduct    `json:"productoMasVendido"`
	TopCustomer     TopCustomer   `json:"clienteFrecuente"`
}

// NewReportPayload возвращает пустой отчёт со значениями по умолчанию.
func NewReportPayload() ReportPayload {
	return ReportPayload{
		Months:       []string{},
		Sales:        []float64{},
		StatusCounts: []StatusCount{},
		TopProduct:   NoTopProduct(),
		TopCustomer:  NoTopCustomer(),
	}
}

// Dashboard содержит оперативные показатели для панели администратора.
type Dashboard struct {
	TotalOrders    int64
	TotalSales     float64
	OrdersToday    int64
	PendingOrders  int64
	RecentOrders   []Order
	Months         []string
	OrdersPerMonth []int64
}

// MonthlyAmount содержит сумму продаж за календарный месяц.
type MonthlyAmount struct {
	Year   int
	Month  int
	Amount decimal.Decimal
}

// MonthlyCount содержит количество заказов за календарный месяц.
type MonthlyCount struct {
	Year  int
	Month int
	Count int64
}

// ProductSales содержит проданное количество товара и его текущую цену.
type ProductSales struct {
	ProductID int64
	Name      string
	Quantity  int64
	Price     decimal.Decimal
}

// CustomerSales содержит число заказов и сумму покупок клиента.
type CustomerSales struct {
	Name   string
	Phone  string
	Orders int64
	Total  decimal.Decimal
}
