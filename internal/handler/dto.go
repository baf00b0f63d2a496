package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

type orderLineRequest struct {
	ProductID int64   `json:"productoId"`
	Quantity  int     `json:"cantidad"`
	Notes     *string `json:"personalizaciones"`
}

type createOrderRequest struct {
	CustomerName  string             `json:"nombreCliente"`
	CustomerPhone string             `json:"telefonoCliente"`
	Address       *string            `json:"direccion"`
	DeliveryMode  string             `json:"tipoEntrega"`
	PaymentMode   string             `json:"tipoPago"`
	UserID        *int64             `json:"usuarioId"`
	Lines         []orderLineRequest `json:"productos"`
}

func (req createOrderRequest) toModel() model.OrderRequest {
	lines := make([]model.LineRequest, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, model.LineRequest{
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			Notes:     l.Notes,
		})
	}

	return model.OrderRequest{
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		DeliveryMode:  model.DeliveryMode(strings.ToLower(strings.TrimSpace(req.DeliveryMode))),
		PaymentMode:   model.PaymentMode(strings.ToLower(strings.TrimSpace(req.PaymentMode))),
		UserID:        req.UserID,
		Lines:         lines,
	}
}

type orderLineResponse struct {
	ProductID   int64   `json:"productoId"`
	ProductName string  `json:"nombreProducto"`
	Quantity    int     `json:"cantidad"`
	Notes       *string `json:"personalizaciones"`
	UnitPrice   float64 `json:"precioUnitario"`
}

type orderResponse struct {
	ID                int64               `json:"id"`
	CustomerName      string              `json:"nombreCliente"`
	CustomerPhone     string              `json:"telefonoCliente"`
	Address           *string             `json:"direccion"`
	DeliveryMode      string              `json:"tipoEntrega"`
	DeliverySurcharge float64             `json:"recargoDomicilio"`
	PaymentMode       string              `json:"tipoPago"`
	ReceiptURL        *string             `json:"comprobanteUrl"`
	Total             float64             `json:"total"`
	Status            string              `json:"estado"`
	CreatedAt         string              `json:"fechaPedido"`
	UserID            *int64              `json:"usuarioId,omitempty"`
	Lines             []orderLineResponse `json:"productos"`
}

func newOrderResponse(o model.Order) orderResponse {
	lines := make([]orderLineResponse, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, orderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			Notes:       l.Notes,
			UnitPrice:   l.UnitPrice.InexactFloat64(),
		})
	}

	return orderResponse{
		ID:                o.ID,
		CustomerName:      o.CustomerName,
		CustomerPhone:     o.CustomerPhone,
		Address:           o.Address,
		DeliveryMode:      string(o.DeliveryMode),
		DeliverySurcharge: o.DeliverySurcharge.InexactFloat64(),
		PaymentMode:       string(o.PaymentMode),
		ReceiptURL:        o.ReceiptURL,
		Total:             o.Total.InexactFloat64(),
		Status:            string(o.Status),
		CreatedAt:         o.CreatedAt.Format(time.RFC3339),
		UserID:            o.UserID,
		Lines:             lines,
	}
}

func newOrderList(orders []model.Order) []orderResponse {
	resp := make([]orderResponse, 0, len(orders))
	for _, o := range orders {
		resp = append(resp, newOrderResponse(o))
	}
	return resp
}

type dashboardResponse struct {
	TotalOrders    int64           `json:"totalPedidos"`
	TotalSales     float64         `json:"gananciasTotales"`
	OrdersToday    int64           `json:"pedidosHoy"`
	PendingOrders  int64           `json:"pedidosPendientes"`
	RecentOrders   []orderResponse `json:"ultimosPedidos"`
	Months         []string        `json:"meses"`
	OrdersPerMonth []int64         `json:"pedidosPorMes"`
}

func newDashboardResponse(d *model.Dashboard) dashboardResponse {
	perMonth := d.OrdersPerMonth
	if perMonth == nil {
		perMonth = []int64{}
	}
	months := d.Months
	if months == nil {
		months = []string{}
	}

	return dashboardResponse{
		TotalOrders:    d.TotalOrders,
		TotalSales:     d.TotalSales,
		OrdersToday:    d.OrdersToday,
		PendingOrders:  d.PendingOrders,
		RecentOrders:   newOrderList(d.RecentOrders),
		Months:         months,
		OrdersPerMonth: perMonth,
	}
}

type categoryRequest struct {
	Name string `json:"nombre"`
}

type categoryResponse struct {
	ID     int64  `json:"id"`
	Name   string `json:"nombre"`
	Active bool   `json:"activo"`
}

func newCategoryResponse(c model.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Active: c.Active}
}

type productRequest struct {
	Name        string          `json:"nombre"`
	Description string          `json:"descripcion"`
	Price       decimal.Decimal `json:"precio"`
	CategoryID  int64           `json:"categoriaId"`
}

func (req productRequest) toModel(id int64) model.Product {
	return model.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
	}
}

type productResponse struct {
	ID          int64   `json:"id"`
	Name        string  `json:"nombre"`
	Description string  `json:"descripcion"`
	Price       float64 `json:"precio"`
	CategoryID  int64   `json:"categoriaId"`
	ImageURL    *string `json:"imagenUrl"`
	Active      bool    `json:"activo"`
}

func newProductResponse(p model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		CategoryID:  p.CategoryID,
		ImageURL:    p.ImageURL,
		Active:      p.Active,
	}
}

type topProductResponse struct {
	ProductID int64   `json:"productoId"`
	Name      string  `json:"nombre"`
	Quantity  int64   `json:"cantidad"`
	Price     float64 `json:"precio"`
	Total     float64 `json:"total"`
}

func newTopProductResponse(ps model.ProductSales) topProductResponse {
	return topProductResponse{
		ProductID: ps.ProductID,
		Name:      ps.Name,
		Quantity:  ps.Quantity,
		Price:     ps.Price.InexactFloat64(),
		Total:     ps.Price.Mul(decimal.NewFromInt(ps.Quantity)).InexactFloat64(),
	}
}

type userRequest struct {
	Name  string `json:"nombreCompleto"`
	Email string `json:"email"`
	Phone string `json:"telefono"`
	Role  string `json:"rol"`
}

func (req userRequest) toModel(id int64) model.User {
	return model.User{
		ID:    id,
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		Role:  req.Role,
	}
}

type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"nombreCompleto"`
	Email     string    `json:"email"`
	Phone     string    `json:"telefono"`
	Role      string    `json:"rol"`
	CreatedAt time.Time `json:"fechaRegistro"`
}

func newUserResponse(u model.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}
