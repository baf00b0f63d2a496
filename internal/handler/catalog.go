package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// ListCategories возвращает активные категории.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, true)
}

// ListAllCategories возвращает все категории, включая отключённые.
func (h *Handler) ListAllCategories(w http.ResponseWriter, r *http.Request) {
	h.listCategories(w, r, false)
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request, activeOnly bool) {
	cats, err := h.catalog.ListCategories(r.Context(), activeOnly)
	if err != nil {
		h.fail(w, "list categories error", err)
		return
	}

	resp := make([]categoryResponse, 0, len(cats))
	for _, c := range cats {
		resp = append(resp, newCategoryResponse(c))
	}
	writeJSON(w, http.StatusOK, resp)
}

// CreateCategory создаёт категорию.
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, "create category error", err)
		return
	}

	c, err := h.catalog.CreateCategory(r.Context(), req.Name)
	if err != nil {
		h.fail(w, "create category error", err)
		return
	}

	writeJSON(w, http.StatusCreated, newCategoryResponse(*c))
}

// RenameCategory меняет имя категории.
func (h *Handler) RenameCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "rename category error", err)
		return
	}

	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, "rename category error", err)
		return
	}

	c, err := h.catalog.RenameCategory(r.Context(), id, req.Name)
	if err != nil {
		h.fail(w, "rename category error", err, zap.Int64("categoryID", id))
		return
	}

	writeJSON(w, http.StatusOK, newCategoryResponse(*c))
}

// ToggleCategory включает или отключает категорию.
func (h *Handler) ToggleCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "toggle category error", err)
		return
	}

	c, err := h.catalog.ToggleCategory(r.Context(), id)
	if err != nil {
		h.fail(w, "toggle category error", err, zap.Int64("categoryID", id))
		return
	}

	writeJSON(w, http.StatusOK, newCategoryResponse(*c))
}

// DeleteCategory удаляет категорию или отключает её, если в ней есть товары.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "delete category error", err)
		return
	}

	if err := h.catalog.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, "delete category error", err, zap.Int64("categoryID", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListProducts возвращает активные товары.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, model.ProductFilter{ActiveOnly: true})
}

// ListAllProducts возвращает все товары, включая отключённые.
func (h *Handler) ListAllProducts(w http.ResponseWriter, r *http.Request) {
	h.listProducts(w, r, model.ProductFilter{})
}

// SearchProducts ищет активные товары по части названия.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("nombre"))
	if name == "" {
		h.fail(w, "search products error", fmt.Errorf("%w: nombre is required", model.ErrValidation))
		return
	}
	h.listProducts(w, r, model.ProductFilter{ActiveOnly: true, Name: name})
}

// ListCategoryProducts возвращает активные товары категории.
func (h *Handler) ListCategoryProducts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "list category products error", err)
		return
	}
	h.listProducts(w, r, model.ProductFilter{ActiveOnly: true, CategoryID: &id})
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, f model.ProductFilter) {
	products, err := h.catalog.ListProducts(r.Context(), f)
	if err != nil {
		h.fail(w, "list products error", err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, newProductResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

// defaultTopSelling число товаров в ответе без параметра limite.
const defaultTopSelling = 10

// TopSellingProducts возвращает самые продаваемые товары за интервал inicio..fin.
func (h *Handler) TopSellingProducts(w http.ResponseWriter, r *http.Request) {
	rng, err := boundRange(r, h.reports.Location())
	if err != nil {
		h.fail(w, "top selling products error", err)
		return
	}

	limit := defaultTopSelling
	if raw := r.URL.Query().Get("limite"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			h.fail(w, "top selling products error", fmt.Errorf("%w: invalid limite %q", model.ErrValidation, raw))
			return
		}
	}

	top, err := h.catalog.TopSellingProducts(r.Context(), rng, limit)
	if err != nil {
		h.fail(w, "top selling products error", err, zap.Time("start", rng.Start), zap.Time("end", rng.End))
		return
	}

	resp := make([]topProductResponse, 0, len(top))
	for _, ps := range top {
		resp = append(resp, newTopProductResponse(ps))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetProduct возвращает товар по идентификатору.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "get product error", err)
		return
	}

	p, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		h.fail(w, "get product error", err, zap.Int64("productID", id))
		return
	}

	writeJSON(w, http.StatusOK, newProductResponse(*p))
}

// CreateProduct создаёт товар.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, "create product error", err)
		return
	}

	p, err := h.catalog.CreateProduct(r.Context(), req.toModel(0))
	if err != nil {
		h.fail(w, "create product error", err)
		return
	}

	writeJSON(w, http.StatusCreated, newProductResponse(*p))
}

// UpdateProduct обновляет данные товара.
func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "update product error", err)
		return
	}

	var req productRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, "update product error", err)
		return
	}

	p, err := h.catalog.UpdateProduct(r.Context(), req.toModel(id))
	if err != nil {
		h.fail(w, "update product error", err, zap.Int64("productID", id))
		return
	}

	writeJSON(w, http.StatusOK, newProductResponse(*p))
}

// SetProductActive включает или отключает товар по параметру estado.
func (h *Handler) SetProductActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "set product state error", err)
		return
	}

	raw := r.URL.Query().Get("estado")
	active, err := strconv.ParseBool(raw)
	if err != nil {
		h.fail(w, "set product state error", fmt.Errorf("%w: invalid estado %q", model.ErrValidation, raw))
		return
	}

	p, err := h.catalog.SetProductActive(r.Context(), id, active)
	if err != nil {
		h.fail(w, "set product state error", err, zap.Int64("productID", id))
		return
	}

	writeJSON(w, http.StatusOK, newProductResponse(*p))
}

// UploadProductImage заменяет изображение товара файлом из поля imagen.
func (h *Handler) UploadProductImage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "upload product image error", err)
		return
	}

	data, contentType, err := h.readUpload(w, r, "imagen", isImage)
	if err != nil {
		h.fail(w, "upload product image error", err, zap.Int64("productID", id))
		return
	}

	p, err := h.catalog.UploadProductImage(r.Context(), id, data, contentType)
	if err != nil {
		h.fail(w, "upload product image error", err, zap.Int64("productID", id))
		return
	}

	writeJSON(w, http.StatusOK, newProductResponse(*p))
}

// DeleteProduct удаляет товар или отключает его, если он уже встречается в заказах.
func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		h.fail(w, "delete product error", err)
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), id); err != nil {
		h.fail(w, "delete product error", err, zap.Int64("productID", id))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
