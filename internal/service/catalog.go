package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// Пространство имён хранилища для изображений товаров.
const productImageNamespace = "productos"

// CatalogRepository описывает контракт доступа к каталогу товаров.
type CatalogRepository interface {
	ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	CreateCategory(ctx context.Context, name string) (*model.Category, error)
	UpdateCategory(ctx context.Context, c *model.Category) error
	CountCategoryProducts(ctx context.Context, id int64, activeOnly bool) (int64, error)
	DeleteCategory(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	ProductHasOrders(ctx context.Context, id int64) (bool, error)
	DeleteProduct(ctx context.Context, id int64) error
	TopProducts(ctx context.Context, rng model.DateRange, limit int) ([]model.ProductSales, error)
}

// MaxTopSellingLimit ограничивает размер выборки самых продаваемых товаров.
const MaxTopSellingLimit = 100

// Catalog управляет категориями и товарами.
type Catalog struct {
	repo   CatalogRepository
	blobs  BlobStore
	logger *zap.Logger
}

// NewCatalog создаёт сервис каталога.
func NewCatalog(repo CatalogRepository, blobs BlobStore, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{repo: repo, blobs: blobs, logger: logger}
}

// ListCategories возвращает категории, при activeOnly только активные.
func (c *Catalog) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	return c.repo.ListCategories(ctx, activeOnly)
}

// GetCategory возвращает категорию по идентификатору.
func (c *Catalog) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	return c.repo.GetCategory(ctx, id)
}

// CreateCategory создаёт категорию. Имя должно быть уникальным.
func (c *Catalog) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", model.ErrValidation)
	}
	return c.repo.CreateCategory(ctx, name)
}

// UpdateCategory меняет имя и активность категории.
// Категорию нельзя отключить, пока в ней есть активные товары.
func (c *Catalog) UpdateCategory(ctx context.Context, id int64, name string, active bool) (*model.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: category name is required", model.ErrValidation)
	}

	cat, err := c.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	if cat.Active && !active {
		n, err := c.repo.CountCategoryProducts(ctx, id, true)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			return nil, fmt.Errorf("%w: category has %d active products", model.ErrInvalidState, n)
		}
	}

	cat.Name = name
	cat.Active = active
	if err := c.repo.UpdateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

// RenameCategory меняет имя категории, сохраняя её активность.
func (c *Catalog) RenameCategory(ctx context.Context, id int64, name string) (*model.Category, error) {
	cat, err := c.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.UpdateCategory(ctx, id, name, cat.Active)
}

// ToggleCategory включает или отключает категорию.
func (c *Catalog) ToggleCategory(ctx context.Context, id int64) (*model.Category, error) {
	cat, err := c.repo.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.UpdateCategory(ctx, id, cat.Name, !cat.Active)
}

// DeleteCategory удаляет категорию. Категория с товарами только отключается.
func (c *Catalog) DeleteCategory(ctx context.Context, id int64) error {
	cat, err := c.repo.GetCategory(ctx, id)
	if err != nil {
		return err
	}

	n, err := c.repo.CountCategoryProducts(ctx, id, false)
	if err != nil {
		return err
	}
	if n == 0 {
		return c.repo.DeleteCategory(ctx, id)
	}

	active, err := c.repo.CountCategoryProducts(ctx, id, true)
	if err != nil {
		return err
	}
	if active > 0 {
		return fmt.Errorf("%w: category has %d active products", model.ErrInvalidState, active)
	}

	cat.Active = false
	return c.repo.UpdateCategory(ctx, cat)
}

// ListProducts возвращает товары по фильтру.
func (c *Catalog) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	f.Name = strings.TrimSpace(f.Name)
	return c.repo.ListProducts(ctx, f)
}

// GetProduct возвращает товар по идентификатору.
func (c *Catalog) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	return c.repo.GetProduct(ctx, id)
}

// CreateProduct создаёт товар в активной категории.
func (c *Catalog) CreateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	if err := c.checkProduct(ctx, &p); err != nil {
		return nil, err
	}
	p.Active = true
	if err := c.repo.CreateProduct(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProduct обновляет данные товара. Изображение меняется отдельно.
func (c *Catalog) UpdateProduct(ctx context.Context, p model.Product) (*model.Product, error) {
	current, err := c.repo.GetProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	if err := c.checkProduct(ctx, &p); err != nil {
		return nil, err
	}

	p.ImageURL = current.ImageURL
	p.Active = current.Active
	if err := c.repo.UpdateProduct(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetProductActive включает или отключает товар. Включить можно только товар активной категории.
func (c *Catalog) SetProductActive(ctx context.Context, id int64, active bool) (*model.Product, error) {
	p, err := c.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Active == active {
		return p, nil
	}

	if active {
		cat, err := c.repo.GetCategory(ctx, p.CategoryID)
		if err != nil {
			return nil, err
		}
		if !cat.Active {
			return nil, fmt.Errorf("%w: category %d is inactive", model.ErrInvalidState, cat.ID)
		}
	}

	p.Active = active
	if err := c.repo.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (c *Catalog) checkProduct(ctx context.Context, p *model.Product) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	if p.Name == "" {
		return fmt.Errorf("%w: product name is required", model.ErrValidation)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: product price must be positive", model.ErrValidation)
	}

	cat, err := c.repo.GetCategory(ctx, p.CategoryID)
	if err != nil {
		return err
	}
	if !cat.Active {
		return fmt.Errorf("%w: category %d is inactive", model.ErrInvalidState, cat.ID)
	}
	return nil
}

// DeleteProduct удаляет товар. Товар, который уже заказывали, только отключается,
// чтобы сохранить историю заказов.
func (c *Catalog) DeleteProduct(ctx context.Context, id int64) error {
	p, err := c.repo.GetProduct(ctx, id)
	if err != nil {
		return err
	}

	ordered, err := c.repo.ProductHasOrders(ctx, id)
	if err != nil {
		return err
	}
	if ordered {
		p.Active = false
		return c.repo.UpdateProduct(ctx, p)
	}

	if err := c.repo.DeleteProduct(ctx, id); err != nil {
		return err
	}
	if p.ImageURL != nil {
		c.removeBlob(ctx, *p.ImageURL)
	}
	return nil
}

// UploadProductImage сохраняет новое изображение товара и удаляет прежнее.
func (c *Catalog) UploadProductImage(ctx context.Context, id int64, data []byte, contentType string) (*model.Product, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: image file is empty", model.ErrValidation)
	}

	p, err := c.repo.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := c.blobs.Store(ctx, data, contentType, productImageNamespace)
	if err != nil {
		return nil, fmt.Errorf("%w: store product image: %v", model.ErrStorage, err)
	}

	old := p.ImageURL
	p.ImageURL = &url
	if err := c.repo.UpdateProduct(ctx, p); err != nil {
		c.removeBlob(ctx, url)
		return nil, err
	}

	if old != nil && *old != url {
		c.removeBlob(ctx, *old)
	}
	return p, nil
}

// TopSellingProducts возвращает товары с наибольшим проданным количеством за интервал.
// Отменённые заказы не учитываются.
func (c *Catalog) TopSellingProducts(ctx context.Context, rng model.DateRange, limit int) ([]model.ProductSales, error) {
	if rng.Start.After(rng.End) {
		return nil, fmt.Errorf("%w: range start is after its end", model.ErrValidation)
	}
	if limit < 1 || limit > MaxTopSellingLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", model.ErrValidation, MaxTopSellingLimit)
	}
	return c.repo.TopProducts(ctx, rng, limit)
}

func (c *Catalog) removeBlob(ctx context.Context, url string) {
	if err := c.blobs.Delete(ctx, url); err != nil {
		c.logger.Warn("failed to remove stored file", zap.String("url", url), zap.Error(err))
	}
}
