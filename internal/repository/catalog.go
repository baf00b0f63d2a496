package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

const productColumns = `id, name, description, price, category_id, image_url, active`

// ListCategories возвращает категории по имени, при activeOnly только активные.
func (r *PostgresRepository) ListCategories(ctx context.Context, activeOnly bool) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, active FROM categories WHERE active OR NOT $1 ORDER BY name`,
		activeOnly,
	)
	if err != nil {
		return nil, mapError("select categories", err)
	}
	defer rows.Close()

	var res []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Active); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

// GetCategory возвращает категорию по идентификатору.
func (r *PostgresRepository) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	var c model.Category
	err := r.pool.QueryRow(ctx, `SELECT id, name, active FROM categories WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Active)
	if err != nil {
		return nil, mapError(fmt.Sprintf("get category %d", id), err)
	}
	return &c, nil
}

// CreateCategory создаёт активную категорию.
func (r *PostgresRepository) CreateCategory(ctx context.Context, name string) (*model.Category, error) {
	c := model.Category{Name: name, Active: true}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, active) VALUES ($1, TRUE) RETURNING id`,
		name,
	).Scan(&c.ID)
	if err != nil {
		return nil, mapError("create category", err)
	}
	return &c, nil
}

// UpdateCategory сохраняет имя и активность категории.
func (r *PostgresRepository) UpdateCategory(ctx context.Context, c *model.Category) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $2, active = $3 WHERE id = $1`,
		c.ID, c.Name, c.Active,
	)
	if err != nil {
		return mapError("update category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category %d", model.ErrNotFound, c.ID)
	}
	return nil
}

// CountCategoryProducts считает товары категории, при activeOnly только активные.
func (r *PostgresRepository) CountCategoryProducts(ctx context.Context, id int64, activeOnly bool) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE category_id = $1 AND (active OR NOT $2)`,
		id, activeOnly,
	).Scan(&n)
	if err != nil {
		return 0, mapError("count category products", err)
	}
	return n, nil
}

// DeleteCategory удаляет категорию.
func (r *PostgresRepository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapError("delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: category %d", model.ErrNotFound, id)
	}
	return nil
}

// ListProducts возвращает товары по фильтру, упорядоченные по имени.
func (r *PostgresRepository) ListProducts(ctx context.Context, f model.ProductFilter) ([]model.Product, error) {
	var (
		conds []string
		args  []any
	)
	if f.ActiveOnly {
		conds = append(conds, "active")
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		conds = append(conds, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.Name != "" {
		args = append(args, "%"+escapeLike(f.Name)+"%")
		conds = append(conds, fmt.Sprintf("name ILIKE $%d", len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY name, id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError("select products", err)
	}
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		res = append(res, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// GetProduct возвращает товар по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		return nil, mapError(fmt.Sprintf("get product %d", id), err)
	}
	return p, nil
}

// CreateProduct сохраняет товар и заполняет его идентификатор.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p *model.Product) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (name, description, price, category_id, image_url, active)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		p.Name, p.Description, p.Price, p.CategoryID, p.ImageURL, p.Active,
	).Scan(&p.ID)
	if err != nil {
		return mapError("create product", err)
	}
	return nil
}

// UpdateProduct сохраняет все поля товара.
func (r *PostgresRepository) UpdateProduct(ctx context.Context, p *model.Product) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE products
		 SET name = $2, description = $3, price = $4, category_id = $5, image_url = $6, active = $7
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.CategoryID, p.ImageURL, p.Active,
	)
	if err != nil {
		return mapError("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", model.ErrNotFound, p.ID)
	}
	return nil
}

// ProductHasOrders сообщает, что товар встречается в заказах.
func (r *PostgresRepository) ProductHasOrders(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM order_lines WHERE product_id = $1)`,
		id,
	).Scan(&exists)
	if err != nil {
		return false, mapError("check product orders", err)
	}
	return exists, nil
}

// DeleteProduct удаляет товар.
func (r *PostgresRepository) DeleteProduct(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return mapError("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: product %d", model.ErrNotFound, id)
	}
	return nil
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var p model.Product
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.CategoryID, &p.ImageURL, &p.Active); err != nil {
		return nil, err
	}
	return &p, nil
}
