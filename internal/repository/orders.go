package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

const orderColumns = `id, customer_name, customer_phone, address, delivery_mode, delivery_surcharge,
	payment_mode, receipt_url, total, status, created_at, user_id`

// UserExists проверяет, что пользователь существует.
func (r *PostgresRepository) UserExists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, mapError("check user", err)
	}
	return exists, nil
}

// GetProductsByIDs возвращает товары по списку идентификаторов. Отсутствующие товары пропускаются.
func (r *PostgresRepository) GetProductsByIDs(ctx context.Context, ids []int64) (map[int64]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, mapError("select products", err)
	}
	defer rows.Close()

	res := make(map[int64]model.Product, len(ids))
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		res[p.ID] = *p
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateOrder сохраняет заказ вместе с позициями в одной транзакции.
// Заполняет идентификатор и время создания заказа.
func (r *PostgresRepository) CreateOrder(ctx context.Context, o *model.Order) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO orders (customer_name, customer_phone, address, delivery_mode, delivery_surcharge,
		                     payment_mode, total, status, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		o.CustomerName, o.CustomerPhone, o.Address, string(o.DeliveryMode), o.DeliverySurcharge,
		string(o.PaymentMode), o.Total, string(o.Status), o.UserID,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return mapError("insert order", err)
	}

	batch := &pgx.Batch{}
	for _, l := range o.Lines {
		batch.Queue(
			`INSERT INTO order_lines (order_id, product_id, quantity, notes, unit_price, seq)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			o.ID, l.ProductID, l.Quantity, l.Notes, l.UnitPrice, l.Seq,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return mapError("insert order lines", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetOrder возвращает заказ с позициями.
func (r *PostgresRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	orders, err := r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: order %d", model.ErrNotFound, id)
	}
	return &orders[0], nil
}

// ListOrders возвращает заказы от новых к старым, при необходимости только с указанным статусом.
func (r *PostgresRepository) ListOrders(ctx context.Context, status *model.OrderStatus) ([]model.Order, error) {
	if status == nil {
		return r.queryOrders(ctx, `SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC`)
	}
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE status = $1 ORDER BY created_at DESC, id DESC`,
		string(*status),
	)
}

// ListOrdersByUser возвращает заказы пользователя от новых к старым.
func (r *PostgresRepository) ListOrdersByUser(ctx context.Context, userID int64) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE user_id = $1 ORDER BY created_at DESC, id DESC`,
		userID,
	)
}

// ListOrdersInRange возвращает заказы, созданные в интервале включительно.
func (r *PostgresRepository) ListOrdersInRange(ctx context.Context, rng model.DateRange) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE created_at BETWEEN $1 AND $2 ORDER BY created_at DESC, id DESC`,
		rng.Start, rng.End,
	)
}

// RecentOrders возвращает последние limit заказов.
func (r *PostgresRepository) RecentOrders(ctx context.Context, limit int) ([]model.Order, error) {
	return r.queryOrders(ctx,
		`SELECT `+orderColumns+` FROM orders ORDER BY created_at DESC, id DESC LIMIT $1`,
		limit,
	)
}

// UpdateOrderStatus меняет статус заказа.
func (r *PostgresRepository) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE orders SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return mapError("update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", model.ErrNotFound, id)
	}
	return nil
}

// SetOrderReceipt сохраняет адрес чека и статус заказа.
func (r *PostgresRepository) SetOrderReceipt(ctx context.Context, id int64, url string, status model.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET receipt_url = $2, status = $3 WHERE id = $1`,
		id, url, string(status),
	)
	if err != nil {
		return mapError("update order receipt", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d", model.ErrNotFound, id)
	}
	return nil
}

func (r *PostgresRepository) queryOrders(ctx context.Context, query string, args ...any) ([]model.Order, error) {
	var orders []model.Order

	err := r.withRetry(ctx, func() error {
		orders = orders[:0]

		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return fmt.Errorf("scan order: %w", err)
			}
			orders = append(orders, *o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, mapError("select orders", err)
	}

	if err := r.attachLines(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *PostgresRepository) attachLines(ctx context.Context, orders []model.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]int64, len(orders))
	index := make(map[int64]int, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		index[o.ID] = i
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.order_id, l.product_id, p.name, l.quantity, l.notes, l.unit_price, l.seq
		 FROM order_lines l
		 JOIN products p ON p.id = l.product_id
		 WHERE l.order_id = ANY($1)
		 ORDER BY l.order_id, l.seq`,
		ids,
	)
	if err != nil {
		return mapError("select order lines", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID int64
			l       model.OrderLine
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.Notes, &l.UnitPrice, &l.Seq); err != nil {
			return fmt.Errorf("scan order line: %w", err)
		}
		i := index[orderID]
		orders[i].Lines = append(orders[i].Lines, l)
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("rows error: %w", err)
	}
	return nil
}

func scanOrder(row pgx.Row) (*model.Order, error) {
	var (
		o            model.Order
		deliveryMode string
		paymentMode  string
		status       string
	)
	err := row.Scan(&o.ID, &o.CustomerName, &o.CustomerPhone, &o.Address, &deliveryMode, &o.DeliverySurcharge,
		&paymentMode, &o.ReceiptURL, &o.Total, &status, &o.CreatedAt, &o.UserID)
	if err != nil {
		return nil, err
	}
	o.DeliveryMode = model.DeliveryMode(deliveryMode)
	o.PaymentMode = model.PaymentMode(paymentMode)
	o.Status = model.OrderStatus(status)
	return &o, nil
}
