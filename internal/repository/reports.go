package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

// filterSQL собирает условия по интервалу и статусу. Плейсхолдеры нумеруются после args.
func filterSQL(rng *model.DateRange, f model.StatusFilter, args []any) (string, []any) {
	where := " WHERE TRUE"
	if rng != nil {
		args = append(args, rng.Start, rng.End)
		where += fmt.Sprintf(" AND created_at BETWEEN $%d AND $%d", len(args)-1, len(args))
	}
	if !f.IsZero() {
		op := "="
		if f.Exclude {
			op = "<>"
		}
		args = append(args, string(f.Status))
		where += fmt.Sprintf(" AND status %s $%d", op, len(args))
	}
	return where, args
}

// SumSales возвращает сумму заказов. Пустая выборка даёт ноль.
func (r *PostgresRepository) SumSales(ctx context.Context, rng *model.DateRange, f model.StatusFilter) (decimal.Decimal, error) {
	where, args := filterSQL(rng, f, nil)

	var sum decimal.Decimal
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(total), 0) FROM orders`+where, args...).Scan(&sum)
	})
	if err != nil {
		return decimal.Zero, mapError("sum sales", err)
	}
	return sum, nil
}

// CountOrders возвращает количество заказов.
func (r *PostgresRepository) CountOrders(ctx context.Context, rng *model.DateRange, f model.StatusFilter) (int64, error) {
	where, args := filterSQL(rng, f, nil)

	var n int64
	err := r.withRetry(ctx, func() error {
		return r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders`+where, args...).Scan(&n)
	})
	if err != nil {
		return 0, mapError("count orders", err)
	}
	return n, nil
}

// collectRows выполняет запрос с повторами и собирает строки результата.
// Результат собирается заново на каждой попытке.
func collectRows[T any](
	ctx context.Context,
	r *PostgresRepository,
	query func() (pgx.Rows, error),
	scan func(pgx.Rows) (T, error),
) ([]T, error) {
	var res []T
	err := r.withRetry(ctx, func() error {
		res = nil

		rows, err := query()
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			v, err := scan(rows)
			if err != nil {
				return fmt.Errorf("scan: %w", err)
			}
			res = append(res, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

// SalesByMonth возвращает суммы заказов по календарным месяцам в хронологическом порядке.
func (r *PostgresRepository) SalesByMonth(ctx context.Context, rng model.DateRange, f model.StatusFilter) ([]model.MonthlyAmount, error) {
	where, args := filterSQL(&rng, f, []any{r.tz})

	res, err := collectRows(ctx, r,
		func() (pgx.Rows, error) {
			return r.pool.Query(ctx,
				`SELECT EXTRACT(YEAR FROM created_at AT TIME ZONE $1)::int AS y,
				        EXTRACT(MONTH FROM created_at AT TIME ZONE $1)::int AS m,
				        COALESCE(SUM(total), 0)
				 FROM orders`+where+`
				 GROUP BY y, m
				 ORDER BY y, m`,
				args...,
			)
		},
		func(rows pgx.Rows) (model.MonthlyAmount, error) {
			var m model.MonthlyAmount
			err := rows.Scan(&m.Year, &m.Month, &m.Amount)
			return m, err
		},
	)
	if err != nil {
		return nil, mapError("sales by month", err)
	}
	return res, nil
}

// OrdersByMonth возвращает количество заказов по календарным месяцам в хронологическом порядке.
func (r *PostgresRepository) OrdersByMonth(ctx context.Context, rng model.DateRange, f model.StatusFilter) ([]model.MonthlyCount, error) {
	where, args := filterSQL(&rng, f, []any{r.tz})

	res, err := collectRows(ctx, r,
		func() (pgx.Rows, error) {
			return r.pool.Query(ctx,
				`SELECT EXTRACT(YEAR FROM created_at AT TIME ZONE $1)::int AS y,
				        EXTRACT(MONTH FROM created_at AT TIME ZONE $1)::int AS m,
				        COUNT(*)
				 FROM orders`+where+`
				 GROUP BY y, m
				 ORDER BY y, m`,
				args...,
			)
		},
		func(rows pgx.Rows) (model.MonthlyCount, error) {
			var m model.MonthlyCount
			err := rows.Scan(&m.Year, &m.Month, &m.Count)
			return m, err
		},
	)
	if err != nil {
		return nil, mapError("orders by month", err)
	}
	return res, nil
}

// CountByStatus возвращает распределение заказов интервала по статусам.
func (r *PostgresRepository) CountByStatus(ctx context.Context, rng model.DateRange) ([]model.StatusCount, error) {
	res, err := collectRows(ctx, r,
		func() (pgx.Rows, error) {
			return r.pool.Query(ctx,
				`SELECT status, COUNT(*)
				 FROM orders
				 WHERE created_at BETWEEN $1 AND $2
				 GROUP BY status
				 ORDER BY status`,
				rng.Start, rng.End,
			)
		},
		func(rows pgx.Rows) (model.StatusCount, error) {
			var sc model.StatusCount
			err := rows.Scan(&sc.Status, &sc.Count)
			return sc, err
		},
	)
	if err != nil {
		return nil, mapError("count by status", err)
	}
	return res, nil
}

// TopProducts возвращает товары с наибольшим проданным количеством без учёта отменённых заказов.
// При равенстве количества первым идёт товар с меньшим идентификатором.
func (r *PostgresRepository) TopProducts(ctx context.Context, rng model.DateRange, limit int) ([]model.ProductSales, error) {
	res, err := collectRows(ctx, r,
		func() (pgx.Rows, error) {
			return r.pool.Query(ctx,
				`SELECT p.id, p.name, SUM(l.quantity)::bigint AS qty, p.price
				 FROM order_lines l
				 JOIN orders o ON o.id = l.order_id
				 JOIN products p ON p.id = l.product_id
				 WHERE o.created_at BETWEEN $1 AND $2 AND o.status <> $3
				 GROUP BY p.id, p.name, p.price
				 ORDER BY qty DESC, p.id ASC
				 LIMIT $4`,
				rng.Start, rng.End, string(model.OrderStatusCancelled), limit,
			)
		},
		func(rows pgx.Rows) (model.ProductSales, error) {
			var ps model.ProductSales
			err := rows.Scan(&ps.ProductID, &ps.Name, &ps.Quantity, &ps.Price)
			return ps, err
		},
	)
	if err != nil {
		return nil, mapError("top products", err)
	}
	return res, nil
}

// TopCustomers возвращает клиентов с наибольшей суммой покупок за интервал.
func (r *PostgresRepository) TopCustomers(ctx context.Context, rng model.DateRange, limit int) ([]model.CustomerSales, error) {
	res, err := collectRows(ctx, r,
		func() (pgx.Rows, error) {
			return r.pool.Query(ctx,
				`SELECT customer_name, customer_phone, COUNT(*) AS cnt, COALESCE(SUM(total), 0) AS spent
				 FROM orders
				 WHERE created_at BETWEEN $1 AND $2
				 GROUP BY customer_name, customer_phone
				 ORDER BY spent DESC, cnt DESC, customer_name, customer_phone
				 LIMIT $3`,
				rng.Start, rng.End, limit,
			)
		},
		func(rows pgx.Rows) (model.CustomerSales, error) {
			var cs model.CustomerSales
			err := rows.Scan(&cs.Name, &cs.Phone, &cs.Orders, &cs.Total)
			return cs, err
		},
	)
	if err != nil {
		return nil, mapError("top customers", err)
	}
	return res, nil
}
