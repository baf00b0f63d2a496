package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/pedidos-system/internal/model"
)

func TestFilterSQL(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	rng := &model.DateRange{Start: start, End: end}

	tests := []struct {
		name      string
		rng       *model.DateRange
		filter    model.StatusFilter
		prefix    []any
		wantWhere string
		wantArgs  []any
	}{
		{
			name:      "no conditions",
			wantWhere: " WHERE TRUE",
		},
		{
			name:      "range only",
			rng:       rng,
			wantWhere: " WHERE TRUE AND created_at BETWEEN $1 AND $2",
			wantArgs:  []any{start, end},
		},
		{
			name:      "range with exclusion after prefix",
			rng:       rng,
			filter:    model.ExceptStatus(model.OrderStatusCancelled),
			prefix:    []any{"America/Guatemala"},
			wantWhere: " WHERE TRUE AND created_at BETWEEN $2 AND $3 AND status <> $4",
			wantArgs:  []any{"America/Guatemala", start, end, "cancelado"},
		},
		{
			name:      "status only",
			filter:    model.OnlyStatus(model.OrderStatusPending),
			wantWhere: " WHERE TRUE AND status = $1",
			wantArgs:  []any{"pendiente"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			where, args := filterSQL(tt.rng, tt.filter, tt.prefix)
			assert.Equal(t, tt.wantWhere, where)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", pgx.ErrNoRows, model.ErrNotFound},
		{"unique", &pgconn.PgError{Code: pgerrcode.UniqueViolation}, model.ErrInvalidState},
		{"foreign key", &pgconn.PgError{Code: pgerrcode.ForeignKeyViolation}, model.ErrNotFound},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, model.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := mapError("op", fmt.Errorf("wrapped: %w", tt.err))
			assert.ErrorIs(t, err, tt.want)
		})
	}

	plain := errors.New("boom")
	assert.ErrorIs(t, mapError("op", plain), plain)
}

func TestWithRetry(t *testing.T) {
	r := &PostgresRepository{}
	ctx := context.Background()

	calls := 0
	err := r.withRetry(ctx, func() error {
		calls++
		if calls < 2 {
			return &pgconn.PgError{Code: pgerrcode.SerializationFailure}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	calls = 0
	permanent := errors.New("syntax error")
	err = r.withRetry(ctx, func() error {
		calls++
		return permanent
	})
	assert.ErrorIs(t, err, permanent)
	assert.Equal(t, 1, calls)
}

// fakeRows отдаёт заранее заданные значения и ошибку после последней строки.
type fakeRows struct {
	values []int64
	pos    int
	err    error
	closed bool
}

func (f *fakeRows) Close()                                       { f.closed = true }
func (f *fakeRows) Err() error                                   { return f.err }
func (f *fakeRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (f *fakeRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (f *fakeRows) RawValues() [][]byte                          { return nil }
func (f *fakeRows) Conn() *pgx.Conn                              { return nil }

func (f *fakeRows) Next() bool {
	if f.pos >= len(f.values) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeRows) Scan(dest ...any) error {
	*dest[0].(*int64) = f.values[f.pos-1]
	return nil
}

func (f *fakeRows) Values() ([]any, error) {
	return []any{f.values[f.pos-1]}, nil
}

func scanInt(rows pgx.Rows) (int64, error) {
	var v int64
	err := rows.Scan(&v)
	return v, err
}

func TestCollectRowsRetries(t *testing.T) {
	r := &PostgresRepository{}
	ctx := context.Background()

	t.Run("query error is retried", func(t *testing.T) {
		calls := 0
		res, err := collectRows(ctx, r, func() (pgx.Rows, error) {
			calls++
			if calls == 1 {
				return nil, &pgconn.PgError{Code: pgerrcode.SerializationFailure}
			}
			return &fakeRows{values: []int64{3, 5}}, nil
		}, scanInt)

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Equal(t, []int64{3, 5}, res)
	})

	t.Run("interrupted iteration starts over", func(t *testing.T) {
		var attempts []*fakeRows
		res, err := collectRows(ctx, r, func() (pgx.Rows, error) {
			rows := &fakeRows{values: []int64{1, 2}}
			if len(attempts) == 0 {
				rows.err = &pgconn.PgError{Code: pgerrcode.DeadlockDetected}
			}
			attempts = append(attempts, rows)
			return rows, nil
		}, scanInt)

		require.NoError(t, err)
		require.Len(t, attempts, 2)
		assert.True(t, attempts[0].closed)
		assert.Equal(t, []int64{1, 2}, res)
	})

	t.Run("permanent error is returned once", func(t *testing.T) {
		calls := 0
		permanent := errors.New("syntax error")
		_, err := collectRows(ctx, r, func() (pgx.Rows, error) {
			calls++
			return nil, permanent
		}, scanInt)

		assert.ErrorIs(t, err, permanent)
		assert.Equal(t, 1, calls)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% de descuento\_`, escapeLike("50% de descuento_"))
}
