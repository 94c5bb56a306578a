package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fashopdev/fashop/internal/discount"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) GetByCode(ctx context.Context, code string) (discount.Code, error) {
	var c discount.Code
	err := r.pool.QueryRow(ctx, `SELECT code, kind, value, max_discount_vnd, min_order_vnd, max_usage, usage_count, active, starts_at, ends_at
		FROM discount_codes WHERE code=$1`, code).
		Scan(&c.Code, &c.Kind, &c.Value, &c.MaxDiscountVND, &c.MinOrderVND, &c.MaxUsage, &c.UsageCount, &c.Active, &c.StartsAt, &c.EndsAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return discount.Code{}, discount.ErrCodeNotFound
	}
	if err != nil {
		return discount.Code{}, err
	}
	return c, nil
}

func (r *Repository) IncrementUsage(ctx context.Context, code string) error {
	_, err := r.pool.Exec(ctx, `UPDATE discount_codes SET usage_count = usage_count + 1 WHERE code=$1`, code)
	return err
}
