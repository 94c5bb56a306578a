package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fashopdev/fashop/internal/order/domain"
)

type Repository struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewRepository(log *slog.Logger, pool *pgxpool.Pool) *Repository {
	return &Repository{log: log, pool: pool}
}

func (r *Repository) Create(ctx context.Context, o domain.Order) (domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return domain.Order{}, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx, `INSERT INTO orders
		(code, user_id, email, subtotal_vnd, discount_vnd, discount_code, total_vnd, shipping_address, phone, payment_method, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id`,
		o.Code, o.UserID, o.Email, o.SubtotalVND, o.DiscountVND, o.DiscountCode, o.TotalVND,
		o.ShippingAddress, o.Phone, o.PaymentMethod, o.Status, o.CreatedAt, o.UpdatedAt).Scan(&o.ID)
	if err != nil {
		return domain.Order{}, err
	}

	batch := &pgx.Batch{}
	for _, item := range o.Items {
		batch.Queue(`INSERT INTO order_items (order_id, product_id, size, quantity, unit_price_vnd)
			VALUES ($1,$2,$3,$4,$5)`,
			o.ID, item.ProductID, item.Size, item.Quantity, item.UnitPriceVND)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return domain.Order{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Order{}, err
	}
	return o, nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (domain.Order, error) {
	return r.get(ctx, `WHERE id=$1`, id)
}

func (r *Repository) GetByCode(ctx context.Context, code string) (domain.Order, error) {
	return r.get(ctx, `WHERE code=$1`, code)
}

func (r *Repository) get(ctx context.Context, where string, arg any) (domain.Order, error) {
	var o domain.Order
	err := r.pool.QueryRow(ctx, `SELECT id, code, user_id, email, subtotal_vnd, discount_vnd, discount_code, total_vnd,
			shipping_address, phone, payment_method, status, created_at, updated_at
		FROM orders `+where, arg).
		Scan(&o.ID, &o.Code, &o.UserID, &o.Email, &o.SubtotalVND, &o.DiscountVND, &o.DiscountCode, &o.TotalVND,
			&o.ShippingAddress, &o.Phone, &o.PaymentMethod, &o.Status, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := r.pool.Query(ctx, `SELECT product_id, size, quantity, unit_price_vnd FROM order_items WHERE order_id=$1 ORDER BY id`, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Size, &it.Quantity, &it.UnitPriceVND); err != nil {
			return domain.Order{}, err
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// UpdateStatus performs the guarded transition: the current status is read
// under a row lock, the precondition asserted, then written. A concurrent
// administrative edit and a gateway callback cannot both apply to a stale
// read.
func (r *Repository) UpdateStatus(ctx context.Context, id int64, from, to domain.Status) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var current domain.Status
	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, id).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if current != from || !domain.CanTransition(current, to) {
		return &domain.TransitionError{Current: current, Target: to}
	}

	_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`, id, to, time.Now().UTC())
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}
