package postgres

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fashopdev/fashop/internal/inventory/domain"
)

// ErrUnderflow means a decrement would drive a counter negative. That is a
// consistency fault, not a retryable condition: it indicates a duplicate
// decrement slipped past the idempotency gate.
var ErrUnderflow = errors.New("stock underflow")

// ErrUnitNotFound covers both a missing row and a deactivated unit: either
// way no sellable counter exists for the product/size pair.
var ErrUnitNotFound = errors.New("stock unit not found")

// Adjuster mutates stock counters. The Tx variants operate on a
// caller-supplied transaction so the settlement store can commit stock and
// order status in one unit.
type Adjuster struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

func NewAdjuster(log *slog.Logger, pool *pgxpool.Pool) *Adjuster {
	return &Adjuster{log: log, pool: pool}
}

// DecrementTx subtracts qty from one unit's counter. The row is locked and
// inspected first so the failure modes stay distinguishable: a missing or
// inactive unit is ErrUnitNotFound, an insufficient counter is
// ErrUnderflow. The caller is expected to abort the transaction on either.
func (a *Adjuster) DecrementTx(ctx context.Context, tx pgx.Tx, productID int64, size string, qty int) error {
	var quantity int
	var active bool
	err := tx.QueryRow(ctx, `SELECT quantity, active FROM stock_units WHERE product_id=$1 AND size=$2 FOR UPDATE`,
		productID, size).Scan(&quantity, &active)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrUnitNotFound
	}
	if err != nil {
		return err
	}
	if !active {
		return ErrUnitNotFound
	}
	if quantity < qty {
		a.log.Error("stock underflow", "product_id", productID, "size", size, "have", quantity, "want", qty)
		return ErrUnderflow
	}
	_, err = tx.Exec(ctx, `UPDATE stock_units SET quantity = quantity - $3 WHERE product_id=$1 AND size=$2`,
		productID, size, qty)
	return err
}

// RestoreTx is the inverse of DecrementTx, used when a paid order is later
// cancelled administratively.
func (a *Adjuster) RestoreTx(ctx context.Context, tx pgx.Tx, productID int64, size string, qty int) error {
	ct, err := tx.Exec(ctx, `UPDATE stock_units SET quantity = quantity + $3 WHERE product_id=$1 AND size=$2`,
		productID, size, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrUnitNotFound
	}
	return nil
}

func (a *Adjuster) Get(ctx context.Context, productID int64, size string) (domain.StockUnit, error) {
	var u domain.StockUnit
	err := a.pool.QueryRow(ctx, `SELECT product_id, size, quantity, active FROM stock_units WHERE product_id=$1 AND size=$2`,
		productID, size).Scan(&u.ProductID, &u.Size, &u.Quantity, &u.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.StockUnit{}, ErrUnitNotFound
	}
	if err != nil {
		return domain.StockUnit{}, err
	}
	return u, nil
}
