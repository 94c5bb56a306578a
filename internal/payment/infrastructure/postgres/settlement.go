package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	invpg "github.com/fashopdev/fashop/internal/inventory/postgres"
	orderdomain "github.com/fashopdev/fashop/internal/order/domain"
	"github.com/fashopdev/fashop/internal/payment/application"
	"github.com/fashopdev/fashop/internal/payment/domain"
	"github.com/fashopdev/fashop/pkg/tracing"
)

// SettlementStore applies reconciliation outcomes. Each Apply method is one
// transaction: the order row is locked first, so concurrent deliveries of
// the same callback serialize here and the loser sees a non-PENDING status.
type SettlementStore struct {
	log   *slog.Logger
	pool  *pgxpool.Pool
	stock *invpg.Adjuster
}

func NewSettlementStore(log *slog.Logger, pool *pgxpool.Pool, stock *invpg.Adjuster) *SettlementStore {
	return &SettlementStore{log: log, pool: pool, stock: stock}
}

func (s *SettlementStore) ApplySuccess(ctx context.Context, in application.Settlement) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := lockPending(ctx, tx, in.Order.ID); err != nil {
		return err
	}

	for _, item := range in.Order.Items {
		if err := s.stock.DecrementTx(ctx, tx, item.ProductID, item.Size, item.Quantity); err != nil {
			if errors.Is(err, invpg.ErrUnderflow) {
				return domain.ErrStockUnderflow
			}
			return err
		}
	}

	now := time.Now().UTC()
	_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
		in.Order.ID, orderdomain.StatusProcessing, now)
	if err != nil {
		return err
	}

	if err := insertAttempt(ctx, tx, in, domain.AttemptVerified, &now); err != nil {
		return err
	}
	if err := appendLog(ctx, tx, domain.ActionPaymentVerified, in); err != nil {
		return err
	}

	payload, err := json.Marshal(domain.PaymentConfirmed{
		OrderID:   in.Order.ID,
		OrderCode: in.Order.Code,
		AmountVND: in.Order.TotalVND,
		Email:     in.Order.Email,
		TxnRef:    in.Callback.TxnRef,
	})
	if err != nil {
		return err
	}
	if err := insertOutbox(ctx, tx, in.Order.Code, domain.EventPaymentConfirmed, payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *SettlementStore) ApplyFailure(ctx context.Context, in application.Settlement) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	if err := lockPending(ctx, tx, in.Order.ID); err != nil {
		return err
	}

	// Nothing was ever decremented for an unconfirmed payment, so stock is
	// left alone here.
	_, err = tx.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`,
		in.Order.ID, orderdomain.StatusCancelled, time.Now().UTC())
	if err != nil {
		return err
	}

	if err := insertAttempt(ctx, tx, in, domain.AttemptFailed, nil); err != nil {
		return err
	}
	if err := appendLog(ctx, tx, domain.ActionPaymentFailed, in); err != nil {
		return err
	}

	payload, err := json.Marshal(domain.PaymentRejected{
		OrderID:   in.Order.ID,
		OrderCode: in.Order.Code,
		Email:     in.Order.Email,
		Reason:    in.Callback.ResponseCode,
	})
	if err != nil {
		return err
	}
	if err := insertOutbox(ctx, tx, in.Order.Code, domain.EventPaymentRejected, payload); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// lockPending takes the row lock and re-checks the idempotency gate inside
// the transaction. The pre-check in the reconciler is only an optimization;
// this one is authoritative.
func lockPending(ctx context.Context, tx pgx.Tx, orderID int64) error {
	var current orderdomain.Status
	err := tx.QueryRow(ctx, `SELECT status FROM orders WHERE id=$1 FOR UPDATE`, orderID).Scan(&current)
	if errors.Is(err, pgx.ErrNoRows) {
		return orderdomain.ErrOrderNotFound
	}
	if err != nil {
		return err
	}
	if current != orderdomain.StatusPending {
		return domain.ErrAlreadySettled
	}
	return nil
}

func insertAttempt(ctx context.Context, tx pgx.Tx, in application.Settlement, status domain.AttemptStatus, verifiedAt *time.Time) error {
	_, err := tx.Exec(ctx, `INSERT INTO payment_attempts
		(order_id, amount_vnd, txn_ref, bank_code, status, verified_at, note, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		in.Order.ID, in.Order.TotalVND, in.Callback.TxnRef, in.Callback.BankCode,
		status, verifiedAt, "gateway response "+in.Callback.ResponseCode, time.Now().UTC())
	return err
}

func appendLog(ctx context.Context, tx pgx.Tx, action string, in application.Settlement) error {
	_, err := tx.Exec(ctx, `INSERT INTO payment_logs (action, actor, order_id, txn_ref, created_at)
		VALUES ($1,$2,$3,$4,$5)`,
		action, domain.ActorGateway, in.Order.ID, in.Callback.TxnRef, time.Now().UTC())
	return err
}

// insertOutbox persists the notification event in the settlement
// transaction, carrying the current trace context so the relay and the
// notification consumer join the same trace.
func insertOutbox(ctx context.Context, tx pgx.Tx, aggregateID, eventType string, payload []byte) error {
	_, err := tx.Exec(ctx, `INSERT INTO outbox (aggregate_type, aggregate_id, type, payload, traceparent, status)
		VALUES ($1,$2,$3,$4,$5,'pending')`,
		"payment", aggregateID, eventType, payload, tracing.Traceparent(ctx))
	return err
}

// Attempts returns the audit trail of settlement attempts for one order,
// newest first.
func (s *SettlementStore) Attempts(ctx context.Context, orderID int64) ([]domain.Attempt, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, order_id, amount_vnd, txn_ref, bank_code, status, verified_at, note, created_at
		FROM payment_attempts WHERE order_id=$1 ORDER BY id DESC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attempts []domain.Attempt
	for rows.Next() {
		var a domain.Attempt
		if err := rows.Scan(&a.ID, &a.OrderID, &a.AmountVND, &a.TxnRef, &a.BankCode, &a.Status, &a.VerifiedAt, &a.Note, &a.CreatedAt); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
