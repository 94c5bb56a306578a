package domain

import (
	"errors"
	"time"
)

type AttemptStatus string

const (
	AttemptPending  AttemptStatus = "PENDING"
	AttemptVerified AttemptStatus = "VERIFIED"
	AttemptFailed   AttemptStatus = "FAILED"
	AttemptCanceled AttemptStatus = "CANCELED"
)

// ErrAlreadySettled means the order left PENDING before this settlement
// could apply; the callback is a duplicate or late arrival, not a fault.
var ErrAlreadySettled = errors.New("order already settled")

// ErrStockUnderflow is a data-integrity fault: a decrement would go
// negative, which means a duplicate application slipped past the
// idempotency gate.
var ErrStockUnderflow = errors.New("stock underflow")

// Attempt records one settlement attempt against an order. An order may
// accumulate several (retried checkout), but at most one may ever be
// VERIFIED.
type Attempt struct {
	ID         int64
	OrderID    int64
	AmountVND  int64
	TxnRef     string
	BankCode   string
	Status     AttemptStatus
	VerifiedAt *time.Time
	Note       string
	CreatedAt  time.Time
}

// LogEntry is an append-only audit row, one per state-changing action.
// Never updated or deleted.
type LogEntry struct {
	ID      int64
	Action  string
	Actor   string
	OrderID int64
	TxnRef  string
	At      time.Time
}

const (
	ActorGateway = "gateway"

	ActionPaymentVerified = "payment_verified"
	ActionPaymentFailed   = "payment_failed"
	ActionOrderCancelled  = "order_cancelled"
)
