package application

import (
	"context"

	orderdomain "github.com/fashopdev/fashop/internal/order/domain"
	"github.com/fashopdev/fashop/internal/payment/gateway"
)

type OrderStore interface {
	GetByID(ctx context.Context, id int64) (orderdomain.Order, error)
}

// Settlement carries one verified callback and the order it applies to into
// the settlement transaction.
type Settlement struct {
	Order    orderdomain.Order
	Callback gateway.Callback
}

// SettlementStore applies a settlement outcome in a single transaction:
// guarded status write, stock adjustment, payment attempt, audit log, and
// the outbox notification row all commit together or not at all.
type SettlementStore interface {
	ApplySuccess(ctx context.Context, s Settlement) error
	ApplyFailure(ctx context.Context, s Settlement) error
}

// TokenStore persists payment-initiation nonces with the payment expiry as
// TTL. Replaces the in-process token maps the checkout flow used to carry.
// GetDel consumes: the nonce is gone after the first read.
type TokenStore interface {
	Put(ctx context.Context, orderID int64, nonce string) error
	GetDel(ctx context.Context, orderID int64) (string, error)
}
