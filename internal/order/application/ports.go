package application

import (
	"context"

	"github.com/fashopdev/fashop/internal/discount"
	"github.com/fashopdev/fashop/internal/order/domain"
)

type OrderRepository interface {
	Create(ctx context.Context, o domain.Order) (domain.Order, error)
	GetByID(ctx context.Context, id int64) (domain.Order, error)
	GetByCode(ctx context.Context, code string) (domain.Order, error)
	// UpdateStatus is the guarded write shared by administrative edits and
	// the payment-driven transition: read under lock, assert precondition,
	// write.
	UpdateStatus(ctx context.Context, id int64, from, to domain.Status) error
}

type DiscountCodes interface {
	GetByCode(ctx context.Context, code string) (discount.Code, error)
	IncrementUsage(ctx context.Context, code string) error
}
