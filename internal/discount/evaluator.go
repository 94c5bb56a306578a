package discount

import (
	"errors"
	"time"
)

type Kind string

const (
	KindPercentage  Kind = "PERCENTAGE"
	KindFixedAmount Kind = "FIXED_AMOUNT"
)

// Rejection reasons are kept distinct for user-facing messaging.
var (
	ErrCodeNotFound      = errors.New("CODE_NOT_FOUND")
	ErrCodeExpired       = errors.New("CODE_EXPIRED")
	ErrCodeNotStarted    = errors.New("CODE_NOT_STARTED")
	ErrUsageLimitReached = errors.New("USAGE_LIMIT_REACHED")
	ErrOrderTooSmall     = errors.New("ORDER_TOO_SMALL")
)

type Code struct {
	Code           string
	Kind           Kind
	Value          int64 // percent for PERCENTAGE, VND for FIXED_AMOUNT
	MaxDiscountVND int64 // 0 = uncapped
	MinOrderVND    int64
	MaxUsage       int64 // 0 = unlimited
	UsageCount     int64
	Active         bool
	StartsAt       time.Time
	EndsAt         time.Time
}

// Evaluate computes the discount a code grants against a subtotal. It is a
// pure function of its arguments; callers pass the clock in.
func Evaluate(c Code, subtotalVND int64, now time.Time) (int64, error) {
	if !c.Active {
		return 0, ErrCodeNotFound
	}
	if now.Before(c.StartsAt) {
		return 0, ErrCodeNotStarted
	}
	if !now.Before(c.EndsAt) {
		return 0, ErrCodeExpired
	}
	if c.MaxUsage > 0 && c.UsageCount >= c.MaxUsage {
		return 0, ErrUsageLimitReached
	}
	if subtotalVND < c.MinOrderVND {
		return 0, ErrOrderTooSmall
	}

	var amount int64
	switch c.Kind {
	case KindPercentage:
		amount = subtotalVND * c.Value / 100
		if c.MaxDiscountVND > 0 && amount > c.MaxDiscountVND {
			amount = c.MaxDiscountVND
		}
	case KindFixedAmount:
		amount = c.Value
	}
	if amount > subtotalVND {
		amount = subtotalVND
	}
	return amount, nil
}
