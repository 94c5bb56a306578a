package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"strings"
	"time"

	"github.com/fashopdev/fashop/internal/discount"
	"github.com/fashopdev/fashop/internal/order/domain"
)

type Service struct {
	log   *slog.Logger
	repo  OrderRepository
	codes DiscountCodes
}

func NewService(log *slog.Logger, repo OrderRepository, codes DiscountCodes) *Service {
	return &Service{log: log, repo: repo, codes: codes}
}

type PlaceOrderInput struct {
	UserID          *int64
	Email           string
	Items           []domain.OrderItem
	DiscountCode    string
	ShippingAddress string
	Phone           string
	PaymentMethod   string
}

// PlaceOrder creates a PENDING order, evaluating and snapshotting any
// discount code. The discount value is copied onto the order so later edits
// to the code never change what was granted.
func (s *Service) PlaceOrder(ctx context.Context, in PlaceOrderInput) (domain.Order, error) {
	var subtotal int64
	for _, it := range in.Items {
		subtotal += int64(it.Quantity) * it.UnitPriceVND
	}

	var discountVND int64
	if in.DiscountCode != "" {
		code, err := s.codes.GetByCode(ctx, in.DiscountCode)
		if err != nil {
			return domain.Order{}, err
		}
		discountVND, err = discount.Evaluate(code, subtotal, time.Now().UTC())
		if err != nil {
			return domain.Order{}, err
		}
	}

	o := domain.NewOrder(newOrderCode(), in.UserID, in.Email, in.Items, in.DiscountCode, discountVND)
	o.ShippingAddress = in.ShippingAddress
	o.Phone = in.Phone
	o.PaymentMethod = in.PaymentMethod

	created, err := s.repo.Create(ctx, o)
	if err != nil {
		return domain.Order{}, err
	}
	if in.DiscountCode != "" {
		if err := s.codes.IncrementUsage(ctx, in.DiscountCode); err != nil {
			s.log.Error("discount usage increment failed", "code", in.DiscountCode, "err", err)
		}
	}
	s.log.Info("order placed", "order_id", created.ID, "code", created.Code, "total_vnd", created.TotalVND)
	return created, nil
}

// Transition applies an administrative status change through the same
// guarded write the reconciliation path uses.
func (s *Service) Transition(ctx context.Context, id int64, from, to domain.Status) error {
	if !domain.CanTransition(from, to) {
		return &domain.TransitionError{Current: from, Target: to}
	}
	return s.repo.UpdateStatus(ctx, id, from, to)
}

func (s *Service) Get(ctx context.Context, id int64) (domain.Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByCode(ctx context.Context, code string) (domain.Order, error) {
	return s.repo.GetByCode(ctx, code)
}

func newOrderCode() string {
	b := make([]byte, 4)
	_, _ = rand.Read(b)
	return "FS-" + strings.ToUpper(hex.EncodeToString(b))
}
