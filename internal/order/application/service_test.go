package application

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fashopdev/fashop/internal/discount"
	"github.com/fashopdev/fashop/internal/order/domain"
)

type fakeRepo struct {
	orders map[int64]domain.Order
	nextID int64
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[int64]domain.Order{}, nextID: 1}
}

func (r *fakeRepo) Create(_ context.Context, o domain.Order) (domain.Order, error) {
	o.ID = r.nextID
	r.nextID++
	r.orders[o.ID] = o
	return o, nil
}

func (r *fakeRepo) GetByID(_ context.Context, id int64) (domain.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return o, nil
}

func (r *fakeRepo) GetByCode(_ context.Context, code string) (domain.Order, error) {
	for _, o := range r.orders {
		if o.Code == code {
			return o, nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id int64, from, to domain.Status) error {
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if o.Status != from || !domain.CanTransition(o.Status, to) {
		return &domain.TransitionError{Current: o.Status, Target: to}
	}
	o.Status = to
	r.orders[id] = o
	return nil
}

type fakeCodes struct {
	codes      map[string]discount.Code
	increments int
}

func (c *fakeCodes) GetByCode(_ context.Context, code string) (discount.Code, error) {
	dc, ok := c.codes[code]
	if !ok {
		return discount.Code{}, discount.ErrCodeNotFound
	}
	return dc, nil
}

func (c *fakeCodes) IncrementUsage(context.Context, string) error {
	c.increments++
	return nil
}

func testService(repo *fakeRepo, codes *fakeCodes) *Service {
	return NewService(slog.New(slog.DiscardHandler), repo, codes)
}

func TestPlaceOrderWithDiscount(t *testing.T) {
	repo := newFakeRepo()
	codes := &fakeCodes{codes: map[string]discount.Code{
		"SALE10": {
			Code: "SALE10", Kind: discount.KindPercentage, Value: 10,
			MaxDiscountVND: 50_000, Active: true,
			StartsAt: time.Now().Add(-time.Hour), EndsAt: time.Now().Add(time.Hour),
		},
	}}
	svc := testService(repo, codes)

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Email:        "khach@example.com",
		Items:        []domain.OrderItem{{ProductID: 1, Size: "M", Quantity: 2, UnitPriceVND: 500_000}},
		DiscountCode: "SALE10",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1_000_000), o.SubtotalVND)
	assert.Equal(t, int64(50_000), o.DiscountVND, "10% capped at 50000")
	assert.Equal(t, int64(950_000), o.TotalVND)
	assert.Equal(t, "SALE10", o.DiscountCode)
	assert.Equal(t, domain.StatusPending, o.Status)
	assert.Equal(t, 1, codes.increments)
	assert.NotEmpty(t, o.Code)
}

func TestPlaceOrderRejectedCodeFailsOrder(t *testing.T) {
	repo := newFakeRepo()
	codes := &fakeCodes{codes: map[string]discount.Code{}}
	svc := testService(repo, codes)

	_, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items:        []domain.OrderItem{{ProductID: 1, Size: "M", Quantity: 1, UnitPriceVND: 100_000}},
		DiscountCode: "NOPE",
	})
	assert.ErrorIs(t, err, discount.ErrCodeNotFound)
	assert.Empty(t, repo.orders)
}

func TestTransitionGuards(t *testing.T) {
	repo := newFakeRepo()
	svc := testService(repo, &fakeCodes{})

	o, err := svc.PlaceOrder(context.Background(), PlaceOrderInput{
		Items: []domain.OrderItem{{ProductID: 1, Size: "M", Quantity: 1, UnitPriceVND: 100_000}},
	})
	require.NoError(t, err)

	// PENDING -> SHIPPED skips PROCESSING and must be rejected.
	err = svc.Transition(context.Background(), o.ID, domain.StatusPending, domain.StatusShipped)
	var te *domain.TransitionError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusPending, te.Current)

	// Stale precondition: caller believes PROCESSING but the row is PENDING.
	err = svc.Transition(context.Background(), o.ID, domain.StatusProcessing, domain.StatusShipped)
	require.ErrorAs(t, err, &te)

	require.NoError(t, svc.Transition(context.Background(), o.ID, domain.StatusPending, domain.StatusCancelled))

	// Terminal state: no further edges.
	err = svc.Transition(context.Background(), o.ID, domain.StatusCancelled, domain.StatusPending)
	require.ErrorAs(t, err, &te)
	assert.Equal(t, domain.StatusCancelled, te.Current)
}
