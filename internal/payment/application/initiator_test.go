package application

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderdomain "github.com/fashopdev/fashop/internal/order/domain"
	"github.com/fashopdev/fashop/internal/payment/gateway"
)

type fakeTokens struct {
	mu     sync.Mutex
	stored map[int64]string
	err    error
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{stored: map[int64]string{}}
}

func (f *fakeTokens) Put(_ context.Context, orderID int64, nonce string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[orderID] = nonce
	return nil
}

func (f *fakeTokens) GetDel(_ context.Context, orderID int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	v := f.stored[orderID]
	delete(f.stored, orderID)
	return v, nil
}

func (f *fakeTokens) get(orderID int64) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stored[orderID]
}

func TestPaymentURLForPendingOrder(t *testing.T) {
	signer, err := gateway.NewSigner(testSecret)
	require.NoError(t, err)
	store := newFakeStore(pendingOrder())
	tokens := newFakeTokens()
	init := NewInitiator(slog.New(slog.DiscardHandler), signer, store, tokens,
		"https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", "FASHOP01",
		"https://shop.example.com/payments/vnpay/return", 15*time.Minute)

	raw, err := init.PaymentURL(context.Background(), 42, "203.0.113.9")
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	params := u.Query()

	assert.True(t, signer.Verify(params))
	assert.Equal(t, "50000000", params.Get(gateway.ParamAmount))
	assert.NotEmpty(t, params.Get(gateway.ParamExpireDate))

	orderID, nonce, err := gateway.ParseTxnRef(params.Get(gateway.ParamTxnRef))
	require.NoError(t, err)
	assert.Equal(t, int64(42), orderID)
	assert.Equal(t, nonce, tokens.get(42), "persisted nonce must match the reference")
}

func TestPaymentURLRejectsSettledOrder(t *testing.T) {
	signer, err := gateway.NewSigner(testSecret)
	require.NoError(t, err)
	o := pendingOrder()
	o.Status = orderdomain.StatusProcessing
	store := newFakeStore(o)
	init := NewInitiator(slog.New(slog.DiscardHandler), signer, store, newFakeTokens(),
		"https://example.com/pay", "FASHOP01", "https://example.com/return", 15*time.Minute)

	_, err = init.PaymentURL(context.Background(), 42, "203.0.113.9")
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}
