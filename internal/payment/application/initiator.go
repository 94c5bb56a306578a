package application

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	orderdomain "github.com/fashopdev/fashop/internal/order/domain"
	"github.com/fashopdev/fashop/internal/payment/gateway"
)

var ErrOrderNotPayable = errors.New("order is not awaiting payment")

// Initiator builds signed payment redirects for pending orders and
// persists the nonce so each redirect is traceable back to one attempt.
type Initiator struct {
	log          *slog.Logger
	signer       *gateway.Signer
	orders       OrderStore
	tokens       TokenStore
	baseURL      string
	merchantCode string
	returnURL    string
	expiry       time.Duration
}

func NewInitiator(log *slog.Logger, signer *gateway.Signer, orders OrderStore, tokens TokenStore, baseURL, merchantCode, returnURL string, expiry time.Duration) *Initiator {
	return &Initiator{
		log:          log,
		signer:       signer,
		orders:       orders,
		tokens:       tokens,
		baseURL:      baseURL,
		merchantCode: merchantCode,
		returnURL:    returnURL,
		expiry:       expiry,
	}
}

func (i *Initiator) PaymentURL(ctx context.Context, orderID int64, clientIP string) (string, error) {
	ord, err := i.orders.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if ord.Status != orderdomain.StatusPending {
		return "", ErrOrderNotPayable
	}

	nonce, err := newNonce()
	if err != nil {
		return "", err
	}
	if err := i.tokens.Put(ctx, ord.ID, nonce); err != nil {
		return "", err
	}

	now := time.Now().UTC()
	req := gateway.PaymentRequest{
		OrderID:   ord.ID,
		Nonce:     nonce,
		AmountVND: ord.TotalVND,
		OrderInfo: fmt.Sprintf("Thanh toan don hang %s", ord.Code),
		IPAddr:    clientIP,
		ReturnURL: i.returnURL,
		CreatedAt: now,
		ExpiresAt: now.Add(i.expiry),
	}
	i.log.Info("payment url issued", "order_id", ord.ID, "txn_ref", req.TxnRef(), "amount_vnd", ord.TotalVND)
	return i.signer.BuildPaymentURL(i.baseURL, i.merchantCode, req), nil
}

func newNonce() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
