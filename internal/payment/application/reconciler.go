package application

import (
	"context"
	"errors"
	"log/slog"
	"net/url"

	orderdomain "github.com/fashopdev/fashop/internal/order/domain"
	"github.com/fashopdev/fashop/internal/payment/domain"
	"github.com/fashopdev/fashop/internal/payment/gateway"
)

// Reconciler matches gateway callbacks to orders and applies the financial
// transition exactly once. Safe under concurrent invocation for the same
// order: the settlement store serializes on the order row, and the loser of
// a race observes a non-PENDING status and resolves as a duplicate.
type Reconciler struct {
	log    *slog.Logger
	signer *gateway.Signer
	orders OrderStore
	settle SettlementStore
	tokens TokenStore
}

func NewReconciler(log *slog.Logger, signer *gateway.Signer, orders OrderStore, settle SettlementStore, tokens TokenStore) *Reconciler {
	return &Reconciler{log: log, signer: signer, orders: orders, settle: settle, tokens: tokens}
}

// Reconcile runs the full callback pipeline. It never returns an error;
// every failure mode is a structured outcome so nothing bubbles to the HTTP
// layer as a 5xx the gateway would retry against.
func (r *Reconciler) Reconcile(ctx context.Context, params url.Values) domain.Result {
	if !r.signer.Verify(params) {
		r.log.Warn("callback signature rejected", "txn_ref", params.Get(gateway.ParamTxnRef))
		return domain.Result{Outcome: domain.OutcomeInvalidSignature}
	}

	cb, err := gateway.ParseCallback(params)
	if err != nil {
		r.log.Warn("callback reference malformed", "txn_ref", params.Get(gateway.ParamTxnRef), "err", err)
		return domain.Result{Outcome: domain.OutcomeMalformedRef}
	}

	ord, err := r.orders.GetByID(ctx, cb.OrderID)
	if errors.Is(err, orderdomain.ErrOrderNotFound) {
		r.log.Warn("callback for unknown order", "order_id", cb.OrderID, "txn_ref", cb.TxnRef)
		return domain.Result{Outcome: domain.OutcomeOrderNotFound, OrderID: cb.OrderID}
	}
	if err != nil {
		r.log.Error("order load failed", "order_id", cb.OrderID, "err", err)
		return domain.Result{Outcome: domain.OutcomeInternalError, OrderID: cb.OrderID}
	}

	res := domain.Result{OrderID: ord.ID, OrderCode: ord.Code}

	// Idempotency gate: anything past PENDING means this callback (or a
	// concurrent twin) was already applied. Duplicates must ack as success
	// or the gateway retries forever.
	if ord.Status != orderdomain.StatusPending {
		r.log.Info("duplicate callback ignored", "order_id", ord.ID, "status", ord.Status, "txn_ref", cb.TxnRef)
		res.Outcome = domain.OutcomeDuplicate
		return res
	}

	// Nonce consume: the initiation token matches at most one settlement.
	// The signature is the authority, so an absent or errored token read
	// only loses freshness, never blocks a legitimate callback.
	if stored, terr := r.tokens.GetDel(ctx, ord.ID); terr != nil {
		r.log.Error("payment token read failed", "order_id", ord.ID, "err", terr)
	} else if stored != "" && stored != cb.Nonce {
		r.log.Warn("callback nonce does not match issued token", "order_id", ord.ID, "txn_ref", cb.TxnRef)
		res.Outcome = domain.OutcomeMalformedRef
		return res
	}

	s := Settlement{Order: ord, Callback: cb}
	if cb.Success() {
		// The declared amount only gates the success path: a failed
		// payment with a garbled echo must still cancel the order.
		if !cb.MatchesTotal(ord.TotalVND) {
			r.log.Warn("callback amount mismatch", "order_id", ord.ID, "declared_minor", cb.AmountMinor, "total_vnd", ord.TotalVND)
			res.Outcome = domain.OutcomeAmountMismatch
			return res
		}
		err = r.settle.ApplySuccess(ctx, s)
	} else {
		err = r.settle.ApplyFailure(ctx, s)
	}

	switch {
	case errors.Is(err, domain.ErrAlreadySettled):
		// Lost the race against a concurrent delivery of the same callback.
		r.log.Info("duplicate callback ignored", "order_id", ord.ID, "txn_ref", cb.TxnRef)
		res.Outcome = domain.OutcomeDuplicate
	case errors.Is(err, domain.ErrStockUnderflow):
		r.log.Error("stock underflow during settlement", "order_id", ord.ID, "txn_ref", cb.TxnRef)
		res.Outcome = domain.OutcomeInternalError
	case err != nil:
		r.log.Error("settlement apply failed", "order_id", ord.ID, "err", err)
		res.Outcome = domain.OutcomeInternalError
	case cb.Success():
		r.log.Info("payment reconciled", "order_id", ord.ID, "txn_ref", cb.TxnRef, "amount_vnd", ord.TotalVND)
		res.Outcome = domain.OutcomeApplied
	default:
		r.log.Info("payment failed, order cancelled", "order_id", ord.ID, "txn_ref", cb.TxnRef, "response_code", cb.ResponseCode)
		res.Outcome = domain.OutcomeFailedPayment
	}
	return res
}
