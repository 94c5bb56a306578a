package gateway

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
)

var ErrMalformedTxnRef = errors.New("malformed transaction reference")

// Callback is the parsed view of one gateway notification. The raw
// parameter set stays with the caller; this only lifts the fields the
// reconciliation core branches on.
type Callback struct {
	TxnRef            string
	OrderID           int64
	Nonce             string
	AmountMinor       int64 // VND x100, as transmitted on the wire
	ResponseCode      string
	TransactionStatus string
	TransactionNo     string
	BankCode          string
}

// ParseTxnRef splits an "{orderID}_{nonce}" reference. Both halves must be
// present and the id must be a positive integer.
func ParseTxnRef(ref string) (int64, string, error) {
	id, nonce, ok := strings.Cut(ref, "_")
	if !ok || id == "" {
		return 0, "", ErrMalformedTxnRef
	}
	orderID, err := strconv.ParseInt(id, 10, 64)
	if err != nil || orderID <= 0 {
		return 0, "", ErrMalformedTxnRef
	}
	return orderID, nonce, nil
}

func ParseCallback(params url.Values) (Callback, error) {
	ref := params.Get(ParamTxnRef)
	orderID, nonce, err := ParseTxnRef(ref)
	if err != nil {
		return Callback{}, err
	}
	amount, err := strconv.ParseInt(params.Get(ParamAmount), 10, 64)
	if err != nil || amount < 0 {
		return Callback{}, ErrMalformedTxnRef
	}
	return Callback{
		TxnRef:            ref,
		OrderID:           orderID,
		Nonce:             nonce,
		AmountMinor:       amount,
		ResponseCode:      params.Get(ParamResponseCode),
		TransactionStatus: params.Get(ParamTransactionStatus),
		TransactionNo:     params.Get(ParamTransactionNo),
		BankCode:          params.Get(ParamBankCode),
	}, nil
}

// Success reports whether the gateway settled the payment. Both the
// response code and the transaction status must agree.
func (c Callback) Success() bool {
	return c.ResponseCode == ResponseCodeSuccess &&
		(c.TransactionStatus == "" || c.TransactionStatus == ResponseCodeSuccess)
}

// MatchesTotal compares the declared minor-unit amount against an order
// total in whole VND. Integer arithmetic only; float comparison here would
// invite rounding false-mismatches.
func (c Callback) MatchesTotal(totalVND int64) bool {
	return c.AmountMinor == totalVND*100
}
