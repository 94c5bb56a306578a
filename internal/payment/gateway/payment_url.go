package gateway

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

const timeLayout = "20060102150405"

// PaymentRequest holds everything that goes into one signed payment
// initiation redirect.
type PaymentRequest struct {
	OrderID   int64
	Nonce     string
	AmountVND int64
	OrderInfo string
	IPAddr    string
	ReturnURL string
	CreatedAt time.Time
	ExpiresAt time.Time
}

// TxnRef formats the "{orderID}_{nonce}" reference embedded in the redirect
// and echoed back by every callback.
func (r PaymentRequest) TxnRef() string {
	return fmt.Sprintf("%d_%s", r.OrderID, r.Nonce)
}

// BuildPaymentURL assembles and signs the gateway redirect. The expiry is
// part of the signed payload; the gateway enforces it, we do not.
func (s *Signer) BuildPaymentURL(baseURL, merchantCode string, req PaymentRequest) string {
	params := url.Values{}
	params.Set(ParamVersion, "2.1.0")
	params.Set(ParamCommand, "pay")
	params.Set(ParamMerchantCode, merchantCode)
	params.Set(ParamAmount, strconv.FormatInt(req.AmountVND*100, 10))
	params.Set(ParamCurrCode, "VND")
	params.Set(ParamTxnRef, req.TxnRef())
	params.Set(ParamOrderInfo, req.OrderInfo)
	params.Set(ParamOrderType, "other")
	params.Set(ParamLocale, "vn")
	params.Set(ParamIPAddr, req.IPAddr)
	params.Set(ParamReturnURL, req.ReturnURL)
	params.Set(ParamCreateDate, req.CreatedAt.Format(timeLayout))
	params.Set(ParamExpireDate, req.ExpiresAt.Format(timeLayout))

	params.Set(ParamSecureHash, s.Sign(params))
	return baseURL + "?" + params.Encode()
}
