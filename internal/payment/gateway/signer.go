package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"net/url"
	"strings"
)

// Gateway parameter names, as they appear on the wire.
const (
	ParamAmount            = "vnp_Amount"
	ParamBankCode          = "vnp_BankCode"
	ParamCommand           = "vnp_Command"
	ParamCreateDate        = "vnp_CreateDate"
	ParamCurrCode          = "vnp_CurrCode"
	ParamExpireDate        = "vnp_ExpireDate"
	ParamIPAddr            = "vnp_IpAddr"
	ParamLocale            = "vnp_Locale"
	ParamMerchantCode      = "vnp_TmnCode"
	ParamOrderInfo         = "vnp_OrderInfo"
	ParamOrderType         = "vnp_OrderType"
	ParamResponseCode      = "vnp_ResponseCode"
	ParamReturnURL         = "vnp_ReturnUrl"
	ParamSecureHash        = "vnp_SecureHash"
	ParamSecureHashType    = "vnp_SecureHashType"
	ParamTransactionNo     = "vnp_TransactionNo"
	ParamTransactionStatus = "vnp_TransactionStatus"
	ParamTxnRef            = "vnp_TxnRef"
	ParamVersion           = "vnp_Version"
)

// ResponseCodeSuccess is the gateway's settled-successfully outcome code.
const ResponseCodeSuccess = "00"

var ErrEmptySecret = errors.New("gateway secret must not be empty")

// Signer computes and checks the keyed hash the gateway requires over
// callback and redirect parameters. The same canonicalization is used in
// both directions; any drift between signing and verifying breaks
// interoperability.
type Signer struct {
	secret []byte
}

// NewSigner fails closed on an empty secret rather than degrading to
// unsigned traffic.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}
	return &Signer{secret: []byte(secret)}, nil
}

// Sign canonicalizes params and returns the lowercase hex HMAC-SHA512.
// The signature fields themselves and empty values are excluded;
// url.Values.Encode sorts keys lexicographically and percent-encodes
// exactly as the gateway's reference implementation does.
func (s *Signer) Sign(params url.Values) string {
	canon := url.Values{}
	for key, vals := range params {
		if key == ParamSecureHash || key == ParamSecureHashType {
			continue
		}
		for _, v := range vals {
			if v == "" {
				continue
			}
			canon.Add(key, v)
		}
	}
	mac := hmac.New(sha512.New, s.secret)
	mac.Write([]byte(canon.Encode()))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify recomputes the signature over params and compares it against the
// supplied vnp_SecureHash, constant-time and case-insensitive. An empty
// parameter set or a missing signature never verifies.
func (s *Signer) Verify(params url.Values) bool {
	supplied := params.Get(ParamSecureHash)
	if supplied == "" {
		return false
	}
	rest := 0
	for key := range params {
		if key != ParamSecureHash && key != ParamSecureHashType {
			rest++
		}
	}
	if rest == 0 {
		return false
	}
	want := s.Sign(params)
	return hmac.Equal([]byte(want), []byte(strings.ToLower(supplied)))
}
