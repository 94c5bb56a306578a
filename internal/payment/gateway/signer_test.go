package gateway

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "JXOQAPTRROGLEWVLDVFDXCRAMRGSRJMI"

func callbackParams() url.Values {
	p := url.Values{}
	p.Set(ParamMerchantCode, "FASHOP01")
	p.Set(ParamTxnRef, "42_a81f3c")
	p.Set(ParamAmount, "50000000")
	p.Set(ParamResponseCode, "00")
	p.Set(ParamTransactionStatus, "00")
	p.Set(ParamTransactionNo, "14422574")
	p.Set(ParamBankCode, "NCB")
	return p
}

func TestNewSignerEmptySecret(t *testing.T) {
	_, err := NewSigner("")
	assert.ErrorIs(t, err, ErrEmptySecret)
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	p := callbackParams()
	p.Set(ParamSecureHash, s.Sign(p))
	assert.True(t, s.Verify(p))
}

func TestVerifyIsCaseInsensitive(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	p := callbackParams()
	p.Set(ParamSecureHash, strings.ToUpper(s.Sign(p)))
	assert.True(t, s.Verify(p))
}

func TestVerifyOrderIndependent(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	p := callbackParams()
	sig := s.Sign(p)

	// Rebuild the set inserting keys in reverse order; canonicalization
	// must make the insertion order invisible.
	reordered := url.Values{}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	for i := len(keys) - 1; i >= 0; i-- {
		reordered.Set(keys[i], p.Get(keys[i]))
	}
	reordered.Set(ParamSecureHash, sig)
	assert.True(t, s.Verify(reordered))
}

func TestVerifyRejectsAnySingleCharacterFlip(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	p := callbackParams()
	p.Set(ParamSecureHash, s.Sign(p))

	for key := range p {
		tampered := url.Values{}
		for k, vs := range p {
			for _, v := range vs {
				tampered.Add(k, v)
			}
		}
		v := tampered.Get(key)
		flipped := "X" + v[1:]
		if flipped == v {
			flipped = "Y" + v[1:]
		}
		tampered.Set(key, flipped)
		assert.False(t, s.Verify(tampered), "tampered field %s still verified", key)
	}
}

func TestVerifyRejectsInjectedParameter(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	p := callbackParams()
	p.Set(ParamSecureHash, s.Sign(p))
	p.Set("vnp_CardType", "ATM")
	assert.False(t, s.Verify(p))
}

func TestVerifyRejectsEmptySet(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	assert.False(t, s.Verify(url.Values{}))

	onlyHash := url.Values{}
	onlyHash.Set(ParamSecureHash, s.Sign(url.Values{}))
	assert.False(t, s.Verify(onlyHash))
}

func TestHashTypeFieldExcludedFromSigning(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	p := callbackParams()
	sig := s.Sign(p)
	p.Set(ParamSecureHashType, "HMACSHA512")
	assert.Equal(t, sig, s.Sign(p))
}

func TestBuildPaymentURLVerifiesWithSameSigner(t *testing.T) {
	s, err := NewSigner(testSecret)
	require.NoError(t, err)

	req := PaymentRequest{
		OrderID:   42,
		Nonce:     "a81f3c",
		AmountVND: 500_000,
		OrderInfo: "Thanh toan don hang FS-42",
		IPAddr:    "203.0.113.9",
		ReturnURL: "https://shop.example.com/payments/vnpay/return",
	}
	raw := s.BuildPaymentURL("https://sandbox.vnpayment.vn/paymentv2/vpcpay.html", "FASHOP01", req)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	params := u.Query()
	assert.Equal(t, "42_a81f3c", params.Get(ParamTxnRef))
	assert.Equal(t, "50000000", params.Get(ParamAmount))
	assert.True(t, s.Verify(params))
}
