package gateway

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTxnRef(t *testing.T) {
	cases := []struct {
		ref    string
		id     int64
		nonce  string
		hasErr bool
	}{
		{"42_a81f3c", 42, "a81f3c", false},
		{"7_x", 7, "x", false},
		{"42", 0, "", true},
		{"_a81f3c", 0, "", true},
		{"abc_def", 0, "", true},
		{"-1_x", 0, "", true},
		{"0_x", 0, "", true},
		{"", 0, "", true},
	}
	for _, tc := range cases {
		id, nonce, err := ParseTxnRef(tc.ref)
		if tc.hasErr {
			assert.ErrorIs(t, err, ErrMalformedTxnRef, "ref %q", tc.ref)
		} else {
			assert.NoError(t, err, "ref %q", tc.ref)
			assert.Equal(t, tc.id, id)
			assert.Equal(t, tc.nonce, nonce)
		}
	}
}

func TestParseCallback(t *testing.T) {
	p := url.Values{}
	p.Set(ParamTxnRef, "42_a81f3c")
	p.Set(ParamAmount, "50000000")
	p.Set(ParamResponseCode, "00")
	p.Set(ParamTransactionStatus, "00")
	p.Set(ParamBankCode, "NCB")

	cb, err := ParseCallback(p)
	assert.NoError(t, err)
	assert.Equal(t, int64(42), cb.OrderID)
	assert.Equal(t, "a81f3c", cb.Nonce)
	assert.Equal(t, int64(50_000_000), cb.AmountMinor)
	assert.True(t, cb.Success())
	assert.True(t, cb.MatchesTotal(500_000))
	assert.False(t, cb.MatchesTotal(500_001))
}

func TestParseCallbackRejectsBadAmount(t *testing.T) {
	p := url.Values{}
	p.Set(ParamTxnRef, "42_a81f3c")
	p.Set(ParamAmount, "50.5")

	_, err := ParseCallback(p)
	assert.Error(t, err)
}

func TestCallbackFailureCodes(t *testing.T) {
	cb := Callback{ResponseCode: "24"}
	assert.False(t, cb.Success())

	// Settled response code but pending transaction status is not success.
	cb = Callback{ResponseCode: "00", TransactionStatus: "02"}
	assert.False(t, cb.Success())
}
