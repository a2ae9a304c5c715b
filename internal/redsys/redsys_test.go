package redsys

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Public Redsys integration-test key.
const testSecretKey = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"

func testClient() *Client {
	return &Client{
		MerchantCode: "999008881",
		Terminal:     "001",
		MerchantName: "Total Keepers",
		SecretKey:    testSecretKey,
		MerchantURL:  "https://shop.example.com/api/v1/payments/redsys-callback",
		Sandbox:      true,
	}
}

func encodeNotification(t *testing.T, n Notification) (params, sig string) {
	t.Helper()
	raw, err := json.Marshal(n)
	require.NoError(t, err)
	params = base64.URLEncoding.EncodeToString(raw)

	mac, err := sign(testSecretKey, n.Order, params)
	require.NoError(t, err)
	return params, base64.URLEncoding.EncodeToString(mac)
}

func TestPrepareRequest(t *testing.T) {
	form, err := testClient().PrepareRequest(
		"250831001022",
		decimal.RequireFromString("45.00"),
		"Order 2508",
		"https://shop.example.com/payment/success",
		"https://shop.example.com/payment/failure",
	)
	require.NoError(t, err)

	assert.Equal(t, SandboxURL, form.URL)
	assert.Equal(t, SignatureVersion, form.SignatureVersion)
	assert.NotEmpty(t, form.Signature)

	raw, err := base64.StdEncoding.DecodeString(form.MerchantParameters)
	require.NoError(t, err)

	var params MerchantParameters
	require.NoError(t, json.Unmarshal(raw, &params))
	assert.Equal(t, "4500", params.Amount)
	assert.Equal(t, "250831001022", params.Order)
	assert.Equal(t, CurrencyEUR, params.Currency)
	assert.Equal(t, "999008881", params.MerchantCode)

	ok, err := VerifySignature(testSecretKey, params.Order, form.MerchantParameters, form.Signature)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParseNotification(t *testing.T) {
	params, sig := encodeNotification(t, Notification{
		Order:             "250831001022",
		Response:          "0000",
		Amount:            "4500",
		Currency:          "978",
		AuthorisationCode: "123456",
	})

	notif, err := testClient().ParseNotification(params, sig)
	require.NoError(t, err)
	assert.Equal(t, "250831001022", notif.Order)
	assert.Equal(t, "0000", notif.Response)
}

func TestParseNotification_TamperedSignature(t *testing.T) {
	params, sig := encodeNotification(t, Notification{Order: "250831001022", Response: "0000"})

	raw, err := base64.URLEncoding.DecodeString(sig)
	require.NoError(t, err)
	raw[0] ^= 0x01
	tampered := base64.URLEncoding.EncodeToString(raw)

	_, err = testClient().ParseNotification(params, tampered)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseNotification_TamperedParameters(t *testing.T) {
	params, sig := encodeNotification(t, Notification{Order: "250831001022", Response: "0180"})

	forged, _ := encodeNotification(t, Notification{Order: "250831001022", Response: "0000"})

	// Original signature over different parameters must not verify.
	_, err := testClient().ParseNotification(forged, sig)
	assert.ErrorIs(t, err, ErrInvalidSignature)

	_, err = testClient().ParseNotification(params, sig)
	assert.NoError(t, err)
}

func TestParseNotification_Malformed(t *testing.T) {
	c := testClient()

	_, err := c.ParseNotification("", "sig")
	assert.ErrorIs(t, err, ErrMalformedNotification)

	_, err = c.ParseNotification("not-base64!!!", "sig")
	assert.ErrorIs(t, err, ErrMalformedNotification)

	junk := base64.URLEncoding.EncodeToString([]byte(`{"Ds_Response":"0000"}`))
	_, err = c.ParseNotification(junk, "sig")
	assert.ErrorIs(t, err, ErrMalformedNotification)
}

func TestOutcomeFor(t *testing.T) {
	tests := []struct {
		code string
		want Outcome
	}{
		{"0000", OutcomeAuthorized},
		{"0099", OutcomeAuthorized},
		{"99", OutcomeAuthorized},
		{"0100", OutcomeFailed},
		{"0180", OutcomeFailed},
		{"9915", OutcomeCanceled},
		{"garbage", OutcomeFailed},
		{"", OutcomeFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, OutcomeFor(tt.code), "code %q", tt.code)
	}
}

func TestDescribeResponse(t *testing.T) {
	assert.Equal(t, "Transaction approved", DescribeResponse("0000"))
	assert.Equal(t, "Payment cancelled by user", DescribeResponse("9915"))
	assert.Equal(t, "Unknown response code", DescribeResponse("4242"))
}
