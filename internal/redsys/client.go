// Package redsys implements the Redsys redirect protocol: merchant-parameter
// encoding, the 3DES-diversified HMAC-SHA256 signature scheme, and the
// response-code taxonomy.
package redsys

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	SandboxURL    = "https://sis-t.redsys.es:25443/sis/realizarPago"
	ProductionURL = "https://sis.redsys.es/sis/realizarPago"

	CurrencyEUR = "978"

	transactionTypeAuthorization = "0"
	consumerLanguageSpanish      = "001"
)

// Client carries the merchant credentials shared with the gateway.
type Client struct {
	MerchantCode string
	Terminal     string
	MerchantName string
	SecretKey    string
	MerchantURL  string
	Sandbox      bool
}

// FormData is everything the storefront needs to POST the shopper to the
// gateway.
type FormData struct {
	URL                string `json:"redsys_url"`
	SignatureVersion   string `json:"ds_signature_version"`
	MerchantParameters string `json:"ds_merchant_parameters"`
	Signature          string `json:"ds_signature"`
}

func (c *Client) paymentURL() string {
	if c.Sandbox {
		return SandboxURL
	}
	return ProductionURL
}

// PrepareRequest builds the signed redirect form for one payment. The amount
// is converted to integer cents; euro amounts always have at most two decimal
// places by the time they reach the gateway boundary.
func (c *Client) PrepareRequest(dsOrder string, amount decimal.Decimal, description, urlOK, urlKO string) (*FormData, error) {
	cents := amount.Mul(decimal.NewFromInt(100)).Round(0)

	params := MerchantParameters{
		Amount:             cents.String(),
		Order:              dsOrder,
		MerchantCode:       c.MerchantCode,
		Currency:           CurrencyEUR,
		TransactionType:    transactionTypeAuthorization,
		Terminal:           c.Terminal,
		MerchantURL:        c.MerchantURL,
		URLOK:              urlOK,
		URLKO:              urlKO,
		MerchantName:       c.MerchantName,
		ProductDescription: truncate(description, 125),
		ConsumerLanguage:   consumerLanguageSpanish,
	}

	encoded, err := EncodeParams(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode merchant parameters: %w", err)
	}
	signature, err := Sign(c.SecretKey, dsOrder, encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to sign merchant parameters: %w", err)
	}

	return &FormData{
		URL:                c.paymentURL(),
		SignatureVersion:   SignatureVersion,
		MerchantParameters: encoded,
		Signature:          signature,
	}, nil
}

// ParseNotification decodes and authenticates a gateway callback. The
// signature covers the encoded blob, so decoding happens first to recover the
// order number the key is diversified with, and nothing decoded is trusted
// until the signature checks out.
func (c *Client) ParseNotification(encodedParams, signature string) (*Notification, error) {
	if encodedParams == "" || signature == "" {
		return nil, ErrMalformedNotification
	}
	notif, err := DecodeNotification(encodedParams)
	if err != nil || notif.Order == "" {
		return nil, ErrMalformedNotification
	}
	ok, err := VerifySignature(c.SecretKey, notif.Order, encodedParams, signature)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidSignature
	}
	return notif, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
