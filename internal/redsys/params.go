package redsys

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// MerchantParameters is the request blob sent with the redirect form. Amounts
// are integer cents rendered as strings, per the gateway's wire format.
type MerchantParameters struct {
	Amount             string `json:"DS_MERCHANT_AMOUNT"`
	Order              string `json:"DS_MERCHANT_ORDER"`
	MerchantCode       string `json:"DS_MERCHANT_MERCHANTCODE"`
	Currency           string `json:"DS_MERCHANT_CURRENCY"`
	TransactionType    string `json:"DS_MERCHANT_TRANSACTIONTYPE"`
	Terminal           string `json:"DS_MERCHANT_TERMINAL"`
	MerchantURL        string `json:"DS_MERCHANT_MERCHANTURL"`
	URLOK              string `json:"DS_MERCHANT_URLOK"`
	URLKO              string `json:"DS_MERCHANT_URLKO"`
	MerchantName       string `json:"DS_MERCHANT_MERCHANTNAME,omitempty"`
	ProductDescription string `json:"DS_MERCHANT_PRODUCTDESCRIPTION,omitempty"`
	ConsumerLanguage   string `json:"DS_MERCHANT_CONSUMERLANGUAGE,omitempty"`
}

// Notification is the decoded Ds_MerchantParameters blob of a gateway
// callback.
type Notification struct {
	Date              string `json:"Ds_Date"`
	Hour              string `json:"Ds_Hour"`
	Amount            string `json:"Ds_Amount"`
	Currency          string `json:"Ds_Currency"`
	Order             string `json:"Ds_Order"`
	MerchantCode      string `json:"Ds_MerchantCode"`
	Terminal          string `json:"Ds_Terminal"`
	Response          string `json:"Ds_Response"`
	TransactionType   string `json:"Ds_TransactionType"`
	SecurePayment     string `json:"Ds_SecurePayment"`
	AuthorisationCode string `json:"Ds_AuthorisationCode"`
	CardCountry       string `json:"Ds_Card_Country"`
	CardBrand         string `json:"Ds_Card_Brand"`
}

// EncodeParams renders merchant parameters the way the form field carries
// them: JSON inside standard base64.
func EncodeParams(p MerchantParameters) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

// DecodeNotification parses the callback parameter blob. The gateway uses
// URL-safe base64 for notifications; both alphabets are accepted.
func DecodeNotification(encodedParams string) (*Notification, error) {
	raw, err := decodeBase64Lenient(encodedParams)
	if err != nil {
		return nil, err
	}
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, err
	}
	return &n, nil
}

func decodeBase64Lenient(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	if strings.ContainsAny(s, "-_") {
		return base64.RawURLEncoding.DecodeString(s)
	}
	return base64.RawStdEncoding.DecodeString(s)
}
