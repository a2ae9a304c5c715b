package redsys

import "strconv"

// Outcome classifies a Ds_Response code for order reconciliation.
type Outcome int

const (
	OutcomeAuthorized Outcome = iota
	OutcomeCanceled
	OutcomeFailed
)

// responseCodeCanceled is the code Redsys sends when the cardholder aborts at
// the payment page.
const responseCodeCanceled = 9915

// OutcomeFor maps a Ds_Response code: 0-99 is the authorised range, 9915 is a
// user cancellation, everything else (including unparseable codes) is a
// failure.
func OutcomeFor(dsResponse string) Outcome {
	code, err := strconv.Atoi(dsResponse)
	if err != nil {
		return OutcomeFailed
	}
	switch {
	case code >= 0 && code <= 99:
		return OutcomeAuthorized
	case code == responseCodeCanceled:
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

var responseDescriptions = map[string]string{
	"0000": "Transaction approved",
	"0101": "Card blocked",
	"0102": "Card expired",
	"0106": "Insufficient funds",
	"0125": "Invalid card number",
	"0129": "Invalid expiration date",
	"0167": "Invalid CVC",
	"0184": "Transaction not allowed for this card",
	"0190": "Operation denied",
	"0904": "Merchant not registered",
	"0912": "Issuer not available",
	"0913": "Duplicate transmission",
	"9915": "Payment cancelled by user",
}

// DescribeResponse returns a human-readable description for known codes.
func DescribeResponse(dsResponse string) string {
	if d, ok := responseDescriptions[dsResponse]; ok {
		return d
	}
	return "Unknown response code"
}
