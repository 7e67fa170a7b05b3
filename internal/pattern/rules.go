package pattern

import (
	"strings"

	"github.com/shopspring/decimal"
)

// StandardVATRate is applied when raw text says prices include VAT.
const StandardVATRate = 0.19

// currencyMarkers are scanned in order; the first one present wins.
var currencyMarkers = []struct {
	marker string
	code   string
}{
	{"€", "EUR"},
	{"EUR", "EUR"},
	{"$", "USD"},
	{"USD", "USD"},
	{"£", "GBP"},
	{"GBP", "GBP"},
}

var vatInclusiveMarkers = []string{"inkl.", "incl. vat", "vat already included"}

// DetectCurrency finds a known currency symbol or code in text.
func DetectCurrency(text string) (string, bool) {
	for _, c := range currencyMarkers {
		if strings.Contains(text, c.marker) {
			return c.code, true
		}
	}
	return "", false
}

// VATIncluded reports whether text says the prices already include VAT.
func VATIncluded(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range vatInclusiveMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// IncludedVAT returns the tax share of a VAT-inclusive gross amount,
// rounded to cents: gross * rate / (1 + rate).
func IncludedVAT(gross, rate float64) float64 {
	r := decimal.NewFromFloat(rate)
	tax := decimal.NewFromFloat(gross).
		Mul(r).
		Div(decimal.NewFromInt(1).Add(r)).
		Round(2)
	f, _ := tax.Float64()
	return f
}
