package parsers

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// ParsedSMS is the data extracted from a card POS notification.
type ParsedSMS struct {
	Amount       decimal.Decimal
	Currency     string
	MerchantRaw  string // everything after "Comerciant:"
	MerchantCore string // first word of the merchant, upper-cased
}

// Example:
//
//	Tranz POS. Suma 53.96 RON. Card nr. ***3211, ... 29.08.25 14:47.
//	Suma disponibila: 7963.03 RON. Comerciant: PENNY 4562 RM VL2 C3, RO,RAMNICU VALC
var posRegex = regexp.MustCompile(`(?i)Tranz\s+POS\.\s*Suma\s+([\d.,]+)\s+(RON|EUR|USD)\.[\s\S]*?Comerciant:\s*([^\n\r]+)`)

// ParseBankSMS extracts a POS payment from body. ok is false when the
// message is not a POS notification or the amount is unreadable.
func ParseBankSMS(body string) (ParsedSMS, bool) {
	m := posRegex.FindStringSubmatch(body)
	if m == nil {
		return ParsedSMS{}, false
	}

	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
	if err != nil {
		return ParsedSMS{}, false
	}

	raw := strings.TrimSpace(m[3])
	return ParsedSMS{
		Amount:       amount,
		Currency:     strings.ToUpper(m[2]),
		MerchantRaw:  raw,
		MerchantCore: merchantCore(raw),
	}, true
}

// merchantCore turns "PENNY 4562 RM VL2 C3, RO,RAMNICU VALC" into "PENNY".
func merchantCore(raw string) string {
	head := strings.TrimSpace(strings.SplitN(raw, ",", 2)[0])
	if fields := strings.Fields(head); len(fields) > 0 {
		return strings.ToUpper(fields[0])
	}
	return strings.ToUpper(raw)
}
