package parsers

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// ParsedReceipt holds the heuristic fields read from OCR text. Missing
// fields are left nil or empty.
type ParsedReceipt struct {
	Vendor  string
	Total   *decimal.Decimal
	Date    *time.Time
	RawText string
}

var (
	dmyPattern = regexp.MustCompile(`\b(\d{2})\.(\d{2})\.(\d{4})(?:\s+(\d{2}):(\d{2}))?\b`)
	ymdPattern = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})(?:[ T](\d{2}):(\d{2}))?\b`)
	multiSpace = regexp.MustCompile(`\s{2,}`)
	totalHints = []string{"TOTAL", "TOTAL DE PLATA", "TOTAL DE PLATĂ", "DE PLATA", "SUMA", "DATORAT"}
)

// ParseReceipt extracts vendor, date and total from recognized receipt
// text. Dates are interpreted in loc.
func ParseReceipt(text string, loc *time.Location) ParsedReceipt {
	if loc == nil {
		loc = time.Local
	}

	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\u00a0", " "), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	return ParsedReceipt{
		Vendor:  receiptVendor(lines),
		Total:   receiptTotal(lines),
		Date:    receiptDate(lines, loc),
		RawText: text,
	}
}

// receiptVendor picks the first all caps header line, else the first line.
func receiptVendor(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	vendor := lines[0]
	for _, l := range lines {
		if n := utf8.RuneCountInString(l); l == strings.ToUpper(l) && n >= 4 && n <= 40 {
			vendor = l
			break
		}
	}
	return strings.TrimSpace(multiSpace.ReplaceAllString(vendor, " "))
}

// receiptDate returns the first date found. An impossible date on the first
// matching line yields nil.
func receiptDate(lines []string, loc *time.Location) *time.Time {
	for _, l := range lines {
		if m := dmyPattern.FindStringSubmatch(l); m != nil {
			return buildDate(m[3], m[2], m[1], m[4], m[5], loc)
		}
		if m := ymdPattern.FindStringSubmatch(l); m != nil {
			return buildDate(m[1], m[2], m[3], m[4], m[5], loc)
		}
	}
	return nil
}

func buildDate(yyyy, mm, dd, hh, mi string, loc *time.Location) *time.Time {
	if hh == "" {
		hh = "00"
	}
	if mi == "" {
		mi = "00"
	}
	y, _ := strconv.Atoi(yyyy)
	mo, _ := strconv.Atoi(mm)
	d, _ := strconv.Atoi(dd)
	h, _ := strconv.Atoi(hh)
	mn, _ := strconv.Atoi(mi)

	if mo < 1 || mo > 12 || d < 1 || h > 23 || mn > 59 {
		return nil
	}
	t := time.Date(y, time.Month(mo), d, h, mn, 0, 0, loc)
	if t.Day() != d {
		return nil
	}
	return &t
}

// receiptTotal prefers the largest amount on lines carrying a total hint and
// falls back to the largest amount anywhere on the receipt.
func receiptTotal(lines []string) *decimal.Decimal {
	var hinted, all []decimal.Decimal
	for _, l := range lines {
		amounts := moneyIn(l)
		all = append(all, amounts...)
		upper := strings.ToUpper(l)
		for _, h := range totalHints {
			if strings.Contains(upper, h) {
				hinted = append(hinted, amounts...)
				break
			}
		}
	}

	candidates := hinted
	if len(candidates) == 0 {
		candidates = all
	}
	if len(candidates) == 0 {
		return nil
	}
	largest := decimal.Max(candidates[0], candidates[1:]...)
	return &largest
}

// moneyIn finds amounts shaped like 12.50, 1.234,56 or 1,234.56 that are not
// part of a longer digit run.
func moneyIn(s string) []decimal.Decimal {
	var out []decimal.Decimal
	for i := 0; i < len(s); {
		if !isDigit(s[i]) || (i > 0 && isDigit(s[i-1])) {
			i++
			continue
		}
		if end, ok := matchMoneyAt(s, i); ok {
			out = append(out, ParseMoney(s[i:end]))
			i = end
			continue
		}
		i++
	}
	return out
}

// matchMoneyAt matches \d{1,3}(?:[.,]\d{3})*[.,]\d{2} at i, preferring the
// longest form, with no digit directly after the match.
func matchMoneyAt(s string, i int) (int, bool) {
	for lead := 3; lead >= 1; lead-- {
		if !digitsAt(s, i, lead) {
			continue
		}
		groupEnds := []int{i + lead}
		for p := i + lead; p+4 <= len(s) && isSep(s[p]) && digitsAt(s, p+1, 3); p += 4 {
			groupEnds = append(groupEnds, p+4)
		}
		for k := len(groupEnds) - 1; k >= 0; k-- {
			q := groupEnds[k]
			if q+3 <= len(s) && isSep(s[q]) && digitsAt(s, q+1, 2) && (q+3 == len(s) || !isDigit(s[q+3])) {
				return q + 3, true
			}
		}
	}
	return 0, false
}

// ParseMoney reads an amount whose last separator is the decimal point.
// Unreadable input yields zero.
func ParseMoney(s string) decimal.Decimal {
	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")

	normalized := s
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
			normalized = strings.ReplaceAll(strings.ReplaceAll(s, ".", ""), ",", ".")
		} else {
			normalized = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		normalized = strings.ReplaceAll(s, ",", ".")
	}

	d, err := decimal.NewFromString(normalized)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isSep(c byte) bool { return c == '.' || c == ',' }

func digitsAt(s string, i, n int) bool {
	if i+n > len(s) {
		return false
	}
	for j := i; j < i+n; j++ {
		if !isDigit(s[j]) {
			return false
		}
	}
	return true
}
