// Package normalize converts locale-formatted scraped text into canonical
// numeric and temporal values. Every function is total: a value that cannot
// be canonicalized is reported through the boolean result, never a panic or
// an error. Callers treat a false result as "field absent".
package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	currencyStripper = strings.NewReplacer("$", "", "US", "", "COP", "", " ", "", " ", "")

	// thousandsGrouped matches numbers that use dots purely as thousands
	// separators, e.g. "1.234" or "12.345.678".
	thousandsGrouped = regexp.MustCompile(`^-?\d{1,3}(\.\d{3})+$`)

	offMarker      = regexp.MustCompile(`(?i)off`)
	installmentNum = regexp.MustCompile(`(\d+)\s*cuotas`)
	installmentVal = regexp.MustCompile(`\$\s*([\d\.]+)`)
)

// spanishMonths maps the abbreviated Spanish month names used by the source
// pages to two-digit month numbers.
var spanishMonths = map[string]string{
	"ene": "01", "feb": "02", "mar": "03", "abr": "04",
	"may": "05", "jun": "06", "jul": "07", "ago": "08",
	"sep": "09", "oct": "10", "nov": "11", "dic": "12",
}

// Price parses a locale-formatted price such as "$ 1.234,56" into its
// canonical decimal value. Currency markers and thousands separators are
// stripped and a decimal comma becomes a decimal point. Already-canonical
// input like "1234.56" parses unchanged.
func Price(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = currencyStripper.Replace(s)
	switch {
	case strings.Contains(s, ","):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case thousandsGrouped.MatchString(s):
		s = strings.ReplaceAll(s, ".", "")
	}
	return parseFinite(s)
}

// Percent parses a discount marker such as "15% OFF" into its numeric value.
func Percent(s string) (float64, bool) {
	s = strings.ReplaceAll(s, "%", "")
	s = offMarker.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	return parseFinite(s)
}

// Count parses a parenthesized count such as "(1234)". Every rune that is
// not a digit or a dot is dropped before parsing; an empty residue is absent.
func Count(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if r == '.' || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return 0, false
	}
	return parseFinite(cleaned)
}

// Installments extracts the installment count and the per-installment value
// from free text like "36 cuotas de $ 104.025". Both sub-fields must parse;
// a partial match is discarded rather than partially rendered. The canonical
// form is "N cuotas de $X" with dotted thousands grouping.
func Installments(s string) (string, bool) {
	num := installmentNum.FindStringSubmatch(s)
	val := installmentVal.FindStringSubmatch(s)
	if num == nil || val == nil {
		return "", false
	}
	n, err := strconv.Atoi(num[1])
	if err != nil {
		return "", false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(val[1], ".", ""), 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return "", false
	}
	return fmt.Sprintf("%d cuotas de $%s", n, groupThousands(v)), true
}

// SpanishDate converts "07 may 2025" into ISO "2025-05-07". The input must
// be exactly three whitespace-separated tokens with a recognized abbreviated
// month; anything else is absent.
func SpanishDate(s string) (string, bool) {
	parts := strings.Fields(s)
	if len(parts) != 3 {
		return "", false
	}
	day, err := strconv.Atoi(parts[0])
	if err != nil || day < 1 || day > 31 {
		return "", false
	}
	month, ok := spanishMonths[strings.ToLower(parts[1])]
	if !ok {
		return "", false
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil || year < 1000 || year > 9999 {
		return "", false
	}
	return fmt.Sprintf("%04d-%s-%02d", year, month, day), true
}

// ISODate reports whether s is already a canonical YYYY-MM-DD date.
func ISODate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return "", false
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}

func parseFinite(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// groupThousands renders the rounded value with dots between digit groups,
// matching the source locale ("104025" -> "104.025").
func groupThousands(v float64) string {
	s := strconv.FormatFloat(math.Round(v), 'f', 0, 64)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, d := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
