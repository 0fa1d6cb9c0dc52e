package render

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"pricebot/internal/market"
)

// FormatText renders s as the plain-text price message. The output depends
// only on s.
func FormatText(s market.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔸%s: %s\n", s.Name, s.Symbol)
	fmt.Fprintf(&b, "Price: $%s\n", FormatPrice(s.PriceUSD))
	fmt.Fprintf(&b, "Market Cap: $%s\n", FormatWhole(s.MarketCapUSD))
	fmt.Fprintf(&b, "24h Volume: $%s\n", FormatWhole(s.Volume24hUSD))
	b.WriteString("\n📈Market Change\n")
	fmt.Fprintf(&b, "1h: %s\n", FormatChange(s.Change1h))
	fmt.Fprintf(&b, "24h: %s\n", FormatChange(s.Change24h))
	fmt.Fprintf(&b, "7d: %s", FormatChange(s.Change7d))
	return b.String()
}

// pricePlaces is the fixed number of decimals used for a USD price of that
// magnitude. Tiers are chosen on the value as it would print, so 0.99999 is
// shown as 1.00 rather than 1.0000.
func pricePlaces(d decimal.Decimal) int32 {
	a := d.Abs()
	switch {
	case a.IsZero() || a.Round(4).GreaterThanOrEqual(decimal.NewFromInt(1)):
		return 2
	case a.Round(8).GreaterThanOrEqual(decimal.New(1, -2)):
		return 4
	default:
		return 8
	}
}

// FormatPrice formats a USD price without grouping: 65000.12, 0.5123, 0.00001234.
func FormatPrice(v float64) string {
	d := decimal.NewFromFloat(v)
	return d.StringFixed(pricePlaces(d))
}

// FormatGroupedPrice is FormatPrice with thousands separators: 65,000.12.
func FormatGroupedPrice(v float64) string {
	return group(FormatPrice(v))
}

// FormatWhole formats v rounded to whole units with thousands separators.
func FormatWhole(v float64) string {
	return group(decimal.NewFromFloat(v).StringFixed(0))
}

// FormatChange formats a percentage with two decimals and an explicit sign: +2.50%, -1.10%.
func FormatChange(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if !d.IsNegative() {
		sign = "+"
	}
	return sign + d.StringFixed(2) + "%"
}

// group inserts commas into the integer part of a plain decimal string.
func group(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteString(frac)
	return b.String()
}
