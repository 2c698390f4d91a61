package utils

import (
	"strconv"
	"strings"
)

// FormatKRW formats a won amount as "₩12,500". Won has no minor unit.
func FormatKRW(amount int64) string {
	return formatGrouped(amount, "₩", ',')
}

// FormatAmount formats amount for the given ISO currency code, falling back to a
// plain grouped number suffixed with the code for currencies without a symbol here.
func FormatAmount(amount int64, currency string) string {
	switch strings.ToUpper(strings.TrimSpace(currency)) {
	case "", "KRW":
		return FormatKRW(amount)
	case "USD":
		return formatGrouped(amount, "$", ',')
	default:
		return formatGrouped(amount, "", ',') + " " + strings.ToUpper(currency)
	}
}

func formatGrouped(amount int64, symbol string, sep byte) string {
	neg := amount < 0
	s := strconv.FormatInt(amount, 10)
	if neg {
		s = s[1:]
	}

	var b strings.Builder
	b.Grow(len(s) + len(s)/3 + len(symbol) + 1)
	if neg {
		b.WriteByte('-')
	}
	b.WriteString(symbol)

	rem := len(s) % 3
	if rem == 0 {
		rem = 3
	}
	b.WriteString(s[:rem])
	for i := rem; i < len(s); i += 3 {
		b.WriteByte(sep)
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
