// Package symbol canonicalizes user-entered ticker symbols for the Taiwan
// market before they are sent to the analysis backend.
package symbol

import "strings"

// MarketSuffix is appended to purely-numeric TWSE codes.
const MarketSuffix = ".TW"

// Normalize trims and upper-cases raw input, and appends the market suffix
// when the input is all ASCII digits and does not already carry it.
// Normalize is idempotent; the backend remains the final arbiter of the
// symbol's validity.
func Normalize(raw string) string {
	t := strings.ToUpper(strings.TrimSpace(raw))
	if t == "" {
		return ""
	}
	if isDigits(t) && !strings.HasSuffix(t, MarketSuffix) {
		return t + MarketSuffix
	}
	return t
}

// NormalizeList splits comma-separated input and normalizes each entry,
// dropping empties.
func NormalizeList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if s := Normalize(part); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
