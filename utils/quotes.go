package utils

import "strings"

// StripQuotes removes surrounding double quotes left by some shells on windows.
func StripQuotes(s string) string {
	return strings.Trim(strings.TrimSpace(s), `"`)
}
