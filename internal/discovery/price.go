package discovery

import "strings"

// PriceTier counts the "$" symbols in a price level string, capped at 4.
func PriceTier(priceLevel string) int {
	return min(strings.Count(priceLevel, "$"), 4)
}
