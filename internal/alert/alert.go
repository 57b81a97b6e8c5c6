// Package alert decides whether a product is running low.
package alert

// MarkerLow is the display-only value written in the low-stock column of exports.
const MarkerLow = "!"

// IsLowStock reports whether quantity has fallen to or below threshold.
// A missing threshold never alerts.
func IsLowStock(quantity int, threshold *int) bool {
	return threshold != nil && quantity <= *threshold
}

// Marker renders the low-stock flag for tabular output.
func Marker(low bool) string {
	if low {
		return MarkerLow
	}
	return ""
}
