package service

import "github.com/shopspring/decimal"

// formatFloat renders a float64 for structured log fields using
// shopspring/decimal so USD/BTC amounts never pick up binary-float noise in
// log output, consistent with how amounts are carried elsewhere in the
// dealer.
func formatFloat(f float64) string {
	return decimal.NewFromFloat(f).String()
}
