package pricing

import "fmt"

// Format renders a minor-unit amount as the storefront's FCFA notation with
// two decimals, e.g. 1234550 -> "12345.50 FCFA".
func Format(m Money) string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	return fmt.Sprintf("%s%d.%02d FCFA", sign, m/100, m%100)
}
