// Package common — pluralize.go formats point amounts in Portuguese.
package common

import "fmt"

// FormatPoints returns "1 ponto" / "7 pontos" / "-3 pontos" / "1.250 pontos".
func FormatPoints(n int64) string {
	if n == 1 || n == -1 {
		return fmt.Sprintf("%d ponto", n)
	}
	return FormatNumber(n) + " pontos"
}

// FormatSignedPoints is FormatPoints with an explicit "+" for gains.
//
// Examples:
//
//	FormatSignedPoints(7)  → "+7 pontos"
//	FormatSignedPoints(-3) → "-3 pontos"
//	FormatSignedPoints(1)  → "+1 ponto"
func FormatSignedPoints(n int64) string {
	if n > 0 {
		return "+" + FormatPoints(n)
	}
	return FormatPoints(n)
}

// FormatNumber groups thousands with dots, as written in Brazil.
// Example: FormatNumber(2350) → "2.350"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%s.%03d", FormatNumber(n/1000), n%1000)
}
