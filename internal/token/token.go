// Package token prices gacha pulls in tickets.
package token

// Token defines how many tickets are required per pull.
type Token struct {
	Name       string // e.g. "ticket"
	PerDraw    int    // tickets per single pull
	PerTenDraw int    // optional; if 0 -> equal to 10 * PerDraw
}

// Tickets is the default pricing: one ticket per pull, a flat ten per ten-pull.
func Tickets() Token {
	return Token{Name: "ticket", PerDraw: 1, PerTenDraw: 10}
}

// TokensForDraws returns how many tickets are required for n pulls.
func (t Token) TokensForDraws(n int) int {
	if n <= 0 {
		return 0
	}
	if t.PerTenDraw > 0 && n >= 10 {
		tens := n / 10
		rem := n % 10
		return tens*t.PerTenDraw + rem*t.PerDraw
	}
	return n * t.PerDraw
}
