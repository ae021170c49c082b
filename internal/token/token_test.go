package token

import "testing"

func TestTokensForDraws(t *testing.T) {
	tk := Tickets()
	cases := map[int]int{0: 0, -3: 0, 1: 1, 9: 9, 10: 10, 11: 11, 20: 20}
	for n, want := range cases {
		if got := tk.TokensForDraws(n); got != want {
			t.Fatalf("TokensForDraws(%d)=%d want %d", n, got, want)
		}
	}

	discounted := Token{PerDraw: 160, PerTenDraw: 1500}
	if got := discounted.TokensForDraws(12); got != 1500+2*160 {
		t.Fatalf("discounted 12 pulls: got %d", got)
	}
	if got := (Token{PerDraw: 2}).TokensForDraws(10); got != 20 {
		t.Fatalf("no ten-pull price: got %d", got)
	}
}
