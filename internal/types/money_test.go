package types

import "testing"

func TestMoneyCovers(t *testing.T) {
	cases := []struct {
		name  string
		have  Money
		price Money
		want  bool
	}{
		{"exact", Money{Amount: 100, Currency: "EUR"}, Money{Amount: 100, Currency: "EUR"}, true},
		{"over", Money{Amount: 150, Currency: "EUR"}, Money{Amount: 100, Currency: "EUR"}, true},
		{"under", Money{Amount: 99, Currency: "EUR"}, Money{Amount: 100, Currency: "EUR"}, false},
		{"zero price", Money{Amount: 0, Currency: "EUR"}, Money{Amount: 0, Currency: "EUR"}, true},
	}
	for _, tc := range cases {
		if got := tc.have.Covers(tc.price); got != tc.want {
			t.Fatalf("%s: Covers(%d over %d) = %v, want %v", tc.name, tc.have.Amount, tc.price.Amount, got, tc.want)
		}
	}
}
