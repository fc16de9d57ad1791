package finance

import "testing"

func TestNormalizeMerchant(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"NETFLIX.COM #4821", "netflix.com"},
		{"Spotify USA Inc", "spotify usa"},
		{"  Trader Joe's 00552  ", "trader joe's"},
		{"ACME Corp.", "acme"},
		{"STARBUCKS *9921", "starbucks"},
		{"Shell", "shell"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeMerchant(c.in); got != c.want {
			t.Errorf("NormalizeMerchant(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeMerchantStable(t *testing.T) {
	variants := []string{"NETFLIX.COM #101", "netflix.com #202", "Netflix.com  303"}
	first := NormalizeMerchant(variants[0])
	for _, v := range variants[1:] {
		if got := NormalizeMerchant(v); got != first {
			t.Errorf("NormalizeMerchant(%q) = %q, want %q", v, got, first)
		}
	}
}

func TestIsKnownSubscription(t *testing.T) {
	if !IsKnownSubscription("netflix.com") {
		t.Error("netflix.com should match the subscription lexicon")
	}
	if !IsKnownSubscription("planet fitness") {
		t.Error("planet fitness should match the subscription lexicon")
	}
	if IsKnownSubscription("trader joe's") {
		t.Error("trader joe's should not match the subscription lexicon")
	}
}
