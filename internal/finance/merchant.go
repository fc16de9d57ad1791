package finance

import (
	"regexp"
	"strings"
)

// Merchant strings from bank feeds carry store numbers, location codes and
// corporate suffixes ("NETFLIX.COM #4821", "Spotify USA Inc"). Grouping for
// recurrence detection needs those collapsed to one stable key. All the
// rules live here so they stay testable in one place.

var (
	refCodeRe    = regexp.MustCompile(`[#*]\d+`)
	trailingNumRe = regexp.MustCompile(`\s+\d{3,}`)
	corpSuffixRe = regexp.MustCompile(`\s*\b(inc|llc|ltd|corp|co)\b\.?`)
	punctRe      = regexp.MustCompile(`[.,]+$`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// NormalizeMerchant lowercases a raw merchant string and strips reference
// numbers, location codes, corporate suffixes and trailing punctuation.
func NormalizeMerchant(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = refCodeRe.ReplaceAllString(s, "")
	s = trailingNumRe.ReplaceAllString(s, "")
	s = corpSuffixRe.ReplaceAllString(s, "")
	s = punctRe.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// knownSubscriptions is a lexicon of merchants that are almost always
// recurring bills. Matching one earns a confidence boost in the detector.
var knownSubscriptions = []string{
	"netflix", "spotify", "hulu", "disney", "apple", "amazon prime",
	"youtube", "hbo", "paramount", "peacock", "crunchyroll",
	"adobe", "microsoft", "google storage", "icloud", "dropbox",
	"chatgpt", "openai", "claude", "midjourney",
	"gym", "planet fitness", "la fitness", "ymca",
	"att", "t-mobile", "verizon", "xfinity", "comcast", "spectrum",
	"geico", "state farm", "progressive", "allstate",
	"rent", "mortgage",
}

// IsKnownSubscription reports whether a normalized merchant key matches the
// subscription lexicon.
func IsKnownSubscription(key string) bool {
	for _, sub := range knownSubscriptions {
		if strings.Contains(key, sub) {
			return true
		}
	}
	return false
}
