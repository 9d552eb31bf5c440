package classify

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Each field has its current (labeled Markdown) pattern first, then the legacy
// plain-text fallbacks. The first match wins.
var (
	orderIDPatterns = []*regexp.Regexp{
		regexp.MustCompile("🆔 \\*Order ID:\\* `([A-Za-z0-9_-]+)`"),
		regexp.MustCompile("(?i)\\border id\\b[:*\\s]*`?([A-Za-z0-9_-]+)`?"),
	}
	orderNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile("🔢 \\*Order number:\\* `([0-9]+)`"),
		regexp.MustCompile("(?i)order number[:*\\s]*`?#?([0-9]+)"),
		regexp.MustCompile(`(?i)order #([0-9]+)`),
	}
	ratingPatterns = []*regexp.Regexp{
		regexp.MustCompile(`⭐ \*Rating:\* ([0-9]+)`),
	}
	legacyStars    = regexp.MustCompile(`rated it ((?:⭐\x{FE0F}?)+)`)
	commentPattern = []*regexp.Regexp{
		regexp.MustCompile(`💬 \*Comment:\* (.+)`),
		regexp.MustCompile(`(?i)comment:\s*(.+)`),
	}
	totalPattern = regexp.MustCompile(`(?i)total[:\s*]*([0-9][0-9,]*)`)
)

func firstMatch(text string, patterns []*regexp.Regexp) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// OrderID extracts the opaque order identifier.
func OrderID(text string) (string, bool) {
	return firstMatch(text, orderIDPatterns)
}

// OrderNumber extracts the human-facing order number. A value that does not
// fit an int is reported absent.
func OrderNumber(text string) (int, bool) {
	s, ok := firstMatch(text, orderNumberPatterns)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Rating extracts a 1..5 star rating, either the labeled digit or the
// legacy run of star emoji.
func Rating(text string) (int, bool) {
	n := 0
	if s, ok := firstMatch(text, ratingPatterns); ok {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		n = v
	} else if m := legacyStars.FindStringSubmatch(text); m != nil {
		n = strings.Count(m[1], "⭐")
	}
	if n < 1 || n > 5 {
		return 0, false
	}
	return n, true
}

func Comment(text string) (string, bool) {
	s, ok := firstMatch(text, commentPattern)
	s = strings.TrimSpace(s)
	return s, ok && s != ""
}

// Total extracts the order total ("Total: 12,500") in minor units as written.
func Total(text string) (int, bool) {
	m := totalPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Stars renders n as a run of star emoji.
func Stars(n int) string {
	if n <= 0 {
		return "⭐"
	}
	return strings.Repeat("⭐", n)
}

// Truncate shortens s to at most n runes for log lines.
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
