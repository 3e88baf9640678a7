package extract

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var reNonDigit = regexp.MustCompile(`\D+`)

// NormalizePhone keeps digits only and rewrites a single leading trunk
// "0" to the 84 country code. Non-string input is formatted first.
func NormalizePhone(v any) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	default:
		s = fmt.Sprint(t)
	}

	s = reNonDigit.ReplaceAllString(s, "")
	if strings.HasPrefix(s, "0") {
		s = "84" + s[1:]
	}
	return s
}

// TitleCase upper-cases the first letter of every word and lower-cases the
// rest. Whitespace runs collapse to one space.
func TitleCase(s string) string {
	s = CleanText(s)
	if s == "" {
		return ""
	}
	// Casers carry state; one per call keeps this safe across goroutines.
	return cases.Title(language.Vietnamese).String(s)
}

// CleanText trims, drops NBSPs and collapses whitespace.
func CleanText(s string) string {
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.Join(strings.Fields(s), " ")
}
