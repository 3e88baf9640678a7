package topcv

import (
	"regexp"
	"strings"
)

// The raw message is quoted-printable, so links are split by "=\r\n" soft
// breaks; the character class deliberately spans them.
var reTrackingURL = regexp.MustCompile(`http://email\.tuyendungtopcv\.com/c/[\w\r\s=-]*`)

var softBreaks = strings.NewReplacer("\r", "", "\n", "", "=", "")

// FindTrackingURL returns the last TopCV click-tracking link in the raw
// RFC822 bytes with soft line breaks removed.
func FindTrackingURL(raw []byte) (string, error) {
	all := reTrackingURL.FindAllString(string(raw), -1)
	if len(all) == 0 {
		return "", ErrNoTrackingURL
	}

	u := strings.TrimSpace(softBreaks.Replace(all[len(all)-1]))
	// The class also admits plain spaces; anything after one is prose.
	if i := strings.IndexAny(u, " \t"); i >= 0 {
		u = u[:i]
	}
	if u == "" {
		return "", ErrNoTrackingURL
	}
	return u, nil
}
