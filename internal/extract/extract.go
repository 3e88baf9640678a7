package extract

import (
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
)

var (
	jobVocabulary = NewVocabulary(JobTitles)

	// Declared order is the tie-break order.
	cityAliases    = []string{"HN", "Hà Nội", "HCM", "Hồ Chí Minh", "SG", "Sài Gòn", "SGN", "HAN"}
	cityVocabulary = newTokenVocabulary(cityAliases, "TP")
	cityCanonical  = map[string]string{
		"HN":      "Hà Nội",
		"HAN":     "Hà Nội",
		"HCM":     "Hồ Chí Minh",
		"SG":      "Hồ Chí Minh",
		"SGN":     "Hồ Chí Minh",
		"Sài Gòn": "Hồ Chí Minh",
	}

	// Separators include NBSP, common in HTML-derived bodies.
	rePhone = regexp.MustCompile(`(?:0|84|\+84)[-.\s\x{00A0}]?\d{1,3}[-.\s\x{00A0}]?\d{2,4}[-.\s\x{00A0}]?\d{2,4}[-.\s\x{00A0}]?\d{2,4}`)
)

// FindJob returns the first job title from JobTitles found in text.
func FindJob(text string) string {
	return jobVocabulary.Find(text)
}

// FindCity returns the canonical city for the first alias found in text.
func FindCity(text string) string {
	alias := cityVocabulary.Find(text)
	if alias == "" {
		return ""
	}
	if c, ok := cityCanonical[alias]; ok {
		return c
	}
	return alias
}

// FindPhone returns the first Vietnamese phone number in text, normalized.
func FindPhone(text string) string {
	m := rePhone.FindString(text)
	if m == "" {
		return ""
	}
	return NormalizePhone(m)
}

// CodeMatcher finds referral codes. The zero value never matches.
type CodeMatcher struct {
	re *regexp.Regexp
}

// NewCodeMatcher compiles pattern. A blank pattern yields a matcher that
// finds nothing.
func NewCodeMatcher(pattern string) (*CodeMatcher, error) {
	if strings.TrimSpace(pattern) == "" {
		return &CodeMatcher{}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, eris.Wrapf(err, "compile code pattern %q", pattern)
	}
	return &CodeMatcher{re: re}, nil
}

// Find returns the first non-empty code in text. With a capture group in
// the pattern, the first group is returned.
func (m *CodeMatcher) Find(text string) string {
	if m == nil || m.re == nil {
		return ""
	}
	for _, sm := range m.re.FindAllStringSubmatch(text, -1) {
		code := sm[0]
		if len(sm) > 1 {
			code = sm[1]
		}
		if code = strings.TrimSpace(code); code != "" {
			return code
		}
	}
	return ""
}
