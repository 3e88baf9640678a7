package extract

import (
	"regexp"
	"strings"
)

// JobTitles is the closed set of positions HR recruits for. Order matters:
// when two titles match at the same offset the earlier entry wins.
var JobTitles = []string{
	"General Accountant", "Accounts Payable Specialist", "Accounts Receivable Specialist", "Chief Accountant",
	"Accounts Payable Leader", "Business Development Strategy Executive", "Business Development Strategy Supevisor",
	"Business Development Strategy Leader", "General Admin Executive", "Senior Business Development Manager",
	"Business Development Supervisor", "Business Development Specialist", "Business Development Executive",
	"Business Development Leader", "Data Engineer", "Data Scientist", "Data Analyst", "BI Manager", "BI Leader", "CEO",
	"Recruitment Officer", "Content Executive", "Growth Executive", "Event Executive", "PR Executive",
	"Digital Marketing Executive", "Graphic Designer", "Marketing Executive", "Marketing Operations Executive",
	"Marketing Specialist", "Content Specialist", "PR Specialist", "Marketing Operations Specialist",
	"Growth Specialist", "Event Specialist", "Digital Marketing Specialist", "Marketing Manager", "Media Supervisor",
	"Marketing Operations Supervisor", "Graphic Design Leader", "Content Leader", "Digital Marketing Leader",
	"Marketing Leader", "Marketing Operations Leader", "Key Account Specialist", "Key Account Executive",
	"Key Account Officer", "Key Account Leader", "Operations Officer", "Operations Executive", "Operations Specialist",
	"Operations Leader", "Customer Services Specialist", "Customer Services Officer", "Customer Services Executive",
	"Customer Services Supervisor", "Customer Services Leader", "Field Sales Specialist", "Telesales Specialist",
	"Field Sales Executive", "Telesale Officer", "Telesales Executive", "Business Analyst", "Operations Supervisor",
	"Operations Director", "Operations Manager", "Key Account Supervisor", "Training Specialist", "Training Executive",
	"Quality Control Specialist", "Quality Control Executive", "Risk Management Specialist",
	"Risk Management Executive", "Nhân viên Văn hóa nội bộ",
}

// Vocabulary is an ordered term list compiled into one case-insensitive
// alternation. Find returns the declared form of the term that matched.
type Vocabulary struct {
	terms []string
	re    *regexp.Regexp
}

// NewVocabulary compiles terms into a substring matcher.
func NewVocabulary(terms []string) *Vocabulary {
	return compileTerms(terms, false)
}

// newTokenVocabulary only matches terms that are not glued to other
// letters or digits, so short aliases like "HN" don't fire inside words.
// A term may still be glued to one of prefixes, as in "TPHCM".
func newTokenVocabulary(terms []string, prefixes ...string) *Vocabulary {
	return compileTerms(terms, true, prefixes...)
}

func compileTerms(terms []string, bounded bool, prefixes ...string) *Vocabulary {
	kept := make([]string, 0, len(terms))
	groups := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		kept = append(kept, t)
		groups = append(groups, "("+regexp.QuoteMeta(t)+")")
	}
	if len(kept) == 0 {
		return &Vocabulary{}
	}

	expr := strings.Join(groups, "|")
	if bounded {
		lead := `(?:^|[^\p{L}\p{N}])`
		if len(prefixes) > 0 {
			quoted := make([]string, len(prefixes))
			for i, p := range prefixes {
				quoted[i] = regexp.QuoteMeta(p)
			}
			lead += `(?:` + strings.Join(quoted, "|") + `)?`
		}
		expr = lead + `(?:` + expr + `)(?:[^\p{L}\p{N}]|$)`
	}
	return &Vocabulary{
		terms: kept,
		re:    regexp.MustCompile("(?i)" + expr),
	}
}

// Terms returns the vocabulary in declaration order.
func (v *Vocabulary) Terms() []string {
	return append([]string(nil), v.terms...)
}

// Find returns the first term occurring in text, or "".
func (v *Vocabulary) Find(text string) string {
	if v == nil || v.re == nil || text == "" {
		return ""
	}
	loc := v.re.FindStringSubmatchIndex(text)
	if loc == nil {
		return ""
	}
	for i := range v.terms {
		if loc[2*(i+1)] >= 0 {
			return v.terms[i]
		}
	}
	return ""
}
