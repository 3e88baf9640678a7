package topcv

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"applicant-engine/internal/extract"
)

// TableSelector is the block on the TopCV candidate page holding contact details.
const TableSelector = ".table-bordered"

// Applicant is the contact block scraped from the candidate page.
type Applicant struct {
	Name  string
	Phone string
	Email string
}

var (
	labels = strings.NewReplacer(
		"Họ tên: ", "",
		"Điện thoại: ", "",
		"Email: ", "",
		"Vòng: ", "",
	)
	reGap = regexp.MustCompile(`\s{2,}`)
)

// ScrapeApplicant reads name, phone and email from the first three lines of
// the contact table. Lines are separated by runs of two or more whitespace
// characters in the table text.
func ScrapeApplicant(page string) (Applicant, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return Applicant{}, eris.Wrap(err, "parse topcv page")
	}

	table := doc.Find(TableSelector).First()
	if table.Length() == 0 {
		return Applicant{}, ErrTableNotFound
	}

	text := labels.Replace(table.Text())
	text = reGap.ReplaceAllString(strings.TrimSpace(text), "\n")

	lines := strings.Split(text, "\n")
	if len(lines) < 3 {
		return Applicant{}, eris.Wrapf(ErrTooFewLines, "got %d", len(lines))
	}

	return Applicant{
		Name:  strings.TrimSpace(lines[0]),
		Phone: extract.NormalizePhone(strings.TrimSpace(lines[1])),
		Email: strings.TrimSpace(lines[2]),
	}, nil
}
