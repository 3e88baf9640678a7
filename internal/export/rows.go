package export

import (
	"time"

	"applicant-engine/internal/domain"
)

// DateLayout is the spreadsheet-friendly timestamp written in the date column.
const DateLayout = "2006-01-02 15:04:05"

// Columns is the header row, in output order.
var Columns = []string{"mail_id", "date", "source", "name", "phone", "email", "city", "position", "code"}

// Row flattens a record into cells aligned with Columns. Dates are shown
// in loc; a zero date becomes an empty cell.
func Row(r domain.ApplicantRecord, loc *time.Location) []string {
	date := ""
	if !r.ReceivedAt.IsZero() {
		if loc == nil {
			loc = time.UTC
		}
		date = r.ReceivedAt.In(loc).Format(DateLayout)
	}
	return []string{r.MailID, date, string(r.Source), r.Name, r.Phone, r.Email, r.City, r.Position, r.Code}
}

func Rows(recs []domain.ApplicantRecord, loc *time.Location) [][]string {
	out := make([][]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, Row(r, loc))
	}
	return out
}
