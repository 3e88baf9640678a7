package domain

import "time"

type Source string

const (
	SourceAhaMove       Source = "AhaMove Website"
	SourceTopCV         Source = "TopCV"
	SourceCareerBuilder Source = "CareerBuilder"
	SourcePersonal      Source = "Personal"

	// SourceCareerLink is recognised but has no extraction recipe yet.
	SourceCareerLink Source = "CareerLink"
)

// ApplicantRecord is the normalized output for one message. Optional
// fields are empty when nothing was found; Source is always set.
type ApplicantRecord struct {
	MailID     string    `json:"mail_id"`
	ReceivedAt time.Time `json:"date"`

	Source   Source `json:"source"`
	Name     string `json:"name,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Email    string `json:"email,omitempty"`
	City     string `json:"city,omitempty"`
	Position string `json:"position,omitempty"`
	Code     string `json:"code,omitempty"`
}

// HasPosition reports whether the record matched a known job title.
// Records without one are dropped before export.
func (r ApplicantRecord) HasPosition() bool {
	return r.Position != ""
}
