package domain

import "time"

// RawMessage is one inbound mailbox message as handed to the parser.
// Absent headers are empty strings.
type RawMessage struct {
	MailID   string
	FromMail string // bare sender address, used as the routing key
	ReplyTo  string
	Subject  string
	Body     string // decoded plain text
	Date     time.Time
}
