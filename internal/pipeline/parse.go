package pipeline

import (
	"context"

	"github.com/rotisserie/eris"

	"applicant-engine/internal/domain"
	"applicant-engine/internal/mailbox"
	"applicant-engine/internal/parser"
)

// ErrMalformedMessage marks input that could not be decoded as RFC822.
var ErrMalformedMessage = eris.New("malformed message")

// ParseRaw parses one RFC822 message outside a mailbox pass. Nothing is
// exported or marked read. A nil record means the message was discarded.
func ParseRaw(ctx context.Context, opts parser.Options, id string, raw []byte) (*domain.ApplicantRecord, error) {
	msg, err := mailbox.ParseRFC822(id, raw)
	if err != nil {
		return nil, eris.Wrapf(ErrMalformedMessage, "decode %s: %v", id, err)
	}

	opts.Raw = parser.Bytes(raw)
	p, err := parser.New(opts)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, msg)
}
