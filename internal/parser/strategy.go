package parser

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"applicant-engine/internal/domain"
	"applicant-engine/internal/enrich/topcv"
	"applicant-engine/internal/extract"
)

// Strategy extracts a record from one message. A nil record with a nil
// error means the message was discarded.
type Strategy interface {
	Extract(ctx context.Context, msg domain.RawMessage) (*domain.ApplicantRecord, error)
}

// RawFetcher returns the undecoded RFC822 form of a message.
type RawFetcher interface {
	Raw(ctx context.Context, mailID string) ([]byte, error)
}

// Enricher resolves a TopCV notification to the applicant's contact block.
type Enricher interface {
	Lookup(ctx context.Context, raw []byte) (topcv.Applicant, error)
}

// fields fills what every recipe derives the same way.
type fields struct {
	code *extract.CodeMatcher
}

func (f fields) base(msg domain.RawMessage, src domain.Source) *domain.ApplicantRecord {
	return &domain.ApplicantRecord{
		MailID:     msg.MailID,
		ReceivedAt: msg.Date,
		Source:     src,
		City:       extract.FindCity(msg.Body),
		Position:   extract.FindJob(msg.Body),
		Code:       f.code.Find(msg.Body),
	}
}

// ---------------- AhaMove website form ----------------

var reParenName = regexp.MustCompile(`\(([\p{L}\p{N}_\s]+)\)`)

type ahaMove struct{ fields }

func (s ahaMove) Extract(_ context.Context, msg domain.RawMessage) (*domain.ApplicantRecord, error) {
	rec := s.base(msg, domain.SourceAhaMove)
	rec.Phone = extract.FindPhone(msg.Body)
	rec.Email = strings.TrimSpace(msg.ReplyTo)

	if m := reParenName.FindStringSubmatch(msg.Body); m != nil {
		rec.Name = extract.TitleCase(m[1])
	} else {
		zap.L().Warn("ahamove: no parenthesized name in body", zap.String("mail_id", msg.MailID))
	}
	return rec, nil
}

// ---------------- TopCV ----------------

type topCV struct {
	fields
	raw      RawFetcher
	enricher Enricher
}

func (s topCV) Extract(ctx context.Context, msg domain.RawMessage) (*domain.ApplicantRecord, error) {
	if s.raw == nil || s.enricher == nil {
		return nil, eris.New("topcv: raw fetcher and enricher are required")
	}

	raw, err := s.raw.Raw(ctx, msg.MailID)
	if err != nil {
		return nil, eris.Wrapf(err, "topcv: fetch raw message %s", msg.MailID)
	}

	a, err := s.enricher.Lookup(ctx, raw)
	if errors.Is(err, topcv.ErrStructure) {
		zap.L().Warn("topcv: discarding message", zap.String("mail_id", msg.MailID), zap.Error(err))
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "topcv: enrich %s", msg.MailID)
	}

	rec := s.base(msg, domain.SourceTopCV)
	rec.Name = extract.TitleCase(a.Name)
	rec.Phone = a.Phone
	rec.Email = a.Email
	return rec, nil
}

// ---------------- CareerBuilder ----------------

// Subjects read "<Name> vừa ứng tuyển ...".
const careerBuilderMarker = " vừa"

type careerBuilder struct{ fields }

func (s careerBuilder) Extract(_ context.Context, msg domain.RawMessage) (*domain.ApplicantRecord, error) {
	name, _, _ := strings.Cut(msg.Subject, careerBuilderMarker)

	rec := s.base(msg, domain.SourceCareerBuilder)
	rec.Name = extract.TitleCase(name)
	rec.Email = strings.TrimSpace(msg.ReplyTo)
	return rec, nil
}

// ---------------- Personal (fallback) ----------------

type personal struct{ fields }

func (s personal) Extract(_ context.Context, msg domain.RawMessage) (*domain.ApplicantRecord, error) {
	rec := s.base(msg, domain.SourcePersonal)
	rec.Phone = extract.FindPhone(msg.Body)
	return rec, nil
}

// Bytes is a RawFetcher for a single message already in memory.
type Bytes []byte

func (b Bytes) Raw(context.Context, string) ([]byte, error) { return b, nil }
