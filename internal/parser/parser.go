package parser

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"applicant-engine/internal/domain"
	"applicant-engine/internal/extract"
)

// Options configures a Parser. Raw and Enricher are only used for TopCV mail.
type Options struct {
	// CodePattern is the referral-code regexp; empty disables code extraction.
	CodePattern string
	// ExtraSenders routes additional addresses to a kind by name
	// (ahamove, topcv, careerbuilder, personal, careerlink).
	ExtraSenders map[string]string

	Raw      RawFetcher
	Enricher Enricher
}

// Parser routes a message to its recipe by sender address. It holds no
// mutable state after New and is safe for concurrent use.
type Parser struct {
	senders map[string]Kind

	ahaMove       Strategy
	topCV         Strategy
	careerBuilder Strategy
	personal      Strategy
}

func New(opts Options) (*Parser, error) {
	code, err := extract.NewCodeMatcher(opts.CodePattern)
	if err != nil {
		return nil, err
	}

	senders := make(map[string]Kind, len(knownSenders)+len(opts.ExtraSenders))
	for addr, k := range knownSenders {
		senders[addr] = k
	}
	for addr, name := range opts.ExtraSenders {
		k, err := ParseKind(name)
		if err != nil {
			return nil, eris.Wrapf(err, "sender %q", addr)
		}
		senders[bareAddress(addr)] = k
	}

	f := fields{code: code}
	return &Parser{
		senders:       senders,
		ahaMove:       ahaMove{f},
		topCV:         topCV{fields: f, raw: opts.Raw, enricher: opts.Enricher},
		careerBuilder: careerBuilder{f},
		personal:      personal{f},
	}, nil
}

// Route returns the kind for a sender. Unknown senders are Personal.
func (p *Parser) Route(from string) Kind {
	if k, ok := p.senders[bareAddress(from)]; ok {
		return k
	}
	return KindPersonal
}

// Parse extracts one record from msg. It returns ErrMissingSource when the
// sender is empty and ErrUnsupportedSource for recognised channels that
// have no recipe. A nil record with a nil error means the message was
// discarded.
func (p *Parser) Parse(ctx context.Context, msg domain.RawMessage) (*domain.ApplicantRecord, error) {
	if strings.TrimSpace(msg.FromMail) == "" {
		return nil, ErrMissingSource
	}

	switch k := p.Route(msg.FromMail); k {
	case KindAhaMove:
		return p.ahaMove.Extract(ctx, msg)
	case KindTopCV:
		return p.topCV.Extract(ctx, msg)
	case KindCareerBuilder:
		return p.careerBuilder.Extract(ctx, msg)
	case KindPersonal:
		return p.personal.Extract(ctx, msg)
	case KindUnsupported:
		return nil, eris.Wrapf(ErrUnsupportedSource, "%s (%s)", k.Source(), msg.FromMail)
	default:
		return nil, eris.Errorf("no strategy for kind %d", int(k))
	}
}
