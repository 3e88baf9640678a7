package parser

import (
	"strings"

	"github.com/rotisserie/eris"

	"applicant-engine/internal/domain"
)

// Kind selects the extraction recipe for a message.
type Kind int

const (
	KindPersonal Kind = iota
	KindAhaMove
	KindTopCV
	KindCareerBuilder
	// KindUnsupported is a channel we recognise but cannot parse yet (CareerLink).
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindPersonal:
		return "personal"
	case KindAhaMove:
		return "ahamove"
	case KindTopCV:
		return "topcv"
	case KindCareerBuilder:
		return "careerbuilder"
	case KindUnsupported:
		return "careerlink"
	default:
		return "unknown"
	}
}

// Source is the channel label written on records of this kind.
func (k Kind) Source() domain.Source {
	switch k {
	case KindAhaMove:
		return domain.SourceAhaMove
	case KindTopCV:
		return domain.SourceTopCV
	case KindCareerBuilder:
		return domain.SourceCareerBuilder
	case KindUnsupported:
		return domain.SourceCareerLink
	default:
		return domain.SourcePersonal
	}
}

// ParseKind maps a config name to a Kind.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "personal":
		return KindPersonal, nil
	case "ahamove":
		return KindAhaMove, nil
	case "topcv":
		return KindTopCV, nil
	case "careerbuilder":
		return KindCareerBuilder, nil
	case "careerlink":
		return KindUnsupported, nil
	}
	return KindPersonal, eris.Errorf("unknown source kind %q", name)
}

// knownSenders is the fixed routing table. Everything else is Personal.
var knownSenders = map[string]Kind{
	"iappvnco@gmail.com":            KindAhaMove,
	"info@tuyendungtopcv.com":       KindTopCV,
	"resumes@mail.careerbuilder.vn": KindCareerBuilder,
}

// bareAddress reduces `Name <addr>` to a lower-cased addr.
func bareAddress(from string) string {
	from = strings.TrimSpace(from)
	if i := strings.LastIndex(from, "<"); i >= 0 {
		from = strings.TrimSuffix(strings.TrimSpace(from[i+1:]), ">")
	}
	return strings.ToLower(strings.TrimSpace(from))
}
