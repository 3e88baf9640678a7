package topcv

import (
	"context"

	"github.com/rotisserie/eris"
)

// Enricher recovers applicant contact details for a TopCV notification by
// following its tracking link.
type Enricher struct {
	Renderer Renderer
}

func NewEnricher(r Renderer) *Enricher {
	return &Enricher{Renderer: r}
}

// Lookup resolves the raw notification to the applicant on the linked page.
// Errors matching ErrStructure mean the message or page had an unexpected
// shape; anything else is a transport failure.
func (e *Enricher) Lookup(ctx context.Context, raw []byte) (Applicant, error) {
	u, err := FindTrackingURL(raw)
	if err != nil {
		return Applicant{}, err
	}
	if e.Renderer == nil {
		return Applicant{}, eris.New("topcv: no renderer configured")
	}

	page, err := e.Renderer.Render(ctx, u)
	if err != nil {
		return Applicant{}, err
	}
	return ScrapeApplicant(page)
}
