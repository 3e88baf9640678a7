package export

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"applicant-engine/internal/domain"
)

// Sink receives the records of one pipeline pass. Implementations skip
// empty batches.
type Sink interface {
	Name() string
	Write(ctx context.Context, recs []domain.ApplicantRecord) error
}

// Multi writes to every sink in order. A failing sink does not stop the
// others; all failures are joined.
type Multi []Sink

func (m Multi) Name() string { return "multi" }

func (m Multi) Write(ctx context.Context, recs []domain.ApplicantRecord) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, recs); err != nil {
			errs = append(errs, eris.Wrapf(err, "sink %s", s.Name()))
		}
	}
	return errors.Join(errs...)
}
