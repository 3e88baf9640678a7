package export

import (
	"context"
	"database/sql"

	"go.uber.org/zap"

	"applicant-engine/internal/domain"
	"applicant-engine/internal/store"
)

// SQLiteSink records exported applicants locally so the HTTP API can list
// them. Re-exports of a mail id are ignored.
type SQLiteSink struct {
	DB *sql.DB
}

func (s SQLiteSink) Name() string { return "sqlite" }

func (s SQLiteSink) Write(ctx context.Context, recs []domain.ApplicantRecord) error {
	if len(recs) == 0 {
		return nil
	}
	added, err := store.InsertApplicants(ctx, s.DB, recs)
	if err != nil {
		return err
	}
	zap.L().Debug("sqlite: applicants stored", zap.Int("added", added), zap.Int("ignored", len(recs)-added))
	return nil
}
