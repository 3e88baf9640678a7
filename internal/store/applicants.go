package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"applicant-engine/internal/domain"
)

// sqliteTime matches datetime('now'), so window filters compare as text.
const sqliteTime = "2006-01-02 15:04:05"

type ListApplicantsOpts struct {
	Source string // exact source label, empty for all
	Window string // 24h | 7d | 30d | all
	Limit  int
}

// InsertApplicants stores records keyed by mail_id, ignoring ones already
// present. It returns how many rows were new.
func InsertApplicants(ctx context.Context, db *sql.DB, recs []domain.ApplicantRecord) (added int, err error) {
	if len(recs) == 0 {
		return 0, nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "begin insert applicants")
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO applicants
  (mail_id, received_at, source, name, phone, email, city, position, code, exported_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return 0, eris.Wrap(err, "prepare insert applicant")
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(sqliteTime)
	for _, r := range recs {
		if strings.TrimSpace(r.MailID) == "" {
			return 0, eris.Errorf("insert applicant: empty mail_id (%s)", r.Source)
		}
		res, err := stmt.ExecContext(ctx,
			r.MailID, r.ReceivedAt.UTC().Format(sqliteTime), string(r.Source),
			r.Name, r.Phone, r.Email, r.City, r.Position, r.Code, now,
		)
		if err != nil {
			return 0, eris.Wrapf(err, "insert applicant %s", r.MailID)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "commit applicants")
	}
	return added, nil
}

func ListApplicants(ctx context.Context, db *sql.DB, opts ListApplicantsOpts) ([]domain.ApplicantRecord, error) {
	if opts.Limit <= 0 || opts.Limit > 5000 {
		opts.Limit = 500
	}

	var (
		where []string
		args  []any
	)
	switch opts.Window {
	case "24h":
		where = append(where, "received_at >= datetime('now','-24 hours')")
	case "7d":
		where = append(where, "received_at >= datetime('now','-7 days')")
	case "30d":
		where = append(where, "received_at >= datetime('now','-30 days')")
	case "", "all":
	default:
		return nil, eris.Errorf("unknown window %q", opts.Window)
	}
	if opts.Source != "" {
		where = append(where, "source = ?")
		args = append(args, opts.Source)
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	query := fmt.Sprintf(`
SELECT mail_id, received_at, source, name, phone, email, city, position, code
FROM applicants
%s
ORDER BY received_at DESC, id DESC
LIMIT ?;`, clause)
	args = append(args, opts.Limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "list applicants")
	}
	defer rows.Close()

	out := []domain.ApplicantRecord{}
	for rows.Next() {
		var (
			r        domain.ApplicantRecord
			received string
			source   string
		)
		if err := rows.Scan(&r.MailID, &received, &source, &r.Name, &r.Phone, &r.Email, &r.City, &r.Position, &r.Code); err != nil {
			return nil, eris.Wrap(err, "scan applicant")
		}
		r.Source = domain.Source(source)
		r.ReceivedAt, _ = time.ParseInLocation(sqliteTime, received, time.UTC)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "iterate applicants")
	}
	return out, nil
}

// SeenMailIDs reports which of ids are already stored.
func SeenMailIDs(ctx context.Context, db *sql.DB, ids []string) (map[string]bool, error) {
	seen := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return seen, nil
	}
	ph := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := db.QueryContext(ctx, `SELECT mail_id FROM applicants WHERE mail_id IN (`+ph+`);`, args...)
	if err != nil {
		return nil, eris.Wrap(err, "query seen mail ids")
	}
	defer rows.Close()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "scan mail id")
		}
		seen[id] = true
	}
	return seen, rows.Err()
}
