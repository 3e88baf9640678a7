package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"applicant-engine/internal/domain"
	"applicant-engine/internal/export"
	"applicant-engine/internal/mailbox"
	"applicant-engine/internal/parser"
)

// ErrRunInProgress is returned when another pass holds the run lock.
var ErrRunInProgress = eris.New("pipeline: another run is in progress")

// Deps is everything one pass needs. Parser.Raw is filled with the opened
// source on every pass.
type Deps struct {
	Open   mailbox.Opener
	Parser parser.Options
	Sink   export.Sink

	// MarkRead flags messages handled without error once the sink accepted
	// the batch.
	MarkRead bool
	Workers  int
	// LockPath guards against overlapping passes on one data dir; empty
	// disables locking.
	LockPath string
	// Seen reports mail ids exported by an earlier pass. Those are not
	// parsed again. Optional.
	Seen func(ctx context.Context, ids []string) (map[string]bool, error)
	// OnExported is called for every record the sink accepted. Optional.
	OnExported func(domain.ApplicantRecord)
}

type Result struct {
	Fetched   int           `json:"fetched"`
	Skipped   int           `json:"skipped"`
	Parsed    int           `json:"parsed"`
	Exported  int           `json:"exported"`
	Discarded int           `json:"discarded"`
	Failed    int           `json:"failed"`
	Took      time.Duration `json:"took_ns"`
}

type outcome struct {
	rec *domain.ApplicantRecord
	err error
}

// RunOnce drains unread mail into the sink: fetch, parse in parallel, keep
// records with a position, export, then mark read. Per-message failures are
// counted and logged; only mailbox, sink and lock failures abort the pass.
func RunOnce(ctx context.Context, d Deps) (res Result, err error) {
	start := time.Now()
	defer func() { res.Took = time.Since(start) }()

	if d.Open == nil || d.Sink == nil {
		return res, eris.New("pipeline: source and sink are required")
	}

	if d.LockPath != "" {
		lock := flock.New(d.LockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return res, eris.Wrapf(err, "pipeline: lock %s", d.LockPath)
		}
		if !ok {
			return res, ErrRunInProgress
		}
		defer func() { _ = lock.Unlock() }()
	}

	src, err := d.Open(ctx)
	if err != nil {
		return res, eris.Wrap(err, "pipeline: open mailbox")
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			zap.L().Debug("pipeline: close mailbox", zap.Error(cerr))
		}
	}()

	msgs, err := src.Unread(ctx)
	if err != nil {
		return res, eris.Wrap(err, "pipeline: list unread")
	}
	res.Fetched = len(msgs)

	msgs, skipped := skipSeen(ctx, d.Seen, msgs)
	res.Skipped = len(skipped)
	if len(msgs) == 0 {
		if err := markRead(ctx, d, src, skipped); err != nil {
			return res, err
		}
		zap.L().Info("pipeline: nothing to do", zap.Int("fetched", res.Fetched), zap.Int("skipped", res.Skipped))
		return res, nil
	}

	opts := d.Parser
	opts.Raw = src
	p, err := parser.New(opts)
	if err != nil {
		return res, eris.Wrap(err, "pipeline: build parser")
	}

	outcomes := parseAll(ctx, p, msgs, d.Workers)

	// Already exported mail counts as handled, so a pass whose mark-read
	// failed does not leave it unread forever.
	var (
		keep    []domain.ApplicantRecord
		handled = skipped
	)
	for i, o := range outcomes {
		msg := msgs[i]
		switch {
		case o.err != nil:
			res.Failed++
			logFailure(msg, o.err)
			continue
		case o.rec == nil:
			res.Discarded++
		case !o.rec.HasPosition():
			res.Parsed++
			res.Discarded++
			zap.L().Debug("pipeline: no position, dropped",
				zap.String("mail_id", msg.MailID), zap.String("source", string(o.rec.Source)))
		default:
			res.Parsed++
			keep = append(keep, *o.rec)
		}
		handled = append(handled, msg.MailID)
	}

	if err := d.Sink.Write(ctx, keep); err != nil {
		return res, eris.Wrap(err, "pipeline: export")
	}
	res.Exported = len(keep)

	if d.OnExported != nil {
		for _, r := range keep {
			d.OnExported(r)
		}
	}

	if err := markRead(ctx, d, src, handled); err != nil {
		return res, err
	}

	zap.L().Info("pipeline: pass finished",
		zap.Int("fetched", res.Fetched),
		zap.Int("skipped", res.Skipped),
		zap.Int("parsed", res.Parsed),
		zap.Int("exported", res.Exported),
		zap.Int("discarded", res.Discarded),
		zap.Int("failed", res.Failed),
	)
	return res, nil
}

func parseAll(ctx context.Context, p *parser.Parser, msgs []domain.RawMessage, workers int) []outcome {
	if workers <= 0 {
		workers = 4
	}
	out := make([]outcome, len(msgs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range msgs {
		g.Go(func() error {
			rec, err := p.Parse(ctx, msgs[i])
			out[i] = outcome{rec: rec, err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func markRead(ctx context.Context, d Deps, src mailbox.Source, ids []string) error {
	if !d.MarkRead || len(ids) == 0 {
		return nil
	}
	if err := src.MarkRead(ctx, ids); err != nil {
		return eris.Wrap(err, "pipeline: mark read")
	}
	return nil
}

// skipSeen drops messages already exported and returns their ids.
func skipSeen(ctx context.Context, seen func(context.Context, []string) (map[string]bool, error), msgs []domain.RawMessage) ([]domain.RawMessage, []string) {
	if seen == nil || len(msgs) == 0 {
		return msgs, nil
	}
	ids := make([]string, len(msgs))
	for i, m := range msgs {
		ids[i] = m.MailID
	}
	known, err := seen(ctx, ids)
	if err != nil {
		zap.L().Warn("pipeline: seen lookup failed, parsing everything", zap.Error(err))
		return msgs, nil
	}

	out := msgs[:0:0]
	var skipped []string
	for _, m := range msgs {
		if known[m.MailID] {
			skipped = append(skipped, m.MailID)
			continue
		}
		out = append(out, m)
	}
	return out, skipped
}

func logFailure(msg domain.RawMessage, err error) {
	fields := []zap.Field{zap.String("mail_id", msg.MailID), zap.String("from", msg.FromMail), zap.Error(err)}
	switch {
	case errors.Is(err, parser.ErrMissingSource), errors.Is(err, parser.ErrUnsupportedSource):
		zap.L().Warn("pipeline: message skipped", fields...)
	default:
		zap.L().Error("pipeline: message failed", fields...)
	}
}
