package main

import (
	"context"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"applicant-engine/internal/config"
	"applicant-engine/internal/domain"
	"applicant-engine/internal/enrich/topcv"
	"applicant-engine/internal/events"
	"applicant-engine/internal/export"
	"applicant-engine/internal/mailbox"
	"applicant-engine/internal/parser"
	"applicant-engine/internal/pipeline"
	"applicant-engine/internal/secrets"
	"applicant-engine/internal/store"
)

const (
	dbFile   = "applicants.db"
	lockFile = "run.lock"
)

// engine is everything a command needs to run passes.
type engine struct {
	cfg    config.Config
	db     *store.DB // nil unless the sqlite sink is enabled
	hub    *events.Hub
	parser parser.Options
	runner *pipeline.Runner
}

// newEngine wires mailbox, parser, sinks and runner from cfg. ctx must
// outlive the engine; Google token sources refresh under it.
func newEngine(ctx context.Context, cfg config.Config) (*engine, error) {
	e := &engine{cfg: cfg, hub: events.NewHub()}

	if cfg.HasSink("sqlite") {
		db, err := store.OpenAndMigrate(cfg.Resolve(dbFile))
		if err != nil {
			return nil, err
		}
		e.db = db
	}

	sink, err := newSinks(ctx, cfg, e.db)
	if err != nil {
		_ = e.Close()
		return nil, err
	}

	e.parser = parserOptions(cfg)

	deps := pipeline.Deps{
		Open:     newOpener(cfg),
		Parser:   e.parser,
		Sink:     sink,
		MarkRead: cfg.Mailbox.MarkRead,
		Workers:  cfg.Parser.Workers,
		LockPath: cfg.Resolve(lockFile),
		OnExported: func(rec domain.ApplicantRecord) {
			e.hub.Emit(events.TypeApplicantExported, rec)
		},
	}
	if e.db != nil {
		pool := e.db.Pool
		deps.Seen = func(ctx context.Context, ids []string) (map[string]bool, error) {
			return store.SeenMailIDs(ctx, pool, ids)
		}
	}

	e.runner = pipeline.NewRunner(deps)
	e.runner.OnFinished = func(res pipeline.Result, err error) {
		payload := events.RunFinished{Result: res}
		if err != nil {
			payload.Error = err.Error()
		}
		e.hub.Emit(events.TypeRunFinished, payload)
	}
	return e, nil
}

func (e *engine) Close() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

func parserOptions(cfg config.Config) parser.Options {
	return parser.Options{
		CodePattern:  cfg.Parser.CodePattern,
		ExtraSenders: cfg.Parser.ExtraSenders,
		Enricher:     topcv.NewEnricher(newRenderer(cfg.TopCV)),
	}
}

func newRenderer(c config.TopCVConfig) topcv.Renderer {
	timeout := time.Duration(c.TimeoutSeconds) * time.Second
	if c.Renderer == "http" {
		return &topcv.HTTPRenderer{
			Client:  &http.Client{Timeout: timeout},
			Limiter: topcv.NewHostLimiter(c.RequestsPerSecond, 1),
		}
	}
	return &topcv.ChromeRenderer{
		ExecPath: c.ChromePath,
		Timeout:  timeout,
		Settle:   time.Second,
	}
}

// newOpener returns a mailbox opener for cfg.Mailbox.Kind. Credentials are
// looked up on every open so a password set while serving takes effect on
// the next pass.
func newOpener(cfg config.Config) mailbox.Opener {
	mb := cfg.Mailbox
	switch mb.Kind {
	case "gmail":
		return func(ctx context.Context) (mailbox.Source, error) {
			src, err := mailbox.NewGmailSource(ctx, mailbox.GmailConfig{
				CredentialsFile: cfg.Resolve(mb.Gmail.CredentialsFile),
				TokenFile:       cfg.Resolve(mb.Gmail.TokenFile),
				Max:             mb.MaxMessages,
			})
			if err != nil {
				return nil, err
			}
			return src, nil
		}
	case "imap":
		return func(ctx context.Context) (mailbox.Source, error) {
			pw, err := secrets.GetIMAPPassword(secrets.IMAPKeyringAccount(cfg))
			if err != nil {
				return nil, err
			}
			addr := net.JoinHostPort(mb.IMAP.Host, strconv.Itoa(mb.IMAP.Port))
			src, err := mailbox.DialIMAP(ctx, mailbox.IMAPConfig{
				Addr:      addr,
				Username:  mb.IMAP.Username,
				Password:  pw,
				Mailbox:   mb.IMAP.Mailbox,
				SinceDays: mb.IMAP.SinceDays,
				Max:       mb.MaxMessages,
				TLS:       mailbox.TLSConfigFor(addr),
			})
			if err != nil {
				return nil, err
			}
			return src, nil
		}
	default:
		return func(context.Context) (mailbox.Source, error) {
			return nil, eris.Errorf("unknown mailbox kind %q", mb.Kind)
		}
	}
}

func newSinks(ctx context.Context, cfg config.Config, db *store.DB) (export.Sink, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	var sinks export.Multi
	for _, name := range cfg.Export.Sinks {
		switch name {
		case "xlsx":
			sinks = append(sinks, export.NewXLSXSink(cfg.Resolve(cfg.Export.XLSXPath), cfg.Export.SheetName, loc))
		case "sheets":
			sc := cfg.Export.Sheets
			ts, err := mailbox.LoadOAuth(ctx, cfg.Resolve(sc.Auth.CredentialsFile), cfg.Resolve(sc.Auth.TokenFile), sheets.SpreadsheetsScope)
			if err != nil {
				return nil, eris.Wrap(err, "sheets auth")
			}
			svc, err := sheets.NewService(ctx, option.WithTokenSource(ts))
			if err != nil {
				return nil, eris.Wrap(err, "sheets service")
			}
			s, err := export.NewSheetsSink(svc, sc.SpreadsheetID, sc.Range, sc.Mode, loc)
			if err != nil {
				return nil, err
			}
			sinks = append(sinks, s)
		case "sqlite":
			if db == nil {
				return nil, eris.New("sqlite sink needs an open store")
			}
			sinks = append(sinks, export.SQLiteSink{DB: db.Pool})
		default:
			return nil, eris.Errorf("unknown sink %q", name)
		}
	}
	if len(sinks) == 0 {
		return nil, eris.New("no export sinks configured")
	}

	names := make([]string, 0, len(sinks))
	for _, s := range sinks {
		names = append(names, s.Name())
	}
	zap.L().Info("export sinks ready",
		zap.Strings("sinks", names),
		zap.String("data_dir", filepath.Clean(cfg.App.DataDir)),
	)
	return sinks, nil
}
