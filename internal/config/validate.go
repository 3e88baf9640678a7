package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// Err folds the errors into one, or nil.
func (v Validation) Err() error {
	if v.OK() {
		return nil
	}
	return eris.New("config validation failed:\n- " + strings.Join(v.Errors, "\n- "))
}

var senderKinds = map[string]bool{
	"ahamove": true, "topcv": true, "careerbuilder": true, "personal": true, "careerlink": true,
}

// NormalizeAndValidate returns a normalized copy of cfg plus what is wrong
// with it.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	lower := func(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

	out.Log.Level = lower(out.Log.Level)
	out.Log.Format = lower(out.Log.Format)
	out.Mailbox.Kind = lower(out.Mailbox.Kind)
	out.TopCV.Renderer = lower(out.TopCV.Renderer)
	out.Export.Sheets.Mode = lower(out.Export.Sheets.Mode)

	seen := map[string]bool{}
	var sinks []string
	for _, s := range out.Export.Sinks {
		s = lower(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		sinks = append(sinks, s)
	}
	out.Export.Sinks = sinks

	if len(out.Parser.ExtraSenders) > 0 {
		senders := make(map[string]string, len(out.Parser.ExtraSenders))
		for addr, kind := range out.Parser.ExtraSenders {
			senders[lower(addr)] = lower(kind)
		}
		out.Parser.ExtraSenders = senders
	}

	// ---- Validation rules ----

	if out.App.Port <= 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	switch out.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		res.addErr("log.level must be debug|info|warn|error, got %q", out.Log.Level)
	}
	if out.Log.Format != "json" && out.Log.Format != "console" {
		res.addErr("log.format must be json|console, got %q", out.Log.Format)
	}

	if out.Polling.Seconds <= 0 {
		res.addErr("polling.seconds must be > 0")
	} else if out.Polling.Seconds < 30 {
		res.addWarn("polling.seconds is very low (%d) and may hit mailbox rate limits.", out.Polling.Seconds)
	}

	switch out.Mailbox.Kind {
	case "imap":
		// password is not required here; it lives in the keyring
		if strings.TrimSpace(out.Mailbox.IMAP.Host) == "" {
			res.addErr("mailbox.imap.host is required when mailbox.kind=imap")
		}
		if out.Mailbox.IMAP.Port <= 0 || out.Mailbox.IMAP.Port > 65535 {
			res.addErr("mailbox.imap.port must be 1..65535")
		}
		if strings.TrimSpace(out.Mailbox.IMAP.Username) == "" {
			res.addWarn("mailbox.imap.username is empty; runs will fail until it is set.")
		}
		if out.Mailbox.IMAP.SinceDays < 0 {
			res.addErr("mailbox.imap.since_days must be >= 0")
		}
	case "gmail":
		if out.Mailbox.Gmail.CredentialsFile == "" || out.Mailbox.Gmail.TokenFile == "" {
			res.addErr("mailbox.gmail.credentials_file and token_file are required when mailbox.kind=gmail")
		}
	default:
		res.addErr("mailbox.kind must be imap|gmail, got %q", out.Mailbox.Kind)
	}
	if out.Mailbox.MaxMessages <= 0 {
		res.addErr("mailbox.max_messages must be > 0")
	}
	if !out.Mailbox.MarkRead {
		res.addWarn("mailbox.mark_read is false; the same mail will be fetched on every pass.")
	}

	if out.Parser.CodePattern != "" {
		if _, err := regexp.Compile(out.Parser.CodePattern); err != nil {
			res.addErr("parser.code_pattern is not a valid regexp: %v", err)
		}
	}
	for addr, kind := range out.Parser.ExtraSenders {
		if !strings.Contains(addr, "@") {
			res.addErr("parser.extra_senders: %q is not an address", addr)
		}
		if !senderKinds[kind] {
			res.addErr("parser.extra_senders[%q]: unknown kind %q", addr, kind)
		}
	}
	if out.Parser.Workers <= 0 {
		res.addErr("parser.workers must be > 0")
	}

	switch out.TopCV.Renderer {
	case "chrome", "http":
	default:
		res.addErr("topcv.renderer must be chrome|http, got %q", out.TopCV.Renderer)
	}
	if out.TopCV.TimeoutSeconds <= 0 {
		res.addErr("topcv.timeout_seconds must be > 0")
	}
	if out.TopCV.RequestsPerSecond <= 0 {
		res.addErr("topcv.requests_per_second must be > 0")
	}

	if len(out.Export.Sinks) == 0 {
		res.addErr("export.sinks must name at least one of xlsx|sheets|sqlite")
	}
	for _, s := range out.Export.Sinks {
		switch s {
		case "xlsx":
			if strings.TrimSpace(out.Export.XLSXPath) == "" {
				res.addErr("export.xlsx_path is required for the xlsx sink")
			}
		case "sheets":
			if strings.TrimSpace(out.Export.Sheets.SpreadsheetID) == "" {
				res.addErr("export.sheets.spreadsheet_id is required for the sheets sink")
			}
			if m := out.Export.Sheets.Mode; m != "write" && m != "append" {
				res.addErr("export.sheets.mode must be write|append, got %q", m)
			}
			if m := out.Export.Sheets.Mode; m == "write" {
				res.addWarn("export.sheets.mode=write overwrites the range on every pass.")
			}
		case "sqlite":
		default:
			res.addErr("export.sinks: unknown sink %q", s)
		}
	}
	if _, err := time.LoadLocation(out.Export.Timezone); err != nil || out.Export.Timezone == "" {
		res.addErr("export.timezone %q is not a known zone", out.Export.Timezone)
	}

	return out, res
}
