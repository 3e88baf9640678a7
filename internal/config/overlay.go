package config

import (
	"strconv"
	"strings"
)

// OverlayEnv applies APPLICANT_* environment overrides on top of the file.
func OverlayEnv(cfg *Config, getenv func(string) string) {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("APPLICANT_LOG_LEVEL", &cfg.Log.Level)
	str("APPLICANT_LOG_FORMAT", &cfg.Log.Format)
	num("APPLICANT_PORT", &cfg.App.Port)
	num("APPLICANT_POLL_SECONDS", &cfg.Polling.Seconds)
	str("APPLICANT_MAILBOX_KIND", &cfg.Mailbox.Kind)
	str("APPLICANT_IMAP_HOST", &cfg.Mailbox.IMAP.Host)
	num("APPLICANT_IMAP_PORT", &cfg.Mailbox.IMAP.Port)
	str("APPLICANT_IMAP_USERNAME", &cfg.Mailbox.IMAP.Username)
	str("APPLICANT_TOPCV_RENDERER", &cfg.TopCV.Renderer)
	str("APPLICANT_CHROME_PATH", &cfg.TopCV.ChromePath)
	str("APPLICANT_SPREADSHEET_ID", &cfg.Export.Sheets.SpreadsheetID)

	if v := strings.TrimSpace(getenv("APPLICANT_SINKS")); v != "" {
		cfg.Export.Sinks = strings.Split(v, ",")
	}
}
