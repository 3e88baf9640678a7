package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestDefault_IsValid(t *testing.T) {
	cfg, vr := NormalizeAndValidate(Default())
	assert.True(t, vr.OK(), vr.Errors)
	assert.NoError(t, vr.Err())
	assert.Equal(t, []string{"xlsx", "sqlite"}, cfg.Export.Sinks)
	assert.Equal(t, "Asia/Bangkok", cfg.Export.Timezone)
}

func TestEnsureUserConfig_WritesDefaultsOnce(t *testing.T) {
	dir := t.TempDir()

	path, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "config.yml"), path)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	require.NoError(t, os.WriteFile(path, []byte("polling:\n  seconds: 60\n"), 0o644))
	again, err := EnsureUserConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, path, again)

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Polling.Seconds)
	assert.Equal(t, "imap.gmail.com", cfg.Mailbox.IMAP.Host, "omitted keys keep defaults")
}

func TestLoadUser_AppliesDataDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("APPLICANT_IMAP_USERNAME", "hr@example.com")
	t.Setenv("APPLICANT_SINKS", "XLSX, sqlite,xlsx")

	cfg, vr, err := LoadUser(dir)
	require.NoError(t, err)
	assert.True(t, vr.OK())

	assert.Equal(t, dir, cfg.App.DataDir)
	assert.Equal(t, "hr@example.com", cfg.Mailbox.IMAP.Username)
	assert.Equal(t, []string{"xlsx", "sqlite"}, cfg.Export.Sinks)
	assert.Equal(t, filepath.Join(dir, "applicants.xlsx"), cfg.Resolve(cfg.Export.XLSXPath))
	assert.Equal(t, "/abs/x.xlsx", cfg.Resolve("/abs/x.xlsx"))
}

func TestSaveAtomic_RejectsInvalidAndKeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, SaveAtomic(path, Default()))

	bad := Default()
	bad.Mailbox.Kind = "pop3"
	assert.Error(t, SaveAtomic(path, bad))

	next := Default()
	next.Polling.Seconds = 120
	next.App.DataDir = "/should/not/persist"
	require.NoError(t, SaveAtomic(path, next))

	_, err := os.Stat(path + ".bak")
	assert.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 120, cfg.Polling.Seconds)
	assert.Empty(t, cfg.App.DataDir)
}

func TestNormalizeAndValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
		wantOK  bool
	}{
		{
			name:   "extra senders are lowered",
			mutate: func(c *Config) { c.Parser.ExtraSenders = map[string]string{" HR@CareerLink.vn ": "CareerLink"} },
			wantOK: true,
		},
		{
			name:    "unknown sender kind",
			mutate:  func(c *Config) { c.Parser.ExtraSenders = map[string]string{"a@b.c": "linkedin"} },
			wantErr: "unknown kind",
		},
		{
			name:    "bad code pattern",
			mutate:  func(c *Config) { c.Parser.CodePattern = "(" },
			wantErr: "parser.code_pattern",
		},
		{
			name:    "sheets sink needs id",
			mutate:  func(c *Config) { c.Export.Sinks = []string{"sheets"} },
			wantErr: "spreadsheet_id",
		},
		{
			name:    "unknown sink",
			mutate:  func(c *Config) { c.Export.Sinks = []string{"csv"} },
			wantErr: "unknown sink",
		},
		{
			name:    "bad timezone",
			mutate:  func(c *Config) { c.Export.Timezone = "Mars/Olympus" },
			wantErr: "export.timezone",
		},
		{
			name:    "renderer",
			mutate:  func(c *Config) { c.TopCV.Renderer = "phantom" },
			wantErr: "topcv.renderer",
		},
		{
			name:   "gmail mailbox",
			mutate: func(c *Config) { c.Mailbox.Kind = " Gmail " },
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			_, vr := NormalizeAndValidate(cfg)
			if tt.wantOK {
				assert.True(t, vr.OK(), vr.Errors)
				return
			}
			require.False(t, vr.OK())
			assert.ErrorContains(t, vr.Err(), tt.wantErr)
		})
	}
}

func TestNormalize_LowersSenders(t *testing.T) {
	cfg := Default()
	cfg.Parser.ExtraSenders = map[string]string{" HR@CareerLink.vn ": "CareerLink"}
	out, _ := NormalizeAndValidate(cfg)
	assert.Equal(t, map[string]string{"hr@careerlink.vn": "careerlink"}, out.Parser.ExtraSenders)
}

func TestNormalize_WarnsWhenNotMarkingRead(t *testing.T) {
	cfg := Default()
	cfg.Mailbox.MarkRead = false
	_, vr := NormalizeAndValidate(cfg)
	assert.True(t, vr.OK())
	assert.NotEmpty(t, vr.Warnings)
}

func TestLocation(t *testing.T) {
	cfg := Default()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Bangkok", loc.String())

	cfg.Export.Timezone = "Nowhere/Town"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	prev := zap.L()
	t.Cleanup(func() { zap.ReplaceGlobals(prev) })

	require.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "json"}))
	assert.True(t, zap.L().Core().Enabled(zap.DebugLevel))

	assert.Error(t, InitLogger(LogConfig{Level: "loud", Format: "console"}))
}

func TestOverlayEnv_IgnoresBadNumbers(t *testing.T) {
	cfg := Default()
	env := map[string]string{"APPLICANT_PORT": "nope", "APPLICANT_POLL_SECONDS": "90"}
	OverlayEnv(&cfg, func(k string) string { return env[k] })
	assert.Equal(t, 38471, cfg.App.Port)
	assert.Equal(t, 90, cfg.Polling.Seconds)
}

func TestHasSink(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.HasSink("xlsx"))
	assert.False(t, cfg.HasSink("sheets"))
}
