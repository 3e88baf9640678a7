package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// EnvDataDir overrides where config, database, workbook and lock live.
const EnvDataDir = "APPLICANT_DATA_DIR"

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug | info | warn | error
	Format string `yaml:"format" json:"format"` // json | console
}

type IMAPConfig struct {
	Host      string `yaml:"host" json:"host"`
	Port      int    `yaml:"port" json:"port"`
	Username  string `yaml:"username" json:"username"`
	Mailbox   string `yaml:"mailbox" json:"mailbox"`
	SinceDays int    `yaml:"since_days" json:"since_days"`
}

type GoogleAuth struct {
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`
	TokenFile       string `yaml:"token_file" json:"token_file"`
}

type MailboxConfig struct {
	Kind        string     `yaml:"kind" json:"kind"` // imap | gmail
	IMAP        IMAPConfig `yaml:"imap" json:"imap"`
	Gmail       GoogleAuth `yaml:"gmail" json:"gmail"`
	MarkRead    bool       `yaml:"mark_read" json:"mark_read"`
	MaxMessages int        `yaml:"max_messages" json:"max_messages"`
}

type ParserConfig struct {
	// CodePattern extracts referral codes; empty disables them.
	CodePattern string `yaml:"code_pattern" json:"code_pattern"`
	// ExtraSenders maps an address to ahamove|topcv|careerbuilder|personal|careerlink.
	ExtraSenders map[string]string `yaml:"extra_senders,omitempty" json:"extra_senders,omitempty"`
	Workers      int               `yaml:"workers" json:"workers"`
}

type TopCVConfig struct {
	Renderer          string  `yaml:"renderer" json:"renderer"` // chrome | http
	ChromePath        string  `yaml:"chrome_path" json:"chrome_path"`
	TimeoutSeconds    int     `yaml:"timeout_seconds" json:"timeout_seconds"`
	RequestsPerSecond float64 `yaml:"requests_per_second" json:"requests_per_second"`
}

type SheetsConfig struct {
	SpreadsheetID string     `yaml:"spreadsheet_id" json:"spreadsheet_id"`
	Range         string     `yaml:"range" json:"range"`
	Mode          string     `yaml:"mode" json:"mode"` // write | append
	Auth          GoogleAuth `yaml:"auth" json:"auth"`
}

type ExportConfig struct {
	Sinks     []string     `yaml:"sinks" json:"sinks"` // xlsx | sheets | sqlite
	XLSXPath  string       `yaml:"xlsx_path" json:"xlsx_path"`
	SheetName string       `yaml:"sheet_name" json:"sheet_name"`
	Sheets    SheetsConfig `yaml:"sheets" json:"sheets"`
	Timezone  string       `yaml:"timezone" json:"timezone"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port" json:"port"`
		DataDir string `yaml:"data_dir" json:"data_dir"`
	} `yaml:"app" json:"app"`

	Log LogConfig `yaml:"log" json:"log"`

	Polling struct {
		Seconds int `yaml:"seconds" json:"seconds"`
	} `yaml:"polling" json:"polling"`

	Mailbox MailboxConfig `yaml:"mailbox" json:"mailbox"`
	Parser  ParserConfig  `yaml:"parser" json:"parser"`
	TopCV   TopCVConfig   `yaml:"topcv" json:"topcv"`
	Export  ExportConfig  `yaml:"export" json:"export"`
}

func Default() Config {
	var cfg Config
	cfg.App.Port = 38471
	cfg.Log = LogConfig{Level: "info", Format: "console"}
	cfg.Polling.Seconds = 300
	cfg.Mailbox = MailboxConfig{
		Kind: "imap",
		IMAP: IMAPConfig{
			Host:      "imap.gmail.com",
			Port:      993,
			Mailbox:   "INBOX",
			SinceDays: 30,
		},
		Gmail:       GoogleAuth{CredentialsFile: "credentials.json", TokenFile: "gmail_token.json"},
		MarkRead:    true,
		MaxMessages: 500,
	}
	cfg.Parser = ParserConfig{Workers: 4}
	cfg.TopCV = TopCVConfig{Renderer: "chrome", TimeoutSeconds: 30, RequestsPerSecond: 1}
	cfg.Export = ExportConfig{
		Sinks:     []string{"xlsx", "sqlite"},
		XLSXPath:  "applicants.xlsx",
		SheetName: "Sheet1",
		Sheets: SheetsConfig{
			Range: "Sheet1",
			Mode:  "append",
			Auth:  GoogleAuth{CredentialsFile: "credentials.json", TokenFile: "sheets_token.json"},
		},
		Timezone: "Asia/Bangkok",
	}
	return cfg
}

// Load reads path over Default, so omitted keys keep their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, eris.Wrapf(err, "read config %s", path)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, eris.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// DataDir returns $APPLICANT_DATA_DIR, or applicant-engine under the user
// config dir.
func DataDir() (string, error) {
	if d := strings.TrimSpace(os.Getenv(EnvDataDir)); d != "" {
		return d, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", eris.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(base, "applicant-engine"), nil
}

// Resolve makes a configured file path absolute relative to the data dir.
func (c Config) Resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || c.App.DataDir == "" {
		return p
	}
	return filepath.Join(c.App.DataDir, p)
}

func (c Config) Location() (*time.Location, error) {
	tz := c.Export.Timezone
	if tz == "" {
		tz = "Asia/Bangkok"
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, eris.Wrapf(err, "load timezone %q", tz)
	}
	return loc, nil
}

func (c Config) HasSink(name string) bool {
	for _, s := range c.Export.Sinks {
		if s == name {
			return true
		}
	}
	return false
}
