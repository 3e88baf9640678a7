package mailbox

import (
	"context"
	"crypto/tls"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"applicant-engine/internal/domain"
)

type IMAPConfig struct {
	Addr     string // host:port
	Username string
	Password string
	Mailbox  string
	// SinceDays bounds the UNSEEN search; older mail is never considered.
	SinceDays int
	// Max caps messages per Unread call, newest kept.
	Max int
	TLS *tls.Config
}

// IMAPSource reads a single mailbox over IMAPS. Message ids are UIDs.
type IMAPSource struct {
	cfg IMAPConfig
	c   *imapclient.Client

	mu  sync.Mutex
	raw map[imap.UID][]byte

	done      chan struct{}
	closeOnce sync.Once
}

func TLSConfigFor(addr string) *tls.Config {
	host := addr
	if i := strings.LastIndex(addr, ":"); i > 0 {
		host = addr[:i]
	}
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		ServerName: host,
	}
}

// DialIMAP connects, logs in and selects the configured mailbox. The
// connection is closed when ctx is done.
func DialIMAP(ctx context.Context, cfg IMAPConfig) (*IMAPSource, error) {
	if cfg.Addr == "" {
		return nil, eris.New("imap addr is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, eris.New("imap username/password is required")
	}
	if cfg.Mailbox == "" {
		cfg.Mailbox = "INBOX"
	}
	if cfg.Max <= 0 {
		cfg.Max = 500
	}
	if cfg.TLS == nil {
		cfg.TLS = TLSConfigFor(cfg.Addr)
	}

	c, err := imapclient.DialTLS(cfg.Addr, &imapclient.Options{TLSConfig: cfg.TLS})
	if err != nil {
		return nil, eris.Wrap(err, "imap dial tls")
	}

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = c.Close()
		case <-done:
		}
	}()

	if err := c.Login(cfg.Username, cfg.Password).Wait(); err != nil {
		close(done)
		_ = c.Close()
		return nil, eris.Wrap(err, "imap login")
	}
	if _, err := c.Select(cfg.Mailbox, &imap.SelectOptions{ReadOnly: false}).Wait(); err != nil {
		close(done)
		_ = c.Close()
		return nil, eris.Wrapf(err, "imap select %q", cfg.Mailbox)
	}

	return &IMAPSource{cfg: cfg, c: c, raw: make(map[imap.UID][]byte), done: done}, nil
}

// Unread fetches envelope and full body of UNSEEN messages with BODY.PEEK[],
// so nothing is flagged \Seen until MarkRead.
func (s *IMAPSource) Unread(ctx context.Context) ([]domain.RawMessage, error) {
	criteria := &imap.SearchCriteria{NotFlag: []imap.Flag{imap.FlagSeen}}
	if s.cfg.SinceDays > 0 {
		criteria.Since = time.Now().AddDate(0, 0, -s.cfg.SinceDays)
	}

	searchData, err := s.c.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, eris.Wrap(err, "imap uid search unseen")
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return []domain.RawMessage{}, nil
	}

	// Newest first
	for i, j := 0, len(uids)-1; i < j; i, j = i+1, j-1 {
		uids[i], uids[j] = uids[j], uids[i]
	}
	if len(uids) > s.cfg.Max {
		uids = uids[:s.cfg.Max]
	}

	fetched, err := s.fetch(ctx, uids, true)
	if err != nil {
		return nil, err
	}

	out := make([]domain.RawMessage, 0, len(fetched))
	for _, f := range fetched {
		id := formatUID(f.uid)
		msg, perr := ParseRFC822(id, f.raw)
		if perr != nil {
			zap.L().Warn("imap: undecodable message", zap.String("mail_id", id), zap.Error(perr))
		}
		if msg.FromMail == "" {
			msg.FromMail = f.from
		}
		if msg.Subject == "" {
			msg.Subject = f.subject
		}
		if msg.Date.IsZero() {
			msg.Date = f.date
		}
		out = append(out, msg)
	}
	return out, nil
}

func (s *IMAPSource) Raw(ctx context.Context, mailID string) ([]byte, error) {
	uid, err := parseUID(mailID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	b, ok := s.raw[uid]
	s.mu.Unlock()
	if ok {
		return b, nil
	}

	fetched, err := s.fetch(ctx, []imap.UID{uid}, false)
	if err != nil {
		return nil, err
	}
	if len(fetched) == 0 || len(fetched[0].raw) == 0 {
		return nil, eris.Errorf("imap: message %s not found", mailID)
	}
	return fetched[0].raw, nil
}

// MarkRead sets \Seen on the given UIDs.
func (s *IMAPSource) MarkRead(_ context.Context, mailIDs []string) error {
	if len(mailIDs) == 0 {
		return nil
	}
	uids := make([]imap.UID, 0, len(mailIDs))
	for _, id := range mailIDs {
		uid, err := parseUID(id)
		if err != nil {
			return err
		}
		uids = append(uids, uid)
	}

	storeFlags := &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}
	if err := s.c.Store(imap.UIDSetNum(uids...), storeFlags, nil).Close(); err != nil {
		return eris.Wrap(err, "imap store add seen")
	}
	return nil
}

// Close logs out then closes the connection.
func (s *IMAPSource) Close() error {
	if s == nil || s.c == nil {
		return nil
	}
	s.closeOnce.Do(func() { close(s.done) })
	if err := s.c.Logout().Wait(); err != nil {
		zap.L().Debug("imap logout", zap.Error(err))
	}
	return s.c.Close()
}

type fetchedMessage struct {
	uid     imap.UID
	from    string
	subject string
	date    time.Time
	raw     []byte
}

func (s *IMAPSource) fetch(ctx context.Context, uids []imap.UID, envelope bool) ([]fetchedMessage, error) {
	bodyAll := &imap.FetchItemBodySection{
		Specifier: imap.PartSpecifierNone,
		Peek:      true,
	}
	opts := &imap.FetchOptions{
		UID:         true,
		Envelope:    envelope,
		BodySection: []*imap.FetchItemBodySection{bodyAll},
	}

	cmd := s.c.Fetch(imap.UIDSetNum(uids...), opts)
	defer func() { _ = cmd.Close() }()

	out := make([]fetchedMessage, 0, len(uids))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		msgData := cmd.Next()
		if msgData == nil {
			break
		}
		buf, err := msgData.Collect()
		if err != nil {
			return nil, eris.Wrap(err, "imap fetch collect")
		}

		f := fetchedMessage{uid: buf.UID}
		if buf.Envelope != nil {
			f.subject = buf.Envelope.Subject
			f.date = buf.Envelope.Date
			if len(buf.Envelope.From) > 0 {
				f.from = strings.ToLower(buf.Envelope.From[0].Addr())
			}
		}
		if b := buf.FindBodySection(bodyAll); b != nil {
			f.raw = append([]byte(nil), b...)
		}

		s.mu.Lock()
		s.raw[f.uid] = f.raw
		s.mu.Unlock()

		out = append(out, f)
	}

	if err := cmd.Close(); err != nil {
		return nil, eris.Wrap(err, "imap fetch close")
	}
	return out, nil
}

func formatUID(uid imap.UID) string {
	return strconv.FormatUint(uint64(uid), 10)
}

func parseUID(id string) (imap.UID, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(id), 10, 32)
	if err != nil || n == 0 {
		return 0, eris.Errorf("imap: invalid uid %q", id)
	}
	return imap.UID(n), nil
}
