package mailbox

import (
	"context"
	"encoding/base64"
	"net/mail"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"applicant-engine/internal/domain"
)

const (
	gmailUser        = "me"
	gmailUnreadLabel = "UNREAD"
	gmailBatchLimit  = 1000
)

type GmailConfig struct {
	// CredentialsFile is the OAuth client secret JSON downloaded from the
	// Google console; TokenFile holds an authorized user token.
	CredentialsFile string
	TokenFile       string
	Max             int
}

// GmailSource reads the UNREAD label through the Gmail API.
type GmailSource struct {
	svc *gmail.Service
	max int
}

// LoadOAuth builds a token source from a client secret file and a stored
// token, for the given scopes. Refreshed tokens are written back to
// tokenFile.
func LoadOAuth(ctx context.Context, credentialsFile, tokenFile string, scopes ...string) (oauth2.TokenSource, error) {
	secret, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, eris.Wrapf(err, "read credentials %s", credentialsFile)
	}
	conf, err := google.ConfigFromJSON(secret, scopes...)
	if err != nil {
		return nil, eris.Wrap(err, "parse credentials")
	}

	tok, err := loadToken(tokenFile)
	if err != nil {
		return nil, err
	}
	return newSavingTokenSource(conf.TokenSource(ctx, tok), tokenFile, tok), nil
}

func NewGmailSource(ctx context.Context, cfg GmailConfig) (*GmailSource, error) {
	ts, err := LoadOAuth(ctx, cfg.CredentialsFile, cfg.TokenFile, gmail.GmailModifyScope)
	if err != nil {
		return nil, err
	}
	svc, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, eris.Wrap(err, "gmail service")
	}
	return NewGmailSourceWithService(svc, cfg.Max), nil
}

// NewGmailSourceWithService wraps an existing client, e.g. one pointed at a
// test server with option.WithEndpoint.
func NewGmailSourceWithService(svc *gmail.Service, max int) *GmailSource {
	if max <= 0 {
		max = 500
	}
	return &GmailSource{svc: svc, max: max}
}

func (s *GmailSource) Unread(ctx context.Context) ([]domain.RawMessage, error) {
	var ids []string
	pageToken := ""
	for len(ids) < s.max {
		call := s.svc.Users.Messages.List(gmailUser).LabelIds(gmailUnreadLabel).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, eris.Wrap(err, "gmail list unread")
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}
	if len(ids) > s.max {
		ids = ids[:s.max]
	}

	out := make([]domain.RawMessage, 0, len(ids))
	for _, id := range ids {
		m, err := s.svc.Users.Messages.Get(gmailUser, id).Format("full").Context(ctx).Do()
		if err != nil {
			return nil, eris.Wrapf(err, "gmail get %s", id)
		}
		out = append(out, gmailMessage(m))
	}
	return out, nil
}

func (s *GmailSource) Raw(ctx context.Context, mailID string) ([]byte, error) {
	m, err := s.svc.Users.Messages.Get(gmailUser, mailID).Format("raw").Context(ctx).Do()
	if err != nil {
		return nil, eris.Wrapf(err, "gmail get raw %s", mailID)
	}
	b, err := decodeGmailData(m.Raw)
	if err != nil {
		return nil, eris.Wrapf(err, "gmail decode raw %s", mailID)
	}
	return b, nil
}

// MarkRead removes the UNREAD label in batches of at most 1000 ids.
func (s *GmailSource) MarkRead(ctx context.Context, mailIDs []string) error {
	for start := 0; start < len(mailIDs); start += gmailBatchLimit {
		end := min(start+gmailBatchLimit, len(mailIDs))
		req := &gmail.BatchModifyMessagesRequest{
			Ids:            mailIDs[start:end],
			RemoveLabelIds: []string{gmailUnreadLabel},
		}
		if err := s.svc.Users.Messages.BatchModify(gmailUser, req).Context(ctx).Do(); err != nil {
			return eris.Wrapf(err, "gmail batch modify %d..%d", start, end)
		}
	}
	return nil
}

func (s *GmailSource) Close() error { return nil }

// gmailMessage maps a format=full message. The body is the first part's
// data, or the snippet when the payload is not multipart.
func gmailMessage(m *gmail.Message) domain.RawMessage {
	out := domain.RawMessage{MailID: m.Id}
	if m.Payload == nil {
		out.Body = m.Snippet
		return out
	}

	for _, h := range m.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			out.FromMail = bareAddress(h.Value)
		case "reply-to":
			out.ReplyTo = bareAddress(h.Value)
		case "subject":
			out.Subject = strings.TrimSpace(h.Value)
		case "date":
			if t, err := mail.ParseDate(h.Value); err == nil {
				out.Date = t
			} else {
				zap.L().Debug("gmail: unparsable date", zap.String("mail_id", m.Id), zap.String("date", h.Value))
			}
		}
	}
	if out.Date.IsZero() && m.InternalDate > 0 {
		out.Date = time.UnixMilli(m.InternalDate)
	}

	out.Body = m.Snippet
	if len(m.Payload.Parts) > 0 && m.Payload.Parts[0].Body != nil && m.Payload.Parts[0].Body.Data != "" {
		if b, err := decodeGmailData(m.Payload.Parts[0].Body.Data); err == nil {
			out.Body = string(b)
		}
	}
	return out
}

// decodeGmailData accepts base64url with or without padding.
func decodeGmailData(s string) ([]byte, error) {
	s = strings.TrimRight(s, "=")
	return base64.RawURLEncoding.DecodeString(s)
}
