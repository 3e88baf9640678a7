package mailbox

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// savingTokenSource writes the token back to path whenever the wrapped
// source hands out a new access token, so refreshed and rotated tokens
// survive a restart.
type savingTokenSource struct {
	src  oauth2.TokenSource
	path string

	mu   sync.Mutex
	last string
}

func newSavingTokenSource(src oauth2.TokenSource, path string, current *oauth2.Token) *savingTokenSource {
	s := &savingTokenSource{src: src, path: path}
	if current != nil {
		s.last = current.AccessToken
	}
	return s
}

func (s *savingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := s.src.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken == s.last {
		return tok, nil
	}
	// A failed write only costs a refresh on the next start.
	if err := saveToken(s.path, tok); err != nil {
		zap.L().Warn("oauth: could not persist refreshed token", zap.String("path", s.path), zap.Error(err))
		return tok, nil
	}
	s.last = tok.AccessToken
	zap.L().Debug("oauth: token refreshed", zap.String("path", s.path), zap.Time("expiry", tok.Expiry))
	return tok, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read token %s", path)
	}
	var tok oauth2.Token
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, eris.Wrapf(err, "decode token %s", path)
	}
	return &tok, nil
}

// saveToken replaces path atomically with owner-only permissions.
func saveToken(path string, tok *oauth2.Token) error {
	b, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode token")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o600); err != nil {
		return eris.Wrapf(err, "write %s", tmp)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return eris.Wrapf(err, "replace %s", path)
	}
	return nil
}
