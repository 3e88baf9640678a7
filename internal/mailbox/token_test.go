package mailbox

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubTokens struct {
	tok *oauth2.Token
	err error
}

func (s *stubTokens) Token() (*oauth2.Token, error) { return s.tok, s.err }

func TestSavingTokenSource_PersistsRefreshedToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gmail_token.json")
	initial := &oauth2.Token{AccessToken: "old", RefreshToken: "r1", TokenType: "Bearer"}
	require.NoError(t, saveToken(path, initial))

	stub := &stubTokens{tok: initial}
	ts := newSavingTokenSource(stub, path, initial)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "old", tok.AccessToken)

	stub.tok = &oauth2.Token{
		AccessToken:  "new",
		RefreshToken: "r2",
		TokenType:    "Bearer",
		Expiry:       time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	tok, err = ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)

	saved, err := loadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "new", saved.AccessToken)
	assert.Equal(t, "r2", saved.RefreshToken)
	assert.True(t, saved.Expiry.Equal(stub.tok.Expiry))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	assert.NoFileExists(t, path+".tmp")
}

func TestSavingTokenSource_UnchangedTokenIsNotRewritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token.json")
	tok := &oauth2.Token{AccessToken: "same"}
	ts := newSavingTokenSource(&stubTokens{tok: tok}, path, tok)

	_, err := ts.Token()
	require.NoError(t, err)
	assert.NoFileExists(t, path)
}

func TestSavingTokenSource_WriteFailureKeepsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "token.json")
	ts := newSavingTokenSource(&stubTokens{tok: &oauth2.Token{AccessToken: "fresh"}}, path, nil)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)
}

func TestSavingTokenSource_PropagatesErrors(t *testing.T) {
	ts := newSavingTokenSource(&stubTokens{err: errors.New("invalid_grant")}, filepath.Join(t.TempDir(), "t.json"), nil)

	_, err := ts.Token()
	assert.EqualError(t, err, "invalid_grant")
}

func TestLoadToken_Errors(t *testing.T) {
	dir := t.TempDir()
	_, err := loadToken(filepath.Join(dir, "absent.json"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{"), 0o600))
	_, err = loadToken(bad)
	assert.Error(t, err)
}
