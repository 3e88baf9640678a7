package secrets

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/zalando/go-keyring"

	"applicant-engine/internal/config"
)

const (
	// KeyringService groups the engine's secrets in the OS keychain.
	KeyringService = "applicant-engine"

	// EnvIMAPPassword is read when the keyring has no entry, for headless hosts.
	EnvIMAPPassword = "APPLICANT_IMAP_PASSWORD"
)

var ErrNotFound = eris.New("IMAP password not found (set it with `secret set` or " + EnvIMAPPassword + ")")

func GetIMAPPassword(keyringAccount string) (string, error) {
	if strings.TrimSpace(keyringAccount) != "" {
		pw, err := keyring.Get(KeyringService, keyringAccount)
		if err == nil && strings.TrimSpace(pw) != "" {
			return pw, nil
		}
	}
	if pw := os.Getenv(EnvIMAPPassword); strings.TrimSpace(pw) != "" {
		return pw, nil
	}
	return "", ErrNotFound
}

func SetIMAPPassword(keyringAccount string, password string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return eris.New("keyring account name is empty")
	}
	if strings.TrimSpace(password) == "" {
		return eris.New("password is empty")
	}
	return eris.Wrap(keyring.Set(KeyringService, keyringAccount, password), "keyring set")
}

func DeleteIMAPPassword(keyringAccount string) error {
	if strings.TrimSpace(keyringAccount) == "" {
		return eris.New("keyring account name is empty")
	}
	return eris.Wrap(keyring.Delete(KeyringService, keyringAccount), "keyring delete")
}

func IMAPKeyringAccount(cfg config.Config) string {
	return fmt.Sprintf(
		"applicant-engine:imap:%s@%s",
		cfg.Mailbox.IMAP.Username,
		cfg.Mailbox.IMAP.Host,
	)
}
