package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// EnsureUserConfig returns dataDir/config.yml, writing the defaults there
// first when it does not exist yet.
func EnsureUserConfig(dataDir string) (string, error) {
	userPath := filepath.Join(dataDir, "config.yml")

	_, err := os.Stat(userPath)
	if err == nil {
		return userPath, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", eris.Wrapf(err, "stat %s", userPath)
	}

	if err := SaveAtomic(userPath, Default()); err != nil {
		return "", err
	}
	return userPath, nil
}

// LoadUser bootstraps and loads the config of dataDir, then applies env
// overrides and normalization. Warnings are returned for the caller to log.
func LoadUser(dataDir string) (Config, Validation, error) {
	path, err := EnsureUserConfig(dataDir)
	if err != nil {
		return Config{}, Validation{}, err
	}
	cfg, err := Load(path)
	if err != nil {
		return cfg, Validation{}, err
	}
	cfg.App.DataDir = dataDir
	OverlayEnv(&cfg, os.Getenv)

	cfg, vr := NormalizeAndValidate(cfg)
	if !vr.OK() {
		return cfg, vr, vr.Err()
	}
	return cfg, vr, nil
}
