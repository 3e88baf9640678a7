package config

import (
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

func Validate(cfg Config) error {
	_, vr := NormalizeAndValidate(cfg)
	return vr.Err()
}

// SaveAtomic writes cfg through a temp file and keeps the previous file as
// path.bak.
func SaveAtomic(path string, cfg Config) error {
	if err := Validate(cfg); err != nil {
		return err
	}

	// data_dir is derived at load time
	cfg.App.DataDir = ""
	b, err := yaml.Marshal(&cfg)
	if err != nil {
		return eris.Wrap(err, "marshal config")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "create config dir")
	}

	tmp := path + ".tmp"
	bak := path + ".bak"

	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return eris.Wrap(err, "write config")
	}

	_ = os.Remove(bak)
	_ = os.Rename(path, bak)

	if err := os.Rename(tmp, path); err != nil {
		return eris.Wrap(err, "replace config")
	}
	return nil
}
