// Package config loads the optional fuji configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the optional fuji configuration file.
type Config struct {
	Defaults DefaultsConfig `toml:"defaults"`
}

// DefaultsConfig holds persistent flag defaults. Pointer fields
// distinguish "unset" from a zero value so flag defaults win.
type DefaultsConfig struct {
	Examiner      *string `toml:"examiner"`
	ImageName     *string `toml:"image_name"`
	Tmp           *string `toml:"tmp"`
	Destination   *string `toml:"destination"`
	KeepAwake     *bool   `toml:"keep_awake"`
	BWLimit       *string `toml:"bwlimit"`
	Journal       *bool   `toml:"journal"`
	NativeDialogs *bool   `toml:"native_dialogs"`
}

// Path returns where the config file lives:
// $XDG_CONFIG_HOME/fuji/config.toml, or ~/.config/fuji/config.toml
// when XDG_CONFIG_HOME is unset.
func Path() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "fuji", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "fuji", "config.toml")
}

// Load reads the config file if present. A missing file is not an
// error: every setting is optional and the zero Config defers to
// flag defaults.
func Load() (Config, error) {
	var cfg Config

	path := Path()
	if path == "" {
		return cfg, nil
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	if err := toml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}
