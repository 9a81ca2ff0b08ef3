// Package config resolves runtime settings from flags, MENUBUILDER_* environment variables and an
// optional YAML config file, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"menu-builder/internal/store"
)

const (
	EnvPrefix   = "MENUBUILDER"
	DefaultAddr = ":9876"
)

type Config struct {
	// File is the config file that was read, or "" when none was found.
	File string `json:"file,omitempty"`

	DB       string `json:"db"`
	Addr     string `json:"addr"`
	Server   string `json:"server,omitempty"`
	LogLevel string `json:"logLevel,omitempty"`
	Format   string `json:"format"`
	Pretty   bool   `json:"pretty"`
}

// flagKeys maps config keys to the flag names that override them.
var flagKeys = map[string]string{
	"db":        "db",
	"addr":      "addr",
	"server":    "server",
	"log_level": "log-level",
	"format":    "format",
	"pretty":    "pretty",
}

// DefaultFile is $XDG_CONFIG_HOME/menubuilder/config.yaml.
func DefaultFile() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "menubuilder", "config.yaml"), nil
}

// Load reads the configuration. An explicit file must exist; the default file is optional.
// Flags present in flags are bound to their keys; nil flags is allowed.
func Load(file string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	dbPath, err := store.DefaultPath()
	if err != nil {
		return Config{}, err
	}
	v.SetDefault("db", dbPath)
	v.SetDefault("addr", DefaultAddr)
	v.SetDefault("server", "")
	v.SetDefault("log_level", "")
	v.SetDefault("format", "json")
	v.SetDefault("pretty", false)

	if flags != nil {
		for key, name := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, err
				}
			}
		}
	}

	explicit := strings.TrimSpace(file) != ""
	if !explicit {
		if file, err = DefaultFile(); err != nil {
			file = ""
		}
	}
	used := ""
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			var pathErr *os.PathError
			notFound := errors.As(err, &pathErr) || errors.As(err, new(viper.ConfigFileNotFoundError))
			if explicit || !notFound {
				return Config{}, fmt.Errorf("read config %s: %w", file, err)
			}
		} else {
			used = v.ConfigFileUsed()
		}
	}

	cfg := Config{
		File:     used,
		DB:       strings.TrimSpace(v.GetString("db")),
		Addr:     strings.TrimSpace(v.GetString("addr")),
		Server:   strings.TrimSpace(v.GetString("server")),
		LogLevel: strings.TrimSpace(v.GetString("log_level")),
		Format:   strings.ToLower(strings.TrimSpace(v.GetString("format"))),
		Pretty:   v.GetBool("pretty"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Format {
	case "json", "yaml", "yml":
	default:
		return fmt.Errorf("invalid format %q (want json|yaml)", c.Format)
	}
	if c.DB == "" {
		return errors.New("db path must not be empty")
	}
	return nil
}
