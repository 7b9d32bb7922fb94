// Package config resolves settings from defaults, a duckparse.yaml file,
// DUCKPARSE_* environment variables and command line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/japaniel/duckparse/internal/logging"
	"github.com/japaniel/duckparse/pkg/language"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "DUCKPARSE"

// Config is the resolved configuration.
type Config struct {
	Engine        EngineConfig   `mapstructure:"engine"`
	Language      string         `mapstructure:"language"`
	ParseDatetime bool           `mapstructure:"parse-datetime"`
	CacheSize     int            `mapstructure:"cache-size"`
	DB            string         `mapstructure:"db"`
	Server        ServerConfig   `mapstructure:"server"`
	Log           logging.Config `mapstructure:"log"`

	// Lang is Language resolved by Load.
	Lang language.Language `mapstructure:"-"`
	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// EngineConfig selects the extraction engine. Replay wins over Offline,
// which wins over URL.
type EngineConfig struct {
	URL     string `mapstructure:"url"`
	Replay  string `mapstructure:"replay"`
	Offline bool   `mapstructure:"offline"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var defaults = map[string]any{
	"engine.url":     "http://localhost:8000",
	"engine.replay":  "",
	"engine.offline": false,
	"language":       "en",
	"parse-datetime": false,
	"cache-size":     128,
	"db":             "duckparse.db",
	"server.addr":    ":8080",
	"log.level":      "info",
	"log.format":     "text",
	"log.file":       "",
}

// flagKeys maps flag names to configuration keys.
var flagKeys = map[string]string{
	"engine-url":     "engine.url",
	"replay":         "engine.replay",
	"offline":        "engine.offline",
	"lang":           "language",
	"parse-datetime": "parse-datetime",
	"cache-size":     "cache-size",
	"db":             "db",
	"addr":           "server.addr",
	"log-level":      "log.level",
	"log-format":     "log.format",
	"log-file":       "log.file",
}

// RegisterFlags adds the flags Load knows how to bind.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("engine-url", "", "base URL of the extraction engine")
	fs.String("replay", "", "serve engine output recorded in this directory")
	fs.Bool("offline", false, "use the built-in English time engine")
	fs.StringP("lang", "l", "", "default language (code or name)")
	fs.Bool("parse-datetime", false, "return time values as timestamps")
	fs.Int("cache-size", 0, "engine calls with a reference time to keep cached")
	fs.String("db", "", "sqlite database path")
	fs.String("addr", "", "listen address of the API server")
	fs.String("log-level", "", "debug, info, warn or error")
	fs.String("log-format", "", "text or json")
	fs.String("log-file", "", "write logs to this file, rotated by size")
}

// Load resolves the configuration. An explicit path must exist; otherwise
// duckparse.yaml is looked up in the working directory and then in the
// user config directory. A .env file in the working directory is applied
// to the environment first. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", name, err)
				}
			}
		}
	}

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("duckparse")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "duckparse"))
		}
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	l, err := language.Parse(c.Language)
	if err != nil {
		return fmt.Errorf("language: %w", err)
	}
	c.Lang = l
	if c.CacheSize < 0 {
		return fmt.Errorf("cache-size must not be negative, got %d", c.CacheSize)
	}
	return c.Log.Validate()
}
