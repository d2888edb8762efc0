package main

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config holds the CLI configuration loaded from flags, the environment and
// an optional config file, in that order of precedence.
type Config struct {
	Host       string        `mapstructure:"host"`
	URLsFile   string        `mapstructure:"urls_file"`
	Token      string        `mapstructure:"token"`
	TokenDB    string        `mapstructure:"token_db"`
	AuthScheme string        `mapstructure:"auth_scheme"`
	Transport  string        `mapstructure:"transport"`
	Timeout    time.Duration `mapstructure:"timeout"`
	LogLevel   string        `mapstructure:"log_level"`
	Debug      bool          `mapstructure:"debug"`
}

// flag name for each config key which can be set from the command line
var configFlags = map[string]string{
	"host":        "host",
	"urls_file":   "urls",
	"token_db":    "token-db",
	"auth_scheme": "auth-scheme",
	"transport":   "transport",
	"timeout":     "timeout",
	"log_level":   "log-level",
	"debug":       "debug",
}

func loadConfig(cmd *cobra.Command, file string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()

	v.SetDefault("host", "")
	v.SetDefault("urls_file", "./urls.yaml")
	v.SetDefault("token", "")
	v.SetDefault("token_db", "./.urlservice/token.db")
	v.SetDefault("auth_scheme", "Token")
	v.SetDefault("transport", "api")
	v.SetDefault("timeout", "30s")
	v.SetDefault("log_level", "warn")
	v.SetDefault("debug", false)

	v.SetEnvPrefix("URLSERVICE")
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	flags := cmd.Root().PersistentFlags()
	for key, name := range configFlags {
		if f := flags.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	switch cfg.Transport {
	case "api", "resty":
	default:
		return nil, fmt.Errorf("invalid transport %q (must be api or resty)", cfg.Transport)
	}
	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("invalid timeout (must be positive)")
	}

	return &cfg, nil
}
