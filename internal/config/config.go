// Package config loads gtm-mcp settings from ~/.gtm-mcp, .env files and
// GTM_MCP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	configDirName  = ".gtm-mcp"
	configFileName = "config"
	envPrefix      = "GTM_MCP"

	// DirEnv overrides the configuration directory.
	DirEnv = "GTM_MCP_CONFIG_DIR"
)

type Config struct {
	// Dir is the directory the config file and default credential paths live in.
	Dir string `mapstructure:"-"`

	CredentialsFile   string        `mapstructure:"credentials_file"`
	ClientSecretsFile string        `mapstructure:"client_secrets_file"`
	Store             string        `mapstructure:"store"`
	KeyringService    string        `mapstructure:"keyring_service"`
	APIBaseURL        string        `mapstructure:"api_base_url"`
	TokenURL          string        `mapstructure:"token_url"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	CallbackAddr      string        `mapstructure:"callback_addr"`
	LogLevel          string        `mapstructure:"log_level"`
	Debug             bool          `mapstructure:"debug"`
}

// DefaultDir returns the configuration directory, ~/.gtm-mcp unless
// GTM_MCP_CONFIG_DIR is set.
func DefaultDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(DirEnv)); dir != "" {
		return expandHome(dir)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configDirName), nil
}

// Load reads configuration from the default directory.
func Load() (*Config, error) {
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}
	return LoadDir(dir)
}

// LoadDir reads configuration with dir as the configuration directory.
// A missing config file is not an error; defaults and environment
// variables still apply.
func LoadDir(dir string) (*Config, error) {
	// .env in the working directory wins over the one in dir; neither
	// overrides variables already set in the environment.
	for _, path := range []string{".env", filepath.Join(dir, ".env")} {
		_ = godotenv.Load(path)
	}

	v := viper.New()
	v.SetConfigName(configFileName)
	v.AddConfigPath(dir)

	v.SetDefault("credentials_file", filepath.Join(dir, "gtm-config.json"))
	v.SetDefault("client_secrets_file", filepath.Join(dir, "client_secret.json"))
	v.SetDefault("store", "file")
	v.SetDefault("keyring_service", "gtm-mcp")
	v.SetDefault("api_base_url", "")
	v.SetDefault("token_url", "")
	v.SetDefault("request_timeout", 30*time.Second)
	v.SetDefault("callback_addr", "localhost:3000")
	v.SetDefault("log_level", "info")
	v.SetDefault("debug", false)

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Dir = dir

	var err error
	if cfg.CredentialsFile, err = expandHome(cfg.CredentialsFile); err != nil {
		return nil, err
	}
	if cfg.ClientSecretsFile, err = expandHome(cfg.ClientSecretsFile); err != nil {
		return nil, err
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	return &cfg, nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
