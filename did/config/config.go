package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Default values
const (
	DefaultCacheSize         = 100
	DefaultTimeout           = 10 * time.Second
	DefaultUserAgent         = "go-dpp-verifier/did"
	DefaultMaxDocumentBytes  = 1 << 20
	DefaultValidateDocuments = true
	DefaultLogLevel          = "info"
)

// Configuration keys. Each is also read from the environment with the
// DPP_VERIFIER_ prefix, e.g. DPP_VERIFIER_DID_TIMEOUT=5s.
const (
	KeyCacheSize         = "did_cache_size"
	KeyTimeout           = "did_timeout"
	KeyUserAgent         = "did_user_agent"
	KeyMaxDocumentBytes  = "did_max_document_bytes"
	KeyValidateDocuments = "did_validate_documents"
	KeyLogLevel          = "log_level"

	EnvPrefix = "DPP_VERIFIER"
)

var defaults = map[string]interface{}{
	KeyCacheSize:         DefaultCacheSize,
	KeyTimeout:           DefaultTimeout,
	KeyUserAgent:         DefaultUserAgent,
	KeyMaxDocumentBytes:  DefaultMaxDocumentBytes,
	KeyValidateDocuments: DefaultValidateDocuments,
	KeyLogLevel:          DefaultLogLevel,
}

// Config holds the DID resolver settings.
type Config struct {
	CacheSize         int
	Timeout           time.Duration
	UserAgent         string
	MaxDocumentBytes  int64
	ValidateDocuments bool
	LogLevel          string
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		CacheSize:         DefaultCacheSize,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxDocumentBytes:  DefaultMaxDocumentBytes,
		ValidateDocuments: DefaultValidateDocuments,
		LogLevel:          DefaultLogLevel,
	}
}

// Load reads the configuration from the environment and, when present, a
// dpp-verifier.yaml file in the working directory or $HOME/.dpp-verifier.
func Load() (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigName("dpp-verifier")
	v.AddConfigPath("$HOME/.dpp-verifier")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper builds a Config from an existing viper instance, applying
// defaults and environment overrides.
func FromViper(v *viper.Viper) (Config, error) {
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	cfg := Config{
		CacheSize:         v.GetInt(KeyCacheSize),
		Timeout:           v.GetDuration(KeyTimeout),
		UserAgent:         v.GetString(KeyUserAgent),
		MaxDocumentBytes:  v.GetInt64(KeyMaxDocumentBytes),
		ValidateDocuments: v.GetBool(KeyValidateDocuments),
		LogLevel:          v.GetString(KeyLogLevel),
	}

	if cfg.CacheSize < 0 {
		return Config{}, fmt.Errorf("%s must not be negative, got %d", KeyCacheSize, cfg.CacheSize)
	}
	if cfg.Timeout <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %s", KeyTimeout, cfg.Timeout)
	}
	if cfg.MaxDocumentBytes <= 0 {
		return Config{}, fmt.Errorf("%s must be positive, got %d", KeyMaxDocumentBytes, cfg.MaxDocumentBytes)
	}

	return cfg, nil
}
