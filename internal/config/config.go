// Package config loads bitext settings from flags, BITEXT_* environment
// variables, an optional .env file and an optional config file, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const EnvPrefix = "BITEXT"

type Config struct {
	APIURL  string `mapstructure:"api_url"`
	Token   string `mapstructure:"token"`
	Model   string `mapstructure:"model"`
	DB      string `mapstructure:"db"`
	Offline bool   `mapstructure:"offline"`
	Memory  bool   `mapstructure:"memory"`

	Debounce        time.Duration `mapstructure:"debounce"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	PersistTimeout  time.Duration `mapstructure:"persist_timeout"`
	ProjectionCache int           `mapstructure:"projection_cache"`

	LogLevel  string `mapstructure:"log_level"`
	LogPretty bool   `mapstructure:"log_pretty"`

	SourceLanguage string `mapstructure:"source_language"`
	TargetLanguage string `mapstructure:"target_language"`

	// RefineModel enables the Ollama editing pass when set.
	RefineModel      string `mapstructure:"refine_model"`
	ArbiterModel     string `mapstructure:"arbiter_model"`
	ValidateLanguage bool   `mapstructure:"validate_language"`

	OllamaURL         string `mapstructure:"ollama_url"`
	OllamaModel       string `mapstructure:"ollama_model"`
	OpenRouterKey     string `mapstructure:"openrouter_key"`
	MyMemoryEmail     string `mapstructure:"mymemory_email"`
	GoogleCredentials string `mapstructure:"google_credentials"`
	GoogleProject     string `mapstructure:"google_project"`
}

var defaults = map[string]interface{}{
	"api_url":            "http://127.0.0.1:8080",
	"token":              "",
	"model":              "kazllm",
	"db":                 "./data/bitext.db",
	"offline":            false,
	"memory":             false,
	"debounce":           25 * time.Millisecond,
	"request_timeout":    60 * time.Second,
	"persist_timeout":    15 * time.Second,
	"projection_cache":   256,
	"log_level":          "info",
	"log_pretty":         false,
	"source_language":    "English",
	"target_language":    "Kazakh",
	"refine_model":       "",
	"arbiter_model":      "llama3.2",
	"validate_language":  false,
	"ollama_url":         "",
	"ollama_model":       "",
	"openrouter_key":     "",
	"mymemory_email":     "",
	"google_credentials": "",
	"google_project":     "",
}

// New returns a viper instance with every key defaulted and bound to its
// BITEXT_ environment variable.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	return v
}

// Load reads envFiles (".env" when none are given) into the process
// environment, then configFile or the first bitext.* found in the working
// directory or the user config directory, and decodes the result. Missing
// files are not an error.
func Load(v *viper.Viper, configFile string, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configFile, err)
		}
	} else {
		v.SetConfigName("bitext")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "bitext"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Model) == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if c.Debounce < 0 {
		errs = append(errs, fmt.Errorf("debounce must not be negative, got %s", c.Debounce))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout))
	}
	if c.PersistTimeout <= 0 {
		errs = append(errs, fmt.Errorf("persist_timeout must be positive, got %s", c.PersistTimeout))
	}
	if c.Offline && c.DB == "" {
		errs = append(errs, errors.New("offline mode requires db"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
