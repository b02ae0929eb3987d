// Package config provides configuration management for webbridge.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// ErrConfigNotFound indicates no usable config file was found.
var ErrConfigNotFound = errors.New("config not found")

// Config matches the structure of webbridge.json
type Config struct {
	Gateway GatewayConfig `json:"gateway" yaml:"gateway" mapstructure:"gateway"`
	Web     WebConfig     `json:"web" yaml:"web" mapstructure:"web"`
	Logging LoggingConfig `json:"logging" yaml:"logging" mapstructure:"logging"`
	Bot     BotConfig     `json:"bot" yaml:"bot" mapstructure:"bot"`
}

type GatewayConfig struct {
	Host            string        `json:"host" yaml:"host" mapstructure:"host" validate:"required"`
	Port            int           `json:"port" yaml:"port" mapstructure:"port" validate:"min=1,max=65535"`
	BodyLimit       string        `json:"bodyLimit" yaml:"bodyLimit" mapstructure:"bodyLimit"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

type WebConfig struct {
	// Path is the chat endpoint.
	Path string `json:"path" yaml:"path" mapstructure:"path" validate:"required,startswith=/"`
	// MatchingData lists body fields a request must carry to be handled by the web driver.
	// Stored as a list so field names keep their case.
	MatchingData []MatchRule      `json:"matchingData" yaml:"matchingData" mapstructure:"matchingData" validate:"dive"`
	Attachments  AttachmentConfig `json:"attachments" yaml:"attachments" mapstructure:"attachments"`
}

type MatchRule struct {
	Field string `json:"field" yaml:"field" mapstructure:"field" validate:"required"`
	Value string `json:"value" yaml:"value" mapstructure:"value"`
}

type AttachmentConfig struct {
	MaxBytes      int64         `json:"maxBytes" yaml:"maxBytes" mapstructure:"maxBytes"`
	ProbeMime     bool          `json:"probeMime" yaml:"probeMime" mapstructure:"probeMime"`
	SpoolDir      string        `json:"spoolDir" yaml:"spoolDir" mapstructure:"spoolDir"`
	SweepSchedule string        `json:"sweepSchedule" yaml:"sweepSchedule" mapstructure:"sweepSchedule"`
	MaxAge        time.Duration `json:"maxAge" yaml:"maxAge" mapstructure:"maxAge"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level" mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console auto"`
}

type BotConfig struct {
	// Defaults installs the built-in ping/help/echo listeners.
	Defaults bool `json:"defaults" yaml:"defaults" mapstructure:"defaults"`
}

// MatchingMap returns the matching rules as a field to value map.
func (w WebConfig) MatchingMap() map[string]string {
	out := make(map[string]string, len(w.MatchingData))
	for _, r := range w.MatchingData {
		out[r.Field] = r.Value
	}
	return out
}

// StateDir returns the webbridge state directory path.
// Can be overridden via WEBBRIDGE_STATE_DIR environment variable.
// Default: ~/.webbridge
func StateDir() string {
	if override := strings.TrimSpace(os.Getenv("WEBBRIDGE_STATE_DIR")); override != "" {
		return expandPath(override)
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ".webbridge"
	}
	return filepath.Join(home, ".webbridge")
}

// ConfigPath returns the default config file path.
// Can be overridden via WEBBRIDGE_CONFIG_PATH environment variable.
// Default: ~/.webbridge/webbridge.json
func ConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("WEBBRIDGE_CONFIG_PATH")); override != "" {
		return expandPath(override)
	}
	return filepath.Join(StateDir(), "webbridge.json")
}

// SpoolDir returns the configured upload spool directory, defaulting to <state>/uploads.
func (c *Config) SpoolDir() string {
	if dir := strings.TrimSpace(c.Web.Attachments.SpoolDir); dir != "" {
		return expandPath(dir)
	}
	return filepath.Join(StateDir(), "uploads")
}

// expandPath expands ~ to home directory and resolves the path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

// LoadViper loads the configuration into a Viper instance. When no config file exists the
// returned instance still carries defaults and environment overrides, alongside
// ErrConfigNotFound.
func LoadViper() (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	if configPath := strings.TrimSpace(os.Getenv("WEBBRIDGE_CONFIG_PATH")); configPath != "" {
		expandedPath := expandPath(configPath)
		fileInfo, err := os.Stat(expandedPath)
		if err == nil && fileInfo.IsDir() {
			v.SetConfigName("webbridge")
			v.AddConfigPath(expandedPath)
		} else {
			v.SetConfigFile(expandedPath)
		}
	} else {
		v.SetConfigName("webbridge")
		v.AddConfigPath(StateDir())
	}

	v.SetEnvPrefix("WEBBRIDGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return v, ErrConfigNotFound
		}
		return nil, err
	}

	return v, nil
}

// Load reads the configuration from file and environment variables.
// A missing config file is not an error: defaults are used.
func Load() (*Config, error) {
	v, err := LoadViper()
	if err != nil && !errors.Is(err, ErrConfigNotFound) {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	// Gateway defaults
	v.SetDefault("gateway.host", "127.0.0.1")
	v.SetDefault("gateway.port", 8080)
	v.SetDefault("gateway.bodyLimit", "64M")
	v.SetDefault("gateway.shutdownTimeout", "10s")

	// Web driver defaults
	v.SetDefault("web.path", "/chat")
	v.SetDefault("web.matchingData", []map[string]any{{"field": "driver", "value": "web"}})
	v.SetDefault("web.attachments.maxBytes", 25*1024*1024)
	v.SetDefault("web.attachments.probeMime", true)
	v.SetDefault("web.attachments.sweepSchedule", "@every 10m")
	v.SetDefault("web.attachments.maxAge", "1h")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "auto")

	v.SetDefault("bot.defaults", true)
}

// Save saves the configuration to the config file.
// Only JSON format is supported.
func Save(cfg *Config) error {
	configPath := ConfigPath()

	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0600)
}

var validate = validator.New()

// Validate checks the config against its field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config: %s failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
