// Package config loads alerting-service settings from the environment
// (and an optional TOML file overlay), the same env-var-first pattern
// the original Python service used via pydantic-settings.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// sentinelSecretKey is the default signing key shipped in source; startup
// must refuse to run with this value outside development.
const sentinelSecretKey = "CHANGE_ME_IN_PRODUCTION"

// Settings holds every configuration knob the engine and its management
// API need, mirroring spec.md §6's Configuration section field for field.
type Settings struct {
	AppName    string `mapstructure:"app_name"`
	AppVersion string `mapstructure:"app_version"`
	Environment string `mapstructure:"environment"`
	Debug       bool   `mapstructure:"debug"`

	APIHost string `mapstructure:"api_host"`
	APIPort int    `mapstructure:"api_port"`

	LogLevel string `mapstructure:"log_level"`

	OpenSearchHost        string `mapstructure:"opensearch_host"`
	OpenSearchPort        int    `mapstructure:"opensearch_port"`
	OpenSearchScheme      string `mapstructure:"opensearch_scheme"`
	OpenSearchUser        string `mapstructure:"opensearch_user"`
	OpenSearchPassword    string `mapstructure:"opensearch_password"`
	OpenSearchVerifyCerts bool   `mapstructure:"opensearch_verify_certs"`
	OpenSearchTimeout     int    `mapstructure:"opensearch_timeout"`

	AuthEnabled bool   `mapstructure:"auth_enabled"`
	SecretKey   string `mapstructure:"secret_key"`
	Algorithm   string `mapstructure:"algorithm"`

	AlertRulesDir    string `mapstructure:"alert_rules_dir"`
	AlertStateIndex  string `mapstructure:"alert_state_index"`
	AlertHistoryIndex string `mapstructure:"alert_history_index"`
	WebhookTimeout   int    `mapstructure:"webhook_timeout"`
	WebhookRetries   int    `mapstructure:"webhook_retries"`
}

// OpenSearchURL returns the scheme://host:port the client connects to.
func (s Settings) OpenSearchURL() string {
	return fmt.Sprintf("%s://%s:%d", s.OpenSearchScheme, s.OpenSearchHost, s.OpenSearchPort)
}

// Load reads settings from the environment, optionally overlaid by a
// TOML config file at configFile (empty string skips the file lookup).
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)
	bindEnv(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %q: %w", configFile, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("decoding settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "Vaultize Alerting Service")
	v.SetDefault("app_version", "0.1.0")
	v.SetDefault("environment", "development")
	v.SetDefault("debug", false)

	v.SetDefault("api_host", "0.0.0.0")
	v.SetDefault("api_port", 8001)

	v.SetDefault("log_level", "INFO")

	v.SetDefault("opensearch_host", "localhost")
	v.SetDefault("opensearch_port", 9200)
	v.SetDefault("opensearch_scheme", "http")
	v.SetDefault("opensearch_user", "admin")
	v.SetDefault("opensearch_password", "admin")
	v.SetDefault("opensearch_verify_certs", false)
	v.SetDefault("opensearch_timeout", 30)

	v.SetDefault("auth_enabled", false)
	v.SetDefault("secret_key", sentinelSecretKey)
	v.SetDefault("algorithm", "HS256")

	v.SetDefault("alert_rules_dir", "configs/alert-rules")
	v.SetDefault("alert_state_index", ".alerts-state")
	v.SetDefault("alert_history_index", ".alerts-history")
	v.SetDefault("webhook_timeout", 10)
	v.SetDefault("webhook_retries", 3)
}

// envAliases maps settings keys to the environment variable each one is
// read from, bound through BindEnv because several names differ from the
// upper-cased key AutomaticEnv would look up. app_name, app_version and
// algorithm have no alias.
var envAliases = map[string]string{
	"environment":             "ENVIRONMENT",
	"debug":                   "DEBUG",
	"api_host":                "ALERTING_API_HOST",
	"api_port":                "ALERTING_API_PORT",
	"log_level":               "LOG_LEVEL",
	"opensearch_host":         "OPENSEARCH_HOST",
	"opensearch_port":         "OPENSEARCH_PORT",
	"opensearch_scheme":       "OPENSEARCH_SCHEME",
	"opensearch_user":         "OPENSEARCH_ADMIN_USERNAME",
	"opensearch_password":     "OPENSEARCH_ADMIN_PASSWORD",
	"opensearch_verify_certs": "OPENSEARCH_VERIFY_CERTS",
	"opensearch_timeout":      "OPENSEARCH_TIMEOUT",
	"auth_enabled":            "AUTH_ENABLED",
	"secret_key":              "API_SECRET_KEY",
	"alert_rules_dir":         "ALERT_RULES_DIR",
	"alert_state_index":       "ALERT_STATE_INDEX",
	"alert_history_index":     "ALERT_HISTORY_INDEX",
	"webhook_timeout":         "WEBHOOK_TIMEOUT",
	"webhook_retries":         "WEBHOOK_RETRIES",
}

func bindEnv(v *viper.Viper) {
	for key, env := range envAliases {
		_ = v.BindEnv(key, env)
	}
}

// Validate enforces spec.md §6's production invariant: outside
// "development", authentication must be enabled and the signing key
// must differ from the shipped sentinel default.
func (s Settings) Validate() error {
	if strings.ToLower(s.LogLevel) == "" {
		return fmt.Errorf("log_level must not be empty")
	}
	allowedLevels := map[string]bool{"DEBUG": true, "INFO": true, "WARNING": true, "ERROR": true, "CRITICAL": true}
	if !allowedLevels[strings.ToUpper(s.LogLevel)] {
		return fmt.Errorf("log_level must be one of DEBUG, INFO, WARNING, ERROR, CRITICAL, got %q", s.LogLevel)
	}
	if s.OpenSearchScheme != "http" && s.OpenSearchScheme != "https" {
		return fmt.Errorf("opensearch_scheme must be 'http' or 'https', got %q", s.OpenSearchScheme)
	}

	if !strings.EqualFold(s.Environment, "development") {
		if !s.AuthEnabled {
			return fmt.Errorf("auth_enabled must be true outside development (environment=%q)", s.Environment)
		}
		if s.SecretKey == sentinelSecretKey {
			return fmt.Errorf("secret_key must not be the default sentinel value outside development")
		}
	}
	return nil
}
