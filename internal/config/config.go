package config

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the complete client configuration
type Config struct {
	API     APIConfig     `yaml:"api"`
	Voice   VoiceConfig   `yaml:"voice"`
	UI      UIConfig      `yaml:"ui"`
	Status  StatusConfig  `yaml:"status"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig contains storefront service configuration
type APIConfig struct {
	BaseURL       string  `yaml:"base_url" env:"STOREFRONT_API_BASE_URL"`
	Timeout       float64 `yaml:"timeout" env:"STOREFRONT_API_TIMEOUT"` // seconds
	MaxConcurrent int     `yaml:"max_concurrent" env:"STOREFRONT_API_MAX_CONCURRENT"`
	SessionCookie string  `yaml:"session_cookie" env:"STOREFRONT_SESSION_COOKIE"`
	UserAgent     string  `yaml:"user_agent" env:"STOREFRONT_USER_AGENT"`
}

// VoiceConfig contains voice input configuration
type VoiceConfig struct {
	RecordDuration   float64  `yaml:"record_duration" env:"STOREFRONT_VOICE_RECORD_DURATION"` // seconds
	DefaultLanguage  string   `yaml:"default_language" env:"STOREFRONT_VOICE_LANGUAGE"`
	Fields           []string `yaml:"fields" env:"STOREFRONT_VOICE_FIELDS" env-separator:","`
	InputFile        string   `yaml:"input_file" env:"STOREFRONT_VOICE_INPUT_FILE"` // WAV replayed as the microphone
	FragmentInterval float64  `yaml:"fragment_interval" env:"STOREFRONT_VOICE_FRAGMENT_INTERVAL"` // seconds
}

// UIConfig contains page behaviour timings
type UIConfig struct {
	NotificationTTL float64 `yaml:"notification_ttl" env:"STOREFRONT_UI_NOTIFICATION_TTL"` // seconds
	SearchDebounce  float64 `yaml:"search_debounce" env:"STOREFRONT_UI_SEARCH_DEBOUNCE"`   // seconds
}

// StatusConfig contains the monitoring server configuration
type StatusConfig struct {
	Enabled bool   `yaml:"enabled" env:"STOREFRONT_STATUS_ENABLED"`
	Address string `yaml:"address" env:"STOREFRONT_STATUS_ADDRESS"`
	Port    int    `yaml:"port" env:"STOREFRONT_STATUS_PORT"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" env:"STOREFRONT_LOG_LEVEL"`
	Format string `yaml:"format" env:"STOREFRONT_LOG_FORMAT"`
	Output string `yaml:"output" env:"STOREFRONT_LOG_OUTPUT"`
}

// Default returns the configuration used for keys the file leaves out
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:       "http://localhost:5000",
			Timeout:       30,
			MaxConcurrent: 4,
			UserAgent:     "storefront-client/1.0",
		},
		Voice: VoiceConfig{
			RecordDuration:   5,
			DefaultLanguage:  "en",
			Fields:           []string{"title", "description"},
			FragmentInterval: 0.1,
		},
		UI: UIConfig{
			NotificationTTL: 3,
			SearchDebounce:  0.3,
		},
		Status: StatusConfig{
			Enabled: false,
			Address: "127.0.0.1",
			Port:    9090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// LoadDotEnv loads variables from a .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration file over the defaults, applies environment overrides and validates
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cleanenv.ReadEnv(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("api config: %w", err)
	}

	if err := c.Voice.Validate(); err != nil {
		return fmt.Errorf("voice config: %w", err)
	}

	if err := c.UI.Validate(); err != nil {
		return fmt.Errorf("ui config: %w", err)
	}

	if err := c.Status.Validate(); err != nil {
		return fmt.Errorf("status config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates storefront service configuration
func (a *APIConfig) Validate() error {
	if a.BaseURL == "" {
		return fmt.Errorf("base_url cannot be empty")
	}

	u, err := url.Parse(a.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute http(s) URL, got '%s'", a.BaseURL)
	}

	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %f", a.Timeout)
	}

	if a.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be at least 1, got %d", a.MaxConcurrent)
	}

	return nil
}

// Validate validates voice configuration
func (v *VoiceConfig) Validate() error {
	if v.RecordDuration <= 0 {
		return fmt.Errorf("record_duration must be positive, got %f", v.RecordDuration)
	}

	if v.DefaultLanguage == "" {
		return fmt.Errorf("default_language cannot be empty")
	}

	if len(v.Fields) == 0 {
		return fmt.Errorf("fields must name at least one voice input field")
	}

	seen := make(map[string]bool, len(v.Fields))
	for _, field := range v.Fields {
		if field == "" {
			return fmt.Errorf("fields cannot contain an empty id")
		}
		if seen[field] {
			return fmt.Errorf("duplicate field '%s'", field)
		}
		seen[field] = true
	}

	if v.FragmentInterval <= 0 || v.FragmentInterval > v.RecordDuration {
		return fmt.Errorf("fragment_interval must be in (0, record_duration], got %f", v.FragmentInterval)
	}

	return nil
}

// Validate validates UI timings
func (u *UIConfig) Validate() error {
	if u.NotificationTTL <= 0 {
		return fmt.Errorf("notification_ttl must be positive, got %f", u.NotificationTTL)
	}

	if u.SearchDebounce < 0 {
		return fmt.Errorf("search_debounce cannot be negative, got %f", u.SearchDebounce)
	}

	return nil
}

// Validate validates status server configuration
func (s *StatusConfig) Validate() error {
	if s.Enabled {
		if s.Port < 1 || s.Port > 65535 {
			return fmt.Errorf("status port must be between 1 and 65535, got %d", s.Port)
		}

		if s.Address == "" {
			return fmt.Errorf("status address cannot be empty when the status server is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	// any other output value is a file path
	if l.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}

	return nil
}

// Sanitized returns a copy safe to expose on the status server
func (c *Config) Sanitized() Config {
	out := *c
	out.Voice.Fields = append([]string(nil), c.Voice.Fields...)
	if out.API.SessionCookie != "" {
		out.API.SessionCookie = "***"
	}
	return out
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s * float64(time.Second)))
}

// GetTimeoutDuration returns the request timeout as a time.Duration
func (a *APIConfig) GetTimeoutDuration() time.Duration {
	return seconds(a.Timeout)
}

// GetRecordDuration returns the recording window as a time.Duration
func (v *VoiceConfig) GetRecordDuration() time.Duration {
	return seconds(v.RecordDuration)
}

// GetFragmentInterval returns the capture fragment interval as a time.Duration
func (v *VoiceConfig) GetFragmentInterval() time.Duration {
	return seconds(v.FragmentInterval)
}

// GetNotificationTTL returns the notice lifetime as a time.Duration
func (u *UIConfig) GetNotificationTTL() time.Duration {
	return seconds(u.NotificationTTL)
}

// GetSearchDebounce returns the search debounce delay as a time.Duration
func (u *UIConfig) GetSearchDebounce() time.Duration {
	return seconds(u.SearchDebounce)
}
