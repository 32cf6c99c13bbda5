package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:       "http://localhost:5000",
			Timeout:       30,
			MaxConcurrent: 4,
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
			Enabled: true,
			Address: "127.0.0.1",
			Port:    9090,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modify      func(c *Config)
		expectError bool
		errorMsg    string
	}{
		{
			name:        "valid configuration",
			modify:      func(c *Config) {},
			expectError: false,
		},
		{
			name:        "empty base url",
			modify:      func(c *Config) { c.API.BaseURL = "" },
			expectError: true,
			errorMsg:    "base_url cannot be empty",
		},
		{
			name:        "relative base url",
			modify:      func(c *Config) { c.API.BaseURL = "/api" },
			expectError: true,
			errorMsg:    "absolute http(s) URL",
		},
		{
			name:        "non http base url",
			modify:      func(c *Config) { c.API.BaseURL = "ftp://shop.example" },
			expectError: true,
			errorMsg:    "absolute http(s) URL",
		},
		{
			name:        "zero timeout",
			modify:      func(c *Config) { c.API.Timeout = 0 },
			expectError: true,
			errorMsg:    "timeout must be positive",
		},
		{
			name:        "zero max concurrent",
			modify:      func(c *Config) { c.API.MaxConcurrent = 0 },
			expectError: true,
			errorMsg:    "max_concurrent must be at least 1",
		},
		{
			name:        "zero record duration",
			modify:      func(c *Config) { c.Voice.RecordDuration = 0 },
			expectError: true,
			errorMsg:    "record_duration must be positive",
		},
		{
			name:        "empty language",
			modify:      func(c *Config) { c.Voice.DefaultLanguage = "" },
			expectError: true,
			errorMsg:    "default_language cannot be empty",
		},
		{
			name:        "no voice fields",
			modify:      func(c *Config) { c.Voice.Fields = nil },
			expectError: true,
			errorMsg:    "at least one voice input field",
		},
		{
			name:        "duplicate voice field",
			modify:      func(c *Config) { c.Voice.Fields = []string{"title", "title"} },
			expectError: true,
			errorMsg:    "duplicate field 'title'",
		},
		{
			name:        "fragment interval longer than recording",
			modify:      func(c *Config) { c.Voice.FragmentInterval = 6 },
			expectError: true,
			errorMsg:    "fragment_interval",
		},
		{
			name:        "zero notification ttl",
			modify:      func(c *Config) { c.UI.NotificationTTL = 0 },
			expectError: true,
			errorMsg:    "notification_ttl must be positive",
		},
		{
			name:        "negative search debounce",
			modify:      func(c *Config) { c.UI.SearchDebounce = -1 },
			expectError: true,
			errorMsg:    "search_debounce cannot be negative",
		},
		{
			name:        "invalid status port",
			modify:      func(c *Config) { c.Status.Port = 70000 },
			expectError: true,
			errorMsg:    "status port must be between 1 and 65535",
		},
		{
			name: "disabled status server skips port check",
			modify: func(c *Config) {
				c.Status.Enabled = false
				c.Status.Port = 0
			},
			expectError: false,
		},
		{
			name:        "invalid log level",
			modify:      func(c *Config) { c.Logging.Level = "verbose" },
			expectError: true,
			errorMsg:    "level must be one of",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := validConfig()
			tt.modify(&config)

			err := config.Validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Errorf("Default config must validate: %v", err)
	}
}

func TestConfigLoad(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name        string
		configYAML  string
		expectError bool
		errorMsg    string
	}{
		{
			name: "valid config file",
			configYAML: `
api:
  base_url: "https://shop.example.in"
  timeout: 10
  max_concurrent: 2
voice:
  record_duration: 5
  default_language: "hi"
  fields: ["title", "description", "address"]
ui:
  notification_ttl: 3
  search_debounce: 0.3
status:
  enabled: true
  address: "0.0.0.0"
  port: 9100
logging:
  level: "debug"
  format: "json"
  output: "stdout"
`,
			expectError: false,
		},
		{
			name: "partial file keeps defaults",
			configYAML: `
api:
  base_url: "http://127.0.0.1:5000"
`,
			expectError: false,
		},
		{
			name: "invalid YAML syntax",
			configYAML: `
api:
  timeout: invalid_number
`,
			expectError: true,
			errorMsg:    "failed to parse",
		},
		{
			name: "invalid value",
			configYAML: `
voice:
  record_duration: -1
`,
			expectError: true,
			errorMsg:    "record_duration must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(tempDir, "config.yaml")
			if err := os.WriteFile(configPath, []byte(tt.configYAML), 0644); err != nil {
				t.Fatalf("Failed to create test config file: %v", err)
			}

			config, err := Load(configPath)

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if tt.errorMsg != "" && !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("Expected error to contain '%s', got '%s'", tt.errorMsg, err.Error())
				}
			} else {
				if err != nil {
					t.Errorf("Expected no error but got: %v", err)
				} else if config == nil {
					t.Errorf("Expected config to be loaded but got nil")
				}
			}
		})
	}
}

func TestConfigLoadKeepsDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("api:\n  base_url: \"http://127.0.0.1:5000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.Voice.GetRecordDuration() != 5*time.Second {
		t.Errorf("Expected default record duration 5s, got %v", config.Voice.GetRecordDuration())
	}

	if config.Voice.DefaultLanguage != "en" {
		t.Errorf("Expected default language en, got %s", config.Voice.DefaultLanguage)
	}
}

func TestConfigLoadEnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("api:\n  base_url: \"http://127.0.0.1:5000\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("STOREFRONT_API_BASE_URL", "https://shop.example.in")
	t.Setenv("STOREFRONT_SESSION_COOKIE", "session=abc")
	t.Setenv("STOREFRONT_VOICE_FIELDS", "title,address")
	t.Setenv("STOREFRONT_STATUS_ENABLED", "true")

	config, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if config.API.BaseURL != "https://shop.example.in" {
		t.Errorf("Expected env base URL, got %s", config.API.BaseURL)
	}

	if len(config.Voice.Fields) != 2 || config.Voice.Fields[1] != "address" {
		t.Errorf("Expected env fields, got %v", config.Voice.Fields)
	}

	if !config.Status.Enabled {
		t.Error("Expected status server enabled from env")
	}

	sanitized := config.Sanitized()
	if sanitized.API.SessionCookie != "***" {
		t.Errorf("Expected masked cookie, got %s", sanitized.API.SessionCookie)
	}
	if config.API.SessionCookie != "session=abc" {
		t.Error("Sanitized must not modify the original")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()

	if err := LoadDotEnv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("Missing .env must be ignored, got %v", err)
	}

	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("STOREFRONT_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Unsetenv("STOREFRONT_TEST_DOTENV") })

	if err := LoadDotEnv(envPath); err != nil {
		t.Fatalf("LoadDotEnv failed: %v", err)
	}

	if got := os.Getenv("STOREFRONT_TEST_DOTENV"); got != "loaded" {
		t.Errorf("Expected loaded, got %q", got)
	}
}

func TestConfigLoadNonexistentFile(t *testing.T) {
	_, err := Load("nonexistent.yaml")
	if err == nil {
		t.Fatal("Expected error for nonexistent file but got none")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Expected error about reading file, got: %v", err)
	}
}

func TestDurationHelpers(t *testing.T) {
	api := APIConfig{Timeout: 2.5}
	if api.GetTimeoutDuration() != 2500*time.Millisecond {
		t.Errorf("Expected 2.5 seconds, got %v", api.GetTimeoutDuration())
	}

	voice := VoiceConfig{RecordDuration: 5, FragmentInterval: 0.1}
	if voice.GetRecordDuration() != 5*time.Second {
		t.Errorf("Expected 5 seconds, got %v", voice.GetRecordDuration())
	}
	if voice.GetFragmentInterval() != 100*time.Millisecond {
		t.Errorf("Expected 100ms, got %v", voice.GetFragmentInterval())
	}

	ui := UIConfig{NotificationTTL: 3, SearchDebounce: 0.3}
	if ui.GetNotificationTTL() != 3*time.Second {
		t.Errorf("Expected 3 seconds, got %v", ui.GetNotificationTTL())
	}
	if ui.GetSearchDebounce() != 300*time.Millisecond {
		t.Errorf("Expected 300ms, got %v", ui.GetSearchDebounce())
	}
}
