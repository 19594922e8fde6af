// Package config provides configuration management for the demonstration
// CLI using the Singleton pattern. It loads configuration from environment
// variables and config.yaml using Viper. The library itself is configured
// through options; this package only feeds the CLI.
package config

import (
	"fmt"
	"sync"
)

// Configuration holds all CLI configuration values.
type Configuration struct {
	// Credentials configuration.
	Credentials CredentialsConfig `json:"credentials" mapstructure:"credentials"`

	// Chat generation parameters.
	Chat ChatConfig `json:"chat" mapstructure:"chat"`

	// Logging configuration.
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// CredentialsConfig holds the credential source. Exactly one of Cookies or
// APIKey is required; APIKey wins when both are set.
type CredentialsConfig struct {
	// Cookies is the cookie string of an authenticated browser session,
	// used to mint demo API keys.
	Cookies string `json:"cookies" mapstructure:"cookies"`

	// APIKey is a ready-made csk- key. A client built from it never
	// refreshes.
	APIKey string `json:"api_key" mapstructure:"api_key"`
}

// ChatConfig holds generation parameters.
type ChatConfig struct {
	// Model is the model identifier to generate with.
	Model string `json:"model" mapstructure:"model"`

	// SystemPrompt guides the model's behavior.
	SystemPrompt string `json:"system_prompt" mapstructure:"system_prompt"`

	// Temperature is the sampling temperature (0.0-2.0).
	Temperature float64 `json:"temperature" mapstructure:"temperature"`

	// TopP is the nucleus sampling parameter (0.0-1.0).
	TopP float64 `json:"top_p" mapstructure:"top_p"`

	// MaxTokens limits the completion length.
	MaxTokens int `json:"max_tokens" mapstructure:"max_tokens"`

	// TimeoutSeconds bounds non-streaming calls.
	TimeoutSeconds int `json:"timeout_seconds" mapstructure:"timeout_seconds"`

	// MaxRefreshRetries is the per-call credential refresh budget.
	MaxRefreshRetries int `json:"max_refresh_retries" mapstructure:"max_refresh_retries"`

	// Stream selects streaming delivery for the CLI.
	Stream bool `json:"stream" mapstructure:"stream"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `json:"level" mapstructure:"level"`

	// Format is the log format (json, text).
	Format string `json:"format" mapstructure:"format"`

	// OutputPath is the file path for log output (empty for stderr). When
	// set, the file is size-rotated.
	OutputPath string `json:"output_path" mapstructure:"output_path"`
}

// configInstance holds the singleton configuration instance.
var (
	configInstance *Configuration
	configOnce     sync.Once
	configErr      error
)

// GetConfig returns the singleton Configuration instance, initializing it
// on first call using the default config search paths.
func GetConfig() (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig("")
	})
	return configInstance, configErr
}

// GetConfigWithPath returns the singleton Configuration instance loaded
// from a specific configuration file path.
func GetConfigWithPath(configPath string) (*Configuration, error) {
	configOnce.Do(func() {
		configInstance, configErr = loadConfig(configPath)
	})
	return configInstance, configErr
}

// MustGetConfig returns the singleton Configuration instance and panics if
// it cannot be loaded.
func MustGetConfig() *Configuration {
	cfg, err := GetConfig()
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// ResetConfig resets the singleton instance. Primarily for tests.
func ResetConfig() {
	configOnce = sync.Once{}
	configInstance = nil
	configErr = nil
}

// Validate validates the configuration and returns an error if required
// fields are missing or out of range.
func (c *Configuration) Validate() error {
	var validationErrors []string

	if c.Credentials.Cookies == "" && c.Credentials.APIKey == "" {
		validationErrors = append(validationErrors,
			"credentials: either credentials.cookies or credentials.api_key is required (or set "+EnvCookies+" / "+EnvAPIKey+")")
	}

	if c.Chat.Model == "" {
		validationErrors = append(validationErrors, "chat.model is required")
	}

	if c.Chat.Temperature < 0 || c.Chat.Temperature > 2 {
		validationErrors = append(validationErrors, "chat.temperature must be between 0.0 and 2.0")
	}

	if c.Chat.TopP <= 0 || c.Chat.TopP > 1 {
		validationErrors = append(validationErrors, "chat.top_p must be in (0.0, 1.0]")
	}

	if c.Chat.MaxTokens <= 0 {
		validationErrors = append(validationErrors, "chat.max_tokens must be positive")
	}

	if c.Chat.MaxRefreshRetries < 0 {
		validationErrors = append(validationErrors, "chat.max_refresh_retries must not be negative")
	}

	if c.Logging.Level != "" && !isValidLogLevel(c.Logging.Level) {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.level '%s' is invalid, must be one of: debug, info, warn, error",
			c.Logging.Level,
		))
	}

	if c.Logging.Format != "" && c.Logging.Format != "json" && c.Logging.Format != "text" {
		validationErrors = append(validationErrors, fmt.Sprintf(
			"logging.format '%s' is invalid, must be json or text",
			c.Logging.Format,
		))
	}

	if len(validationErrors) > 0 {
		return &ValidationError{Errors: validationErrors}
	}

	return nil
}

// CredentialSource returns the single credential input the client expects:
// the API key when configured, otherwise the cookie string.
func (c *Configuration) CredentialSource() string {
	if c.Credentials.APIKey != "" {
		return c.Credentials.APIKey
	}
	return c.Credentials.Cookies
}

// isValidLogLevel checks if the log level is valid.
func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}
