// Package config provides configuration management for the demonstration CLI.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	cerebras "github.com/cerebras-community/cerebras-go"
)

const (
	defaultConfigName = "config"
	defaultConfigType = "yaml"
	envPrefix         = "CEREBRAS"

	// EnvCookies is the primary environment variable for the browser cookie
	// string. It takes priority over file configuration so the secret never
	// has to live on disk.
	EnvCookies = "CEREBRAS_COOKIES"

	// EnvAPIKey carries a ready-made csk- key and wins over EnvCookies.
	EnvAPIKey = "CEREBRAS_API_KEY"
)

// loadConfig loads the configuration from environment variables and files.
// Priority order (highest to lowest):
// 1. CEREBRAS_API_KEY / CEREBRAS_COOKIES env vars - PRIMARY SOURCE
// 2. Environment variables (prefixed with CEREBRAS_)
// 3. config.yaml - fallback for local development only
// 4. Default values
func loadConfig(configPath string) (*Configuration, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName(defaultConfigName)
	v.SetConfigType(defaultConfigType)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.cerebras-chat")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is OK - env vars cover the secrets.
		} else {
			return nil, &ConfigError{
				Op:  "read",
				Err: fmt.Errorf("failed to read config file: %w", err),
			}
		}
	} else if v.GetString("credentials.cookies") != "" || v.GetString("credentials.api_key") != "" {
		fmt.Fprintf(os.Stderr, "[SECURITY] Warning: credentials found in config.yaml - prefer %s / %s env vars\n", EnvCookies, EnvAPIKey)
	}

	var cfg Configuration
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, &ConfigError{
			Op:  "unmarshal",
			Err: fmt.Errorf("failed to unmarshal config: %w", err),
		}
	}

	// Primary env vars override anything file-based.
	if cookies := os.Getenv(EnvCookies); cookies != "" {
		cfg.Credentials.Cookies = cookies
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Credentials.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults sets default configuration values, mirroring the library's
// generation defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("chat.model", cerebras.DefaultModel)
	v.SetDefault("chat.system_prompt", cerebras.DefaultSystemPrompt)
	v.SetDefault("chat.temperature", 0.75)
	v.SetDefault("chat.top_p", 0.9)
	v.SetDefault("chat.max_tokens", 2048)
	v.SetDefault("chat.timeout_seconds", 30)
	v.SetDefault("chat.max_refresh_retries", cerebras.DefaultMaxRefreshRetries)
	v.SetDefault("chat.stream", true)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output_path", "")
}
