package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// envPrefix is the prefix for environment variables, e.g.
// QUIZFORGE_SERVER_PORT overrides server.port.
const envPrefix = "QUIZFORGE"

// Load reads configuration from environment variables and an optional
// config.yaml in the working directory. Environment variables take
// precedence over values from the config file, and defaults fill anything
// left unset. Returns a populated Config or an error if loading or
// validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine; env vars and defaults still apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Categories) == 0 {
		cfg.Categories = defaultCategories()
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers default values for everything that has a sensible
// one. Secrets (JWT secret, API keys, storage credentials) deliberately have
// no default.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.use_bridge", true)
	v.SetDefault("database.query_timeout_seconds", 30)

	v.SetDefault("auth.token_lifetime_minutes", 60)

	// Secrets default to empty strings so viper knows the keys exist and can
	// resolve them from the environment; validation still rejects blanks.
	v.SetDefault("database.bridge_url", "")
	v.SetDefault("database.direct_url", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("llm.gemini_api_key", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.access_key", "")
	v.SetDefault("storage.secret_key", "")
	v.SetDefault("storage.bucket", "")

	v.SetDefault("llm.explanation_model", "gemini-2.5-pro")
	v.SetDefault("llm.generation_model", "gemini-2.0-flash")
	v.SetDefault("llm.relevance_model", "gemini-2.0-flash")
	v.SetDefault("llm.max_attempts", 3)
	v.SetDefault("llm.retry_backoff_seconds", 2)

	v.SetDefault("storage.folder", "mcqs_outputs")
	v.SetDefault("storage.use_ssl", true)

	v.SetDefault("task.fanout_workers", 3)
	v.SetDefault("task.rate_limit_seconds", 2.5)
	v.SetDefault("task.snapshot_path", "task_status.json")
	v.SetDefault("task.upload_dir", "uploads")
	v.SetDefault("task.window_size", 1200)
	v.SetDefault("task.window_step", 600)
	v.SetDefault("task.max_windows", 4)
}

// defaultCategories returns the fixed exam category list used when the
// config file does not override it.
func defaultCategories() []CategoryConfig {
	return []CategoryConfig{
		{ID: 8, Name: "LEK"},
		{ID: 9, Name: "LDEK"},
		{ID: 10, Name: "PES"},
	}
}
