package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.path", "ladder.db")

	// LinkedIn adapter defaults
	v.SetDefault("linkedin.base_url", "https://api.linkedin.com")
	v.SetDefault("linkedin.token_path", defaultTokenPath())
	v.SetDefault("linkedin.requests_per_minute", 10) // Polite pacing against bot detection
	v.SetDefault("linkedin.timeout_seconds", 30)

	// Drafting defaults (LM Studio local server)
	v.SetDefault("drafting.enabled", false)
	v.SetDefault("drafting.base_url", "http://localhost:1234")
	v.SetDefault("drafting.model", "local-model")
	v.SetDefault("drafting.temperature", 0.7)
	v.SetDefault("drafting.max_tokens", 500)
	v.SetDefault("drafting.timeout_seconds", 120)

	// Engine defaults
	v.SetDefault("engine.workers", 1)
	v.SetDefault("engine.mode", "observation") // Safest mode until explicitly changed
	v.SetDefault("engine.max_targets", 25)
	v.SetDefault("engine.backoff_base_ms", 500)
	v.SetDefault("engine.backoff_cap_ms", 30000)
	v.SetDefault("engine.max_attempts", 3)
	v.SetDefault("engine.session_safety_margin_seconds", 300)
	v.SetDefault("engine.refresh_retries", 2)
	v.SetDefault("engine.window_requests", 30)
	v.SetDefault("engine.window_seconds", 60)

	// Search defaults
	v.SetDefault("search.easy_apply_only", true)
	v.SetDefault("search.compatibility_threshold", 0.0)
	v.SetDefault("search.recruiter_titles", []string{
		"recruiter", "talent", "hr", "hiring", "recruitment",
	})
}

// BindSensitiveEnvVars explicitly binds sensitive configuration to environment variables
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("linkedin.client_id", "LADDER_LINKEDIN_CLIENT_ID")
	v.BindEnv("linkedin.client_secret", "LADDER_LINKEDIN_CLIENT_SECRET")
	v.BindEnv("database.path", "LADDER_DATABASE_PATH")
	v.BindEnv("drafting.base_url", "LADDER_DRAFTING_BASE_URL")
}

// defaultTokenPath returns ~/.ladder/token.json, falling back to a
// relative path when the home directory cannot be determined.
func defaultTokenPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "token.json"
	}
	return filepath.Join(home, ".ladder", "token.json")
}

// GetDatabasePath returns the configured database path
func (c *Config) GetDatabasePath() string {
	if c.Database.Path == "" {
		return "ladder.db" // Fallback default
	}
	return c.Database.Path
}
