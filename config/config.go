package config

import "fmt"

// Config represents the core Ladder configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	LinkedIn LinkedInConfig `mapstructure:"linkedin"`
	Drafting DraftingConfig `mapstructure:"drafting"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Search   SearchConfig   `mapstructure:"search"`
}

// DatabaseConfig configures the SQLite ledger database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LinkedInConfig configures the LinkedIn REST adapter
type LinkedInConfig struct {
	BaseURL           string `mapstructure:"base_url"`            // API base (overridable for tests)
	ClientID          string `mapstructure:"client_id"`           // OAuth client ID
	ClientSecret      string `mapstructure:"client_secret"`       // OAuth client secret (env only in practice)
	RedirectURI       string `mapstructure:"redirect_uri"`        // OAuth redirect URI
	TokenPath         string `mapstructure:"token_path"`          // Where the token JSON is persisted
	RequestsPerMinute int    `mapstructure:"requests_per_minute"` // Outbound pacing (default: 10)
	TimeoutSeconds    int    `mapstructure:"timeout_seconds"`     // Per-request timeout (default: 30)
}

// DraftingConfig configures the local drafting model (LM Studio or compatible)
type DraftingConfig struct {
	Enabled         bool     `mapstructure:"enabled"`          // Enable message/cover drafting
	BaseURL         string   `mapstructure:"base_url"`         // e.g., "http://localhost:1234"
	Model           string   `mapstructure:"model"`            // Model identifier
	Temperature     *float64 `mapstructure:"temperature"`      // Sampling temperature (nil = default 0.7)
	MaxTokens       *int     `mapstructure:"max_tokens"`       // Max tokens per draft (nil = default 500)
	TimeoutSeconds  int      `mapstructure:"timeout_seconds"`  // Request timeout (default: 120)
	MessageTemplate string   `mapstructure:"message_template"` // Outreach template with {key} placeholders
	CoverTemplate   string   `mapstructure:"cover_template"`   // Cover letter template (empty = no cover)
}

// EngineConfig configures the orchestration engine
type EngineConfig struct {
	Workers    int    `mapstructure:"workers"`     // Concurrent pipeline workers (default: 1)
	Mode       string `mapstructure:"mode"`        // Autonomy mode: observation, semi-automatic, full-automatic
	MaxTargets int    `mapstructure:"max_targets"` // Upper bound on targets per run (default: 25)

	// Retry policy
	BackoffBaseMS int `mapstructure:"backoff_base_ms"` // First retry delay (default: 500)
	BackoffCapMS  int `mapstructure:"backoff_cap_ms"`  // Delay ceiling (default: 30000)
	MaxAttempts   int `mapstructure:"max_attempts"`    // Attempts per target (default: 3)

	// Session lifecycle
	SessionSafetyMarginSeconds int `mapstructure:"session_safety_margin_seconds"` // Treat tokens expiring within this window as expired (default: 300)
	RefreshRetries             int `mapstructure:"refresh_retries"`               // Refresh attempts before giving up (default: 2)

	// Sliding-window outbound limiter
	WindowRequests int `mapstructure:"window_requests"` // Max calls per window (default: 30)
	WindowSeconds  int `mapstructure:"window_seconds"`  // Window length (default: 60)
}

// SearchConfig configures discovery filtering and scoring
type SearchConfig struct {
	Keywords               []string `mapstructure:"keywords"`                // Required keywords for jobs
	Location               string   `mapstructure:"location"`                // Location filter (empty = any)
	EasyApplyOnly          bool     `mapstructure:"easy_apply_only"`         // Only jobs applicable through the API
	CompatibilityThreshold float64  `mapstructure:"compatibility_threshold"` // Min keyword-match score 0..1 (default: 0)
	CurrentCompany         string   `mapstructure:"current_company"`         // Excluded from recruiter outreach
	Skills                 []string `mapstructure:"skills"`                  // Fed into drafting templates
	RecruiterTitles        []string `mapstructure:"recruiter_titles"`        // Title keywords identifying recruiters
}

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Database: %s, Engine: {Mode: %s, Workers: %d}}",
		c.Database.Path, c.Engine.Mode, c.Engine.Workers)
}
