package config

import "github.com/teranos/ladder/errors"

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	// Database path is optional - empty defaults to "ladder.db" per defaults.go

	// Engine mode must be one of the known autonomy modes
	switch c.Engine.Mode {
	case "observation", "semi-automatic", "full-automatic":
	default:
		return errors.Newf("engine.mode must be observation, semi-automatic, or full-automatic, got %q", c.Engine.Mode)
	}

	// Workers: 0 falls back to sequential execution, negative = invalid
	if c.Engine.Workers < 0 {
		return errors.Newf("engine.workers must be >= 0, got %d", c.Engine.Workers)
	}

	if c.Engine.MaxTargets < 0 {
		return errors.Newf("engine.max_targets must be >= 0, got %d", c.Engine.MaxTargets)
	}

	if c.Engine.MaxAttempts < 1 {
		return errors.Newf("engine.max_attempts must be >= 1, got %d", c.Engine.MaxAttempts)
	}

	if c.Engine.BackoffBaseMS <= 0 {
		return errors.Newf("engine.backoff_base_ms must be > 0, got %d", c.Engine.BackoffBaseMS)
	}
	if c.Engine.BackoffCapMS < c.Engine.BackoffBaseMS {
		return errors.Newf("engine.backoff_cap_ms must be >= backoff_base_ms, got %d", c.Engine.BackoffCapMS)
	}

	if c.Engine.WindowRequests < 0 {
		return errors.Newf("engine.window_requests must be >= 0, got %d", c.Engine.WindowRequests)
	}
	if c.Engine.WindowSeconds <= 0 && c.Engine.WindowRequests > 0 {
		return errors.Newf("engine.window_seconds must be > 0 when window_requests is set, got %d", c.Engine.WindowSeconds)
	}

	// Validate drafting configuration only when enabled
	if c.Drafting.Enabled {
		if c.Drafting.BaseURL == "" {
			return errors.New("drafting.base_url cannot be empty when enabled")
		}
		if c.Drafting.Model == "" {
			return errors.New("drafting.model cannot be empty when enabled")
		}
		if c.Drafting.TimeoutSeconds <= 0 {
			return errors.Newf("drafting.timeout_seconds must be > 0, got %d", c.Drafting.TimeoutSeconds)
		}
		if c.Drafting.Temperature != nil && (*c.Drafting.Temperature < 0 || *c.Drafting.Temperature > 2) {
			return errors.Newf("drafting.temperature must be in [0, 2], got %f", *c.Drafting.Temperature)
		}
		if c.Drafting.MaxTokens != nil && *c.Drafting.MaxTokens <= 0 {
			return errors.Newf("drafting.max_tokens must be > 0, got %d (omit for default)", *c.Drafting.MaxTokens)
		}
	}

	if c.LinkedIn.RequestsPerMinute < 0 {
		return errors.Newf("linkedin.requests_per_minute must be >= 0, got %d", c.LinkedIn.RequestsPerMinute)
	}
	if c.LinkedIn.TimeoutSeconds <= 0 {
		return errors.Newf("linkedin.timeout_seconds must be > 0, got %d", c.LinkedIn.TimeoutSeconds)
	}

	if c.Search.CompatibilityThreshold < 0 || c.Search.CompatibilityThreshold > 1 {
		return errors.Newf("search.compatibility_threshold must be in [0, 1], got %f", c.Search.CompatibilityThreshold)
	}

	return nil
}
