package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/teranos/ladder/errors"
	"github.com/teranos/ladder/logger"
)

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil // No file to backup
	}

	// Rotate backups: .back3 -> delete, .back2 -> .back3, .back1 -> .back2, current -> .back1
	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		// Log deletion failures (but don't fail config save)
		logger.Warnw("Failed to delete old backup", "path", back3, "error", err)
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}

// LocalConfigPath returns the path to the CLI-managed overrides file in ~/.ladder/local.toml
func LocalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".ladder", "local.toml")
}

// loadOrInitializeLocalConfig loads the overrides file, or starts an empty one
func loadOrInitializeLocalConfig() (map[string]interface{}, string, error) {
	configPath := LocalConfigPath()
	if configPath == "" {
		return nil, "", errors.New("could not determine home directory")
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0750); err != nil {
		return nil, "", errors.Wrap(err, "failed to create .ladder directory")
	}

	var config map[string]interface{}
	if data, err := os.ReadFile(configPath); err == nil {
		if err := toml.Unmarshal(data, &config); err != nil {
			return nil, "", errors.Wrap(err, "failed to parse local config")
		}
	} else {
		config = make(map[string]interface{})
	}

	return config, configPath, nil
}

// saveLocalConfig writes the overrides file with backup
func saveLocalConfig(config map[string]interface{}, configPath string) error {
	if err := createBackup(configPath); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}

	// Mark this as our own write to prevent reload loops
	globalWatcherMu.Lock()
	if globalWatcher != nil {
		globalWatcher.MarkOwnWrite()
	}
	globalWatcherMu.Unlock()

	if err := os.WriteFile(configPath, data, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to write local config")
	}

	return nil
}

// updateSection sets one key in one section of the overrides file
func updateSection(section, key string, value interface{}) error {
	config, configPath, err := loadOrInitializeLocalConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load local config")
	}

	var sec map[string]interface{}
	if s, ok := config[section].(map[string]interface{}); ok {
		sec = s
	} else {
		sec = make(map[string]interface{})
	}

	sec[key] = value
	config[section] = sec

	return saveLocalConfig(config, configPath)
}

// UpdateEngineMode persists the autonomy mode across runs
func UpdateEngineMode(mode string) error {
	return updateSection("engine", "mode", mode)
}

// UpdateEngineWorkers persists the worker count
func UpdateEngineWorkers(workers int) error {
	return updateSection("engine", "workers", workers)
}

// UpdateDraftingEnabled toggles drafting in the overrides file
func UpdateDraftingEnabled(enabled bool) error {
	return updateSection("drafting", "enabled", enabled)
}

// UpdateDraftingModel persists the drafting model identifier
func UpdateDraftingModel(model string) error {
	return updateSection("drafting", "model", model)
}

// UpdateSearchKeywords persists the discovery keyword list
func UpdateSearchKeywords(keywords []string) error {
	return updateSection("search", "keywords", keywords)
}

// UpdateSearchLocation persists the discovery location filter
func UpdateSearchLocation(location string) error {
	return updateSection("search", "location", location)
}
