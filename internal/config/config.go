// Package config handles Scribe configuration loading and management.
package config

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Default returns the default configuration.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".scribe")

	return &Config{
		Vault: VaultConfig{
			Root: filepath.Join(homeDir, "notes"),
		},
		Memory: MemoryConfig{
			DBPath: filepath.Join(dataDir, "assistant.db"),
		},
		Web: WebConfig{
			TimeoutSeconds:   30,
			MaxFetchBytes:    2 << 20,
			MaxSearchResults: 8,
			UserAgent:        "scribe/1.0",
		},
		Dispatch: DispatchConfig{
			AutoApproveSingle: true,
		},
	}
}

// Load loads the configuration from the given path.
// If the file doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return expandPaths(cfg), nil
}

// Save saves the configuration to the given path.
func (c *Config) Save(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	file, err := os.Create(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := toml.NewEncoder(file)
	return encoder.Encode(c)
}

// expandPaths expands a leading ~ in path settings.
func expandPaths(cfg *Config) *Config {
	cfg.Vault.Root = expandHome(cfg.Vault.Root)
	cfg.Memory.DBPath = expandHome(cfg.Memory.DBPath)
	return cfg
}

func expandHome(path string) string {
	if len(path) >= 2 && path[:2] == "~/" {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
