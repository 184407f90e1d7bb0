package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/pliu/eventplanner/internal/connectivity"
)

const defaultBaseURL = "http://localhost:5000"

// Config is stored in ~/.planner/config.toml.
type Config struct {
	Default ConfigDefault `toml:"default"`
}

type ConfigDefault struct {
	BaseURL string `toml:"base_url"`
	LocalDB string `toml:"local_db"`
	// Timeout bounds each connectivity probe, as a Go duration string.
	Timeout string `toml:"timeout"`
}

func (c *Config) baseURL() string {
	if c.Default.BaseURL != "" {
		return c.Default.BaseURL
	}
	return defaultBaseURL
}

func (c *Config) localDB(dir string) string {
	if c.Default.LocalDB != "" {
		return c.Default.LocalDB
	}
	return filepath.Join(dir, "local.db")
}

func (c *Config) probeTimeout() (time.Duration, error) {
	if c.Default.Timeout == "" {
		return connectivity.DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Default.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Default.Timeout, err)
	}
	return d, nil
}

// configDir returns ~/.planner, creating it if needed.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".planner")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("cannot create config directory: %w", err)
	}
	return dir, nil
}

func configPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// loadConfig returns a zero Config when no file exists yet.
func loadConfig() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config: %w", err)
	}
	return &cfg, nil
}

func saveConfig(cfg *Config) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("cannot marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("cannot write config: %w", err)
	}
	return nil
}

// setConfigValue sets a field using dot notation, e.g. "default.base_url".
func setConfigValue(cfg *Config, key, value string) error {
	parts := strings.SplitN(key, ".", 2)
	if len(parts) != 2 {
		return fmt.Errorf("key must use dot notation: section.field (e.g. default.base_url)")
	}
	section, field := parts[0], parts[1]
	if section != "default" {
		return fmt.Errorf("unknown config section %q (valid: default)", section)
	}

	switch field {
	case "base_url":
		cfg.Default.BaseURL = strings.TrimRight(value, "/")
	case "local_db":
		cfg.Default.LocalDB = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		cfg.Default.Timeout = value
	default:
		return fmt.Errorf("unknown field %q in section [default]", field)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage planner configuration",
	Long:  "View or modify the planner configuration stored in ~/.planner/config.toml.",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current configuration file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Printf("No configuration file found. Using %s.\n", defaultBaseURL)
				return nil
			}
			return fmt.Errorf("cannot read config file: %w", err)
		}
		fmt.Print(string(data))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value using dot notation.\nExample: planner config set default.base_url https://planner.example.com",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if err := setConfigValue(cfg, key, value); err != nil {
			return err
		}
		if err := saveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Set %s = %s\n", key, value)
		return nil
	},
}
