package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk YAML configuration shape for Complyscan.
type FileConfig struct {
	Database *DatabaseConfig `yaml:"database"`

	RulesFile  *string  `yaml:"rules_file"`
	Tables     []string `yaml:"tables"`
	Threads    *int     `yaml:"threads"`
	MinRisk    *float64 `yaml:"min_risk"`
	NoColor    *bool    `yaml:"no_color"`
	History    *bool    `yaml:"history"`
	HistoryDir *string  `yaml:"history_dir"`
}

// DatabaseConfig holds connection settings for the scanned store.
type DatabaseConfig struct {
	Type     *string `yaml:"type"` // postgresql, mysql, sqlite, mongodb
	Host     *string `yaml:"host"`
	Port     *int    `yaml:"port"`
	Name     *string `yaml:"name"`
	User     *string `yaml:"user"`
	Password *string `yaml:"password"`
	DSN      *string `yaml:"dsn"`
}

// LoadFile reads a YAML config file from the provided path.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadLocal searches for a project-local config file in the given root.
// It supports .complyscan.yml/.yaml and complyscan.yml/.yaml.
func LoadLocal(root string) (FileConfig, error) {
	var cfg FileConfig
	for _, name := range []string{".complyscan.yml", ".complyscan.yaml", "complyscan.yml", "complyscan.yaml"} {
		p := filepath.Join(root, name)
		if _, err := os.Stat(p); err == nil {
			return LoadFile(p)
		}
	}
	return cfg, errors.New("no local config")
}

// LoadGlobal loads the global config file from XDG base directory or ~/.config.
func LoadGlobal() (FileConfig, error) {
	var cfg FileConfig
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, _ := os.UserHomeDir()
		if home != "" {
			base = filepath.Join(home, ".config")
		}
	}
	if base == "" {
		return cfg, errors.New("no config dir")
	}
	p := filepath.Join(base, "complyscan", "config.yml")
	if _, err := os.Stat(p); err == nil {
		return LoadFile(p)
	}
	return cfg, errors.New("no global config")
}
