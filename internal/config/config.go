package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
}

type KnowledgeConfig struct {
	DataDir string `toml:"data_dir"`
}

type DiagnosisConfig struct {
	MaxConditions int `toml:"max_conditions"`
	MaxExplained  int `toml:"max_explained"`
}

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Knowledge KnowledgeConfig `toml:"knowledge"`
	Diagnosis DiagnosisConfig `toml:"diagnosis"`
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: "8080"},
		Knowledge: KnowledgeConfig{DataDir: "data"},
		Diagnosis: DiagnosisConfig{MaxConditions: 3, MaxExplained: 2},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}
