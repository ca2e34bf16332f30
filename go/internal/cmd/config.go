package main

import (
	"fmt"
	"os"

	"github.com/draftarena/draftarena/go/internal/rules"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Formats []rules.Format `yaml:"formats"`

	Orchestrator struct {
		BatchSize int32 `yaml:"batch_size"`
	} `yaml:"orchestrator"`

	NATS struct {
		URL string `yaml:"url"`
	} `yaml:"nats"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}

func setupOracle(config *Config) rules.LegalityOracle {
	if len(config.Formats) == 0 {
		log.Warn().Msg("no formats configured, all characters will be legal at zero cost")
		return rules.Permissive()
	}
	for _, f := range config.Formats {
		log.Info().Str("format", f.ID).Int("banned", len(f.Banned)).Msg("loaded format")
	}
	return rules.NewFormatOracle(config.Formats)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
