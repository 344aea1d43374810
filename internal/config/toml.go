// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Display   DisplayConfig         `toml:"display"`
	Audio     AudioConfig           `toml:"audio"`
	Scoring   ScoringConfig         `toml:"scoring"`
	Challenge ChallengeConfig       `toml:"challenge"`
	Sink      SinkConfig            `toml:"sink"`
	Log       LogConfig             `toml:"log"`
	Games     map[string]GameConfig `toml:"games"`
}

// DisplayConfig maps rendering settings.
type DisplayConfig struct {
	FPS           *int    `toml:"fps"`
	IdleAnimation *bool   `toml:"idle-animation"`
	Theme         *string `toml:"theme"`
}

// AudioConfig maps sound settings.
type AudioConfig struct {
	Effects *bool   `toml:"effects"`
	Ambient *bool   `toml:"ambient"`
	Track   *string `toml:"track"`
}

// ScoringConfig maps score hand-off policy.
type ScoringConfig struct {
	SaveOnManualEnd *bool `toml:"save-on-manual-end"`
	PersistNegative *bool `toml:"persist-negative"`
}

// ChallengeConfig maps the generative service settings.
type ChallengeConfig struct {
	Endpoint   *string `toml:"endpoint"`
	Model      *string `toml:"model"`
	ImageModel *string `toml:"image-model"`
	Timeout    *string `toml:"timeout"`
	APIKeyEnv  *string `toml:"api-key-env"`
}

// SinkConfig maps the optional remote score queue.
type SinkConfig struct {
	SQSQueueURL *string `toml:"sqs-queue-url"`
	AWSRegion   *string `toml:"aws-region"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// GameConfig overrides catalog presets for one game id.
type GameConfig struct {
	Duration    *string  `toml:"duration"`
	Target      *int     `toml:"target"`
	Lives       *int     `toml:"lives"`
	HazardRatio *float64 `toml:"hazard-ratio"`
	MaxEntities *int     `toml:"max-entities"`
	SpawnRate   *float64 `toml:"spawn-rate"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}
