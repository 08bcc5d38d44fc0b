package mpcnet

import (
	"fmt"
	"os"
	"time"

	"github.com/tessera-mpc/tessera/bgv"
	"gopkg.in/yaml.v3"
)

// PartyConfig is one party's network identity.
type PartyConfig struct {
	ID      int    `yaml:"id"`
	Address string `yaml:"addr"`
}

// Config describes a deployment: the endpoints of every party, the
// compute and input quorums, and the scheme parameters.
type Config struct {
	Parties []PartyConfig `yaml:"parties"`
	Compute Communicator  `yaml:"compute"`
	Input   Communicator  `yaml:"input"`

	// TimeoutSeconds bounds every dial and collective receive; zero
	// selects the default of 30 seconds.
	TimeoutSeconds int `yaml:"timeoutSeconds"`

	Params bgv.ParametersLiteral `yaml:"params"`
}

// LoadConfig reads and validates a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := new(Config)
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the quorums reference configured parties and do
// not overlap.
func (cfg *Config) Validate() error {
	seen := make(map[int]bool, len(cfg.Parties))
	for _, p := range cfg.Parties {
		if seen[p.ID] {
			return fmt.Errorf("duplicate party id %d", p.ID)
		}
		seen[p.ID] = true
	}
	if len(cfg.Compute) == 0 {
		return fmt.Errorf("empty compute quorum")
	}
	for _, id := range cfg.Compute.Append(cfg.Input) {
		if !seen[id] {
			return fmt.Errorf("quorum references unknown party %d", id)
		}
	}
	for _, id := range cfg.Input {
		if cfg.Compute.Contains(id) {
			return fmt.Errorf("party %d is in both quorums", id)
		}
	}
	return nil
}

// Party returns the configuration of the given party, or nil.
func (cfg *Config) Party(id int) *PartyConfig {
	for i := range cfg.Parties {
		if cfg.Parties[i].ID == id {
			return &cfg.Parties[i]
		}
	}
	return nil
}

// Timeout returns the configured collective timeout.
func (cfg *Config) Timeout() time.Duration {
	if cfg.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(cfg.TimeoutSeconds) * time.Second
}
