package rollout

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeatureConfig is the per-feature rollout knob set. All fields are optional;
// nil means the permissive default (enabled, 100%).
type FeatureConfig struct {
	GlobalEnabled     *bool    `yaml:"global_enabled,omitempty"`
	Percentage        *int     `yaml:"percentage,omitempty"`
	UserWhitelist     []string `yaml:"user_whitelist,omitempty"`
	CampaignWhitelist []string `yaml:"campaign_whitelist,omitempty"`
}

// Config maps feature names to their rollout knobs.
type Config struct {
	Features map[string]FeatureConfig `yaml:"features"`
}

// LoadFile reads a rollout config from YAML. A missing file yields the zero
// config, which enables everything.
func LoadFile(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks semantic constraints of a rollout config.
func Validate(cfg Config) error {
	var errs []string
	for name, fc := range cfg.Features {
		if name == "" {
			errs = append(errs, "feature name must not be empty")
		}
		if fc.Percentage != nil && (*fc.Percentage < 0 || *fc.Percentage > 100) {
			errs = append(errs, fmt.Sprintf("features.%s.percentage must be in [0,100]", name))
		}
		for i, u := range fc.UserWhitelist {
			if u == "" {
				errs = append(errs, fmt.Sprintf("features.%s.user_whitelist[%d] must not be empty", name, i))
			}
		}
		for i, c := range fc.CampaignWhitelist {
			if c == "" {
				errs = append(errs, fmt.Sprintf("features.%s.campaign_whitelist[%d] must not be empty", name, i))
			}
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("rollout validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
