package btconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads, decodes, and validates a YAML config file.
// Unknown keys are rejected so typos fail loudly instead of silently
// falling back to defaults.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Parse decodes YAML bytes over the defaults with strict field checking
// ⭐ SSOT: YAML 디코딩은 여기서만 수행
func Parse(raw []byte) (*Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("yaml decode: %w", err)
	}

	return &cfg, nil
}

// Hash returns the first 12 hex chars of the SHA256 of the canonical
// YAML re-encoding. Used to tag output files so results are traceable
// to the exact parameter set that produced them.
func (c *Config) Hash() (string, error) {
	canonical, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("yaml marshal for hash: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:12], nil
}
