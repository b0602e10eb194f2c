// Package config loads the placement core's configuration, layering a YAML
// file over built-in defaults and environment variables over both — the
// same three-tier pattern the teacher's replication.Config uses
// (DefaultConfig -> LoadFromEnv), adapted to the keys spec.md section 3/6
// recognizes.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the options recognized by the placement core (spec.md
// section 3, stable key names in section 6).
type Config struct {
	// RegionsToWrite is the ordered list of region labels to prefer.
	// Empty means "all known regions", in canonical (lexicographic) order.
	// Key: placement.regionsToWrite
	RegionsToWrite []string `yaml:"regionsToWrite"`

	// MinRegionsForDurability is the minimum number of distinct regions
	// every write-quorum window must cover when validation is enabled.
	// Key: placement.minRegionsForDurability
	MinRegionsForDurability int `yaml:"minRegionsForDurability"`

	// EnableValidation rejects ensembles that fail durability coverage.
	// Key: placement.enableValidation
	EnableValidation bool `yaml:"enableValidation"`

	// DNSResolverClass identifies the injected resolver implementation.
	// It is metadata only: the core never loads a resolver by name, the
	// caller passes one to Core.Initialize.
	// Key: placement.dnsResolverClass
	DNSResolverClass string `yaml:"dnsResolverClass"`

	// RemoteNodeReorderThreshold (K) controls the read-reorder shape.
	// Key: placement.remoteNodeReorderThreshold
	RemoteNodeReorderThreshold int `yaml:"remoteNodeReorderThreshold"`
}

// Default returns a Config with sensible defaults for a single-region,
// best-effort deployment: validation on, a 2-region durability bar, and the
// default reorder threshold from spec.md section 3.
func Default() *Config {
	return &Config{
		RegionsToWrite:             nil,
		MinRegionsForDurability:    2,
		EnableValidation:           true,
		DNSResolverClass:           "",
		RemoteNodeReorderThreshold: 2,
	}
}

// LoadFile reads a YAML file and overlays it on top of Default().
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %q: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %q: %w", path, err)
	}
	return cfg, nil
}

// LoadEnv overlays PLACEMENT_* environment variables on top of base,
// mirroring the teacher's LoadFromEnv getEnv/getEnvInt/getEnvBool helpers.
// base is not mutated; a new Config is returned.
func LoadEnv(base *Config) *Config {
	cfg := *base
	cfg.RegionsToWrite = append([]string(nil), base.RegionsToWrite...)

	if v := os.Getenv("PLACEMENT_REGIONS_TO_WRITE"); v != "" {
		cfg.RegionsToWrite = parseCSV(v)
	}
	cfg.MinRegionsForDurability = getEnvInt("PLACEMENT_MIN_REGIONS_FOR_DURABILITY", cfg.MinRegionsForDurability)
	cfg.EnableValidation = getEnvBool("PLACEMENT_ENABLE_VALIDATION", cfg.EnableValidation)
	cfg.DNSResolverClass = getEnv("PLACEMENT_DNS_RESOLVER_CLASS", cfg.DNSResolverClass)
	cfg.RemoteNodeReorderThreshold = getEnvInt("PLACEMENT_REMOTE_NODE_REORDER_THRESHOLD", cfg.RemoteNodeReorderThreshold)

	return &cfg
}

// Validate checks the configuration for internal consistency. A durability
// bar below 1 or a negative reorder threshold is rejected here rather than
// at selection time. An empty RegionsToWrite is accepted: it means "all
// known regions".
func (c *Config) Validate() error {
	if c.MinRegionsForDurability < 1 {
		return fmt.Errorf("minRegionsForDurability must be >= 1, got %d", c.MinRegionsForDurability)
	}
	if c.RemoteNodeReorderThreshold < 0 {
		return fmt.Errorf("remoteNodeReorderThreshold must be >= 0, got %d", c.RemoteNodeReorderThreshold)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		v = strings.ToLower(v)
		return v == "true" || v == "1" || v == "yes" || v == "on"
	}
	return defaultVal
}

func parseCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
