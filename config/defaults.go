package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default traversal and resolver bounds. The resolver thresholds follow the
// engine policy: tier 2 below 20 discovered features, tier 3 below 15,
// tier 4 only as a last resort.
const (
	DefaultMaxDepth     = 5
	DefaultDepthCeiling = 25
	DefaultDirection    = "both"
	DefaultLevelFanout  = 8

	DefaultPatternThreshold          = 20
	DefaultRiverThreshold            = 15
	DefaultRiverWindowMiles          = 50.0
	DefaultRiverTraversalWindowMiles = 15.0
	DefaultProximityRadiusMeters     = 10000.0
	DefaultProximityPreferredMeters  = 5000.0
	DefaultCandidateCap              = 8

	DefaultCacheSize       = 256
	DefaultCacheTTLSeconds = 300
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath())

	v.SetDefault("trace.default_max_depth", DefaultMaxDepth)
	v.SetDefault("trace.depth_ceiling", DefaultDepthCeiling)
	v.SetDefault("trace.default_direction", DefaultDirection)
	v.SetDefault("trace.level_fanout", DefaultLevelFanout)

	v.SetDefault("resolver.pattern_threshold", DefaultPatternThreshold)
	v.SetDefault("resolver.river_threshold", DefaultRiverThreshold)
	v.SetDefault("resolver.river_window_miles", DefaultRiverWindowMiles)
	v.SetDefault("resolver.river_traversal_window_miles", DefaultRiverTraversalWindowMiles)
	v.SetDefault("resolver.proximity_radius_meters", DefaultProximityRadiusMeters)
	v.SetDefault("resolver.proximity_preferred_meters", DefaultProximityPreferredMeters)
	v.SetDefault("resolver.candidate_cap", DefaultCandidateCap)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("cache.ttl_seconds", DefaultCacheTTLSeconds)
}

// ConfigDir returns the watertrace configuration directory (~/.watertrace)
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".watertrace"
	}
	return filepath.Join(home, ".watertrace")
}

// ConfigPath returns the default configuration file path
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDatabasePath returns the default SQLite database location
func DefaultDatabasePath() string {
	return filepath.Join(ConfigDir(), "watertrace.db")
}
