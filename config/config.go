// Package config loads and watches the watertrace configuration.
//
// Configuration is read from ~/.watertrace/config.toml (or an explicit path),
// overridable through WATERTRACE_* environment variables. Every resolver
// threshold and traversal bound has a default, so a missing config file is
// not an error.
package config

// Config represents the watertrace configuration
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Trace    TraceConfig    `mapstructure:"trace"`
	Resolver ResolverConfig `mapstructure:"resolver"`
	Cache    CacheConfig    `mapstructure:"cache"`
}

// DatabaseConfig configures the SQLite spatial store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// TraceConfig bounds traversal requests
type TraceConfig struct {
	DefaultMaxDepth  int    `mapstructure:"default_max_depth"` // applied when the caller omits max_depth
	DepthCeiling     int    `mapstructure:"depth_ceiling"`     // hard cap; caller values are clamped to this
	DefaultDirection string `mapstructure:"default_direction"` // upstream, downstream or both
	LevelFanout      int    `mapstructure:"level_fanout"`      // concurrent store lookups per BFS level
}

// ResolverConfig parameterizes the tiered connectivity strategies.
// Thresholds gate escalation: pattern runs only while the discovered-feature
// count is below PatternThreshold, river sequence below RiverThreshold,
// proximity only when the earlier tiers produced nothing for the element.
type ResolverConfig struct {
	PatternThreshold          int     `mapstructure:"pattern_threshold"`            // T2 (default: 20)
	RiverThreshold            int     `mapstructure:"river_threshold"`              // T3 (default: 15)
	RiverWindowMiles          float64 `mapstructure:"river_window_miles"`           // broad linking pass (default: 50)
	RiverTraversalWindowMiles float64 `mapstructure:"river_traversal_window_miles"` // directional in-traversal expansion (default: 15)
	ProximityRadiusMeters     float64 `mapstructure:"proximity_radius_meters"`      // outer radius (default: 10000)
	ProximityPreferredMeters  float64 `mapstructure:"proximity_preferred_meters"`   // same-type-or-same-river band (default: 5000)
	CandidateCap              int     `mapstructure:"candidate_cap"`                // per-tier fan-out bound (default: 8)
}

// CacheConfig configures the trace-result cache
type CacheConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	Size       int  `mapstructure:"size"`        // max cached trace results
	TTLSeconds int  `mapstructure:"ttl_seconds"` // entry lifetime
}
