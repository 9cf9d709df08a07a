package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/hydroline/watertrace/errors"
)

// WriteDefault writes a fully-populated default configuration file to the
// given path, creating parent directories as needed. Refuses to overwrite an
// existing file unless force is set.
func WriteDefault(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return errors.Newf("config file already exists: %s", configPath)
	}

	cfg := Config{
		Database: DatabaseConfig{
			Path: DefaultDatabasePath(),
		},
		Trace: TraceConfig{
			DefaultMaxDepth:  DefaultMaxDepth,
			DepthCeiling:     DefaultDepthCeiling,
			DefaultDirection: DefaultDirection,
			LevelFanout:      DefaultLevelFanout,
		},
		Resolver: ResolverConfig{
			PatternThreshold:          DefaultPatternThreshold,
			RiverThreshold:            DefaultRiverThreshold,
			RiverWindowMiles:          DefaultRiverWindowMiles,
			RiverTraversalWindowMiles: DefaultRiverTraversalWindowMiles,
			ProximityRadiusMeters:     DefaultProximityRadiusMeters,
			ProximityPreferredMeters:  DefaultProximityPreferredMeters,
			CandidateCap:              DefaultCandidateCap,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Size:       DefaultCacheSize,
			TTLSeconds: DefaultCacheTTLSeconds,
		},
	}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return errors.Wrap(err, "marshal default config")
	}

	if err := ensureDir(configPath); err != nil {
		return err
	}

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return errors.Wrapf(err, "write config file %s", configPath)
	}

	return nil
}

func ensureDir(configPath string) error {
	dir := filepath.Dir(configPath)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Wrapf(err, "create config directory %s", dir)
	}
	return nil
}
