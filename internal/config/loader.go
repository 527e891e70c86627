package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all engine settings.
const envPrefix = "CHEMREACT"

// newViper builds a pre-configured Viper instance: YAML file type,
// CHEMREACT_ env prefix, automatic env binding, and a key replacer mapping
// "." to "_" so a nested key like "cache.ttl" resolves to CHEMREACT_CACHE_TTL.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	registerKeys(v)
	return v
}

// registerKeys declares every configuration key to viper.  AutomaticEnv only
// resolves keys viper already knows about, so without this an env-only
// deployment (LoadFromEnv) would see none of its CHEMREACT_* variables.
func registerKeys(v *viper.Viper) {
	for _, key := range []string{
		"server.port", "server.mode", "server.read_timeout", "server.write_timeout",
		"server.max_body_size", "server.shutdown_timeout",
		"database.host", "database.port", "database.user", "database.password",
		"database.db_name", "database.ssl_mode", "database.max_conns", "database.min_conns",
		"database.conn_max_lifetime", "database.conn_max_idle_time", "database.migration_path",
		"redis.addr", "redis.password", "redis.db", "redis.pool_size", "redis.min_idle_conns",
		"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout", "redis.key_prefix",
		"kafka.brokers", "kafka.topic", "kafka.client_id", "kafka.producer_retries",
		"kafka.batch_size", "kafka.write_timeout", "kafka.required_acks", "kafka.enabled",
		"cache.backend", "cache.dir", "cache.ttl", "cache.max_entries",
		"predictor.pattern_threshold", "predictor.artifact_path",
		"predictor.watch_artifact", "predictor.corpus_path",
		"reasoning.base_url", "reasoning.api_key", "reasoning.model",
		"reasoning.timeout", "reasoning.max_retries", "reasoning.retry_delay",
		"log.level", "log.format", "log.output_paths", "log.error_output_paths",
	} {
		v.SetDefault(key, nil)
	}
}

// Load reads the YAML file at configPath, merges CHEMREACT_* environment
// variable overrides, applies defaults for unset fields, and validates the
// result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from CHEMREACT_* environment
// variables with no config file.  Preferred for containerised deployments.
//
// Naming convention: CHEMREACT_<SECTION>_<FIELD>, e.g. CHEMREACT_CACHE_DIR,
// CHEMREACT_REASONING_API_KEY.
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the freshly parsed
// Config whenever the file changes on disk.  Intended for hot-reloading
// non-critical settings such as log level; callers apply only the safe
// subset of changes at runtime.
//
// Watch is non-blocking; viper manages the watcher goroutine.  A change that
// fails to parse or validate is dropped without invoking onChange.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Callers are expected to have called Load first, so a read error here
	// only delays the watcher until the file reappears.
	_ = v.ReadInConfig()

	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
	v.WatchConfig()
}

// MustLoad wraps Load and panics on error.  For use in main() where a
// config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
