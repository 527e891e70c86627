package config

import "time"

const (
	DefaultServerPort = 8080
	DefaultServerMode = "debug"

	DefaultDBPort     = 5432
	DefaultDBMaxConns = 25

	DefaultRedisAddr = "localhost:6379"

	DefaultKafkaBroker = "localhost:9092"
	DefaultKafkaTopic  = "chemreact.predictions"

	DefaultCacheBackend    = "file"
	DefaultCacheDir        = "reaction_cache"
	DefaultCacheTTL        = 24 * time.Hour
	DefaultCacheMaxEntries = 1000

	DefaultPatternThreshold = 70.0

	DefaultReasoningModel      = "gemini-2.0-flash"
	DefaultReasoningTimeout    = 30 * time.Second
	DefaultReasoningMaxRetries = 3
	DefaultReasoningRetryDelay = 2 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

// ApplyDefaults fills every zero-value field in cfg with the engine default.
// Fields already set by the caller are left unchanged so explicit
// configuration always wins.  Call after unmarshalling and before Validate.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10 * time.Second
	}

	if cfg.Database.Host != "" {
		if cfg.Database.Port == 0 {
			cfg.Database.Port = DefaultDBPort
		}
		if cfg.Database.MaxConns == 0 {
			cfg.Database.MaxConns = DefaultDBMaxConns
		}
		if cfg.Database.SSLMode == "" {
			cfg.Database.SSLMode = "disable"
		}
	}

	if cfg.Redis.Addr == "" && cfg.Cache.Backend == "redis" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = "chemreact:"
	}

	if cfg.Kafka.Enabled {
		if len(cfg.Kafka.Brokers) == 0 {
			cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
		}
		if cfg.Kafka.Topic == "" {
			cfg.Kafka.Topic = DefaultKafkaTopic
		}
		if cfg.Kafka.ProducerRetries == 0 {
			cfg.Kafka.ProducerRetries = 3
		}
	}

	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.Dir == "" {
		cfg.Cache.Dir = DefaultCacheDir
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.MaxEntries == 0 {
		cfg.Cache.MaxEntries = DefaultCacheMaxEntries
	}

	if cfg.Predictor.PatternThreshold == 0 {
		cfg.Predictor.PatternThreshold = DefaultPatternThreshold
	}

	if cfg.Reasoning.Model == "" {
		cfg.Reasoning.Model = DefaultReasoningModel
	}
	if cfg.Reasoning.Timeout == 0 {
		cfg.Reasoning.Timeout = DefaultReasoningTimeout
	}
	if cfg.Reasoning.MaxRetries == 0 {
		cfg.Reasoning.MaxRetries = DefaultReasoningMaxRetries
	}
	if cfg.Reasoning.RetryDelay == 0 {
		cfg.Reasoning.RetryDelay = DefaultReasoningRetryDelay
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
}
