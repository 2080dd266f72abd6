package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	dErrors "pebble/pkg/domain-errors"
	pstrings "pebble/pkg/platform/strings"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Lattice holds the derivation parameters. They are fixed for the life of
// the process so every record in a run shares one interval.
type Lattice struct {
	LatticeSalt string
	CodexSalt   string
	Interval    int
	Algorithm   string
}

type Batch struct {
	Workers    int
	Timeout    time.Duration
	TierPolicy string
	Seed       uint64
}

type Log struct {
	Format string
	Level  string
}

type Database struct {
	URL string
}

type RedisConfig struct {
	URL          string
	CacheTTL     time.Duration
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Kafka struct {
	Brokers []string
	Topic   string
}

type Config struct {
	Server   Server
	Lattice  Lattice
	Batch    Batch
	Log      Log
	Database Database
	Redis    RedisConfig
	Kafka    Kafka
}

// Defaults mirror the values used when a variable is unset.
func Defaults() Config {
	return Config{
		Server: Server{Addr: ":8080", ShutdownTimeout: 10 * time.Second},
		Lattice: Lattice{
			LatticeSalt: "FROSTED_ROOTS",
			CodexSalt:   "NEXUS_NAIR_FROSTED_ROOTS",
			Interval:    9,
			Algorithm:   "sha256",
		},
		Batch: Batch{Workers: 4, Timeout: 30 * time.Second, TierPolicy: "random"},
		Log:   Log{Format: "text", Level: "info"},
		Redis: RedisConfig{
			CacheTTL:     5 * time.Minute,
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: Kafka{Topic: "pebble.provisioning"},
	}
}

// FromEnv builds a Config from environment variables so main stays lean.
// Every malformed variable is reported in a single configuration error.
func FromEnv() (*Config, error) {
	return fromLookup(os.LookupEnv)
}

type lookupFunc func(key string) (string, bool)

func fromLookup(lookup lookupFunc) (*Config, error) {
	cfg := Defaults()
	p := parser{lookup: lookup}

	p.str("PEBBLE_ADDR", &cfg.Server.Addr)
	p.duration("PEBBLE_SHUTDOWN_TIMEOUT", &cfg.Server.ShutdownTimeout)

	p.str("PEBBLE_LATTICE_SALT", &cfg.Lattice.LatticeSalt)
	p.str("PEBBLE_CODEX_SALT", &cfg.Lattice.CodexSalt)
	p.positiveInt("PEBBLE_INTERVAL", &cfg.Lattice.Interval)
	p.str("PEBBLE_CODEX_ALGORITHM", &cfg.Lattice.Algorithm)

	p.positiveInt("PEBBLE_BATCH_WORKERS", &cfg.Batch.Workers)
	p.duration("PEBBLE_BATCH_TIMEOUT", &cfg.Batch.Timeout)
	p.str("PEBBLE_TIER_POLICY", &cfg.Batch.TierPolicy)
	p.unsigned("PEBBLE_TIER_SEED", &cfg.Batch.Seed)

	p.oneOf("PEBBLE_LOG_FORMAT", &cfg.Log.Format, "text", "json")
	p.oneOf("PEBBLE_LOG_LEVEL", &cfg.Log.Level, "debug", "info", "warn", "error")

	p.str("DATABASE_URL", &cfg.Database.URL)

	p.str("REDIS_URL", &cfg.Redis.URL)
	p.duration("PEBBLE_CACHE_TTL", &cfg.Redis.CacheTTL)

	if raw, ok := lookup("KAFKA_BROKERS"); ok {
		cfg.Kafka.Brokers = pstrings.SplitList(raw)
	}
	p.str("KAFKA_PROVISION_TOPIC", &cfg.Kafka.Topic)

	if len(p.problems) > 0 {
		return nil, dErrors.Newf(dErrors.CodeConfiguration, "invalid configuration: %s", strings.Join(p.problems, "; "))
	}
	return &cfg, nil
}

type parser struct {
	lookup   lookupFunc
	problems []string
}

func (p *parser) get(key string) (string, bool) {
	raw, ok := p.lookup(key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	return raw, raw != ""
}

func (p *parser) fail(key, reason string) {
	p.problems = append(p.problems, key+" "+reason)
}

func (p *parser) str(key string, dst *string) {
	if raw, ok := p.get(key); ok {
		*dst = raw
	}
}

func (p *parser) positiveInt(key string, dst *int) {
	raw, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		p.fail(key, "must be a positive integer")
		return
	}
	*dst = n
}

func (p *parser) unsigned(key string, dst *uint64) {
	raw, ok := p.get(key)
	if !ok {
		return
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		p.fail(key, "must be an unsigned integer")
		return
	}
	*dst = n
}

func (p *parser) duration(key string, dst *time.Duration) {
	raw, ok := p.get(key)
	if !ok {
		return
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		p.fail(key, "must be a non-negative duration such as 30s")
		return
	}
	*dst = d
}

func (p *parser) oneOf(key string, dst *string, allowed ...string) {
	raw, ok := p.get(key)
	if !ok {
		return
	}
	raw = strings.ToLower(raw)
	for _, a := range allowed {
		if raw == a {
			*dst = raw
			return
		}
	}
	p.fail(key, "must be one of "+strings.Join(allowed, ", "))
}
