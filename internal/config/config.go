package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConfigFileEnv names an optional YAML/JSON/TOML file whose flat keys
// (e.g. server_port) are overridden by environment variables.
const ConfigFileEnv = "NEYPOT_CONFIG_FILE"

// Config holds all configuration values
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	Token     TokenConfig
	Ingest    IngestConfig
	RateLimit RateLimitConfig
	Jobs      JobsConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode
}

type RedisConfig struct {
	URL      string
	Password string
}

// JWTConfig configures operator tokens for the management API.
type JWTConfig struct {
	Secret string
	Expiry time.Duration
}

// TokenConfig configures ingest token hashing and lifecycle.
type TokenConfig struct {
	HashKey         string
	LegacyFallback  bool
	GracePeriod     time.Duration
	LastUsedTimeout time.Duration
}

type IngestConfig struct {
	MaxBodyChars     int
	MaxRequestBytes  int64
	TrustPeerAddress bool
}

// RateLimitConfig applies to the operator API only; the ingest route is never limited.
type RateLimitConfig struct {
	Enabled bool
	Rate    string
}

type JobsConfig struct {
	RetentionEnabled          bool
	RetentionInterval         time.Duration
	RotationFinalizerEnabled  bool
	RotationFinalizerInterval time.Duration
}

var defaults = map[string]string{
	"SERVER_PORT":                 "8080",
	"SERVER_ENV":                  "development",
	"DB_HOST":                     "localhost",
	"DB_PORT":                     "5432",
	"DB_USER":                     "postgres",
	"DB_PASSWORD":                 "postgres",
	"DB_NAME":                     "neypot",
	"DB_SSLMODE":                  "disable",
	"DB_MAX_OPEN_CONNS":           "20",
	"DB_MAX_IDLE_CONNS":           "5",
	"DB_CONN_MAX_LIFETIME":        "30m",
	"REDIS_URL":                   "redis://localhost:6379",
	"REDIS_PASSWORD":              "",
	"JWT_SECRET":                  "change-this-in-production",
	"JWT_EXPIRY":                  "12h",
	"TOKEN_HASH_KEY":              "change-this-token-hash-key",
	"TOKEN_HASH_LEGACY_FALLBACK":  "false",
	"TOKEN_GRACE_PERIOD":          "24h",
	"LAST_USED_UPDATE_TIMEOUT":    "5s",
	"INGEST_MAX_BODY_CHARS":       "10000",
	"INGEST_MAX_REQUEST_BYTES":    "1048576",
	"INGEST_TRUST_PEER_ADDRESS":   "false",
	"RATE_LIMIT_ENABLED":          "false",
	"RATE_LIMIT":                  "100-M",
	"RETENTION_JOB_ENABLED":       "false",
	"RETENTION_JOB_INTERVAL":      "1h",
	"ROTATION_FINALIZER_ENABLED":  "false",
	"ROTATION_FINALIZER_INTERVAL": "5m",
}

// Load loads configuration from the environment and the optional config file.
func Load() *Config {
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv(ConfigFileEnv)); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			log.Printf("config file %s not loaded: %v", path, err)
		}
	}
	return v
}

// FromViper builds a Config from an already prepared viper instance.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Port: getString(v, "SERVER_PORT"),
			Env:  getString(v, "SERVER_ENV"),
		},
		Database: DatabaseConfig{
			Host:            getString(v, "DB_HOST"),
			Port:            getInt(v, "DB_PORT"),
			User:            getString(v, "DB_USER"),
			Password:        getString(v, "DB_PASSWORD"),
			DBName:          getString(v, "DB_NAME"),
			SSLMode:         getString(v, "DB_SSLMODE"),
			MaxOpenConns:    getInt(v, "DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    getInt(v, "DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: getDuration(v, "DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			URL:      getString(v, "REDIS_URL"),
			Password: v.GetString("REDIS_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret: getString(v, "JWT_SECRET"),
			Expiry: getDuration(v, "JWT_EXPIRY"),
		},
		Token: TokenConfig{
			HashKey:         getString(v, "TOKEN_HASH_KEY"),
			LegacyFallback:  getBool(v, "TOKEN_HASH_LEGACY_FALLBACK"),
			GracePeriod:     getDuration(v, "TOKEN_GRACE_PERIOD"),
			LastUsedTimeout: getDuration(v, "LAST_USED_UPDATE_TIMEOUT"),
		},
		Ingest: IngestConfig{
			MaxBodyChars:     getInt(v, "INGEST_MAX_BODY_CHARS"),
			MaxRequestBytes:  int64(getInt(v, "INGEST_MAX_REQUEST_BYTES")),
			TrustPeerAddress: getBool(v, "INGEST_TRUST_PEER_ADDRESS"),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBool(v, "RATE_LIMIT_ENABLED"),
			Rate:    getString(v, "RATE_LIMIT"),
		},
		Jobs: JobsConfig{
			RetentionEnabled:          getBool(v, "RETENTION_JOB_ENABLED"),
			RetentionInterval:         getDuration(v, "RETENTION_JOB_INTERVAL"),
			RotationFinalizerEnabled:  getBool(v, "ROTATION_FINALIZER_ENABLED"),
			RotationFinalizerInterval: getDuration(v, "ROTATION_FINALIZER_INTERVAL"),
		},
	}
}

// The getters fall back to the built-in default when a value is blank or
// does not parse, so a typo never yields a zero port or interval.

func getString(v *viper.Viper, key string) string {
	if value := strings.TrimSpace(v.GetString(key)); value != "" {
		return value
	}
	return defaults[key]
}

func getInt(v *viper.Viper, key string) int {
	if n, err := strconv.Atoi(getString(v, key)); err == nil && n > 0 {
		return n
	}
	n, _ := strconv.Atoi(defaults[key])
	return n
}

func getBool(v *viper.Viper, key string) bool {
	if b, err := strconv.ParseBool(getString(v, key)); err == nil {
		return b
	}
	b, _ := strconv.ParseBool(defaults[key])
	return b
}

func getDuration(v *viper.Viper, key string) time.Duration {
	if d, err := time.ParseDuration(getString(v, key)); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(defaults[key])
	return d
}
