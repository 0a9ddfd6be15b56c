package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/mmuslimabdulj/gelly-pet/internal/domain"
)

// Store and cooldown drivers
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Config holds all application configuration
type Config struct {
	// Server
	Port   string
	AppEnv string

	// Security
	AllowedOrigins []string
	// TrustedProxies lists IPs/CIDRs allowed to set X-Forwarded-For
	TrustedProxies []string

	// Rate Limiting
	RateLimitAPI rate.Limit
	RateLimitWS  rate.Limit

	// Logging
	LogLevel string

	// Persistence
	StoreDriver  string
	DatabaseURL  string
	AutoMigrate  bool
	StoreTimeout time.Duration

	// Cooldowns
	CooldownDriver string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	Cooldowns      map[domain.ActionKind]time.Duration

	// Game rules
	DecayEnabled      bool
	LeaderboardSize   int
	LeaderboardMetric string
	BroadcastUpdates  string

	// External collaborators
	UpstreamTimeout time.Duration
	JWTSecret       string
	JWTIssuer       string
	PointsAPIURL    string
	PointsAPIKey    string
	KafkaBrokers    []string
	KafkaTopic      string
}

// DefaultConfig returns configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Port:           "8080",
		AppEnv:         "development",
		AllowedOrigins: []string{"http://localhost:8080", "http://localhost:3000"},
		RateLimitAPI:   10,
		RateLimitWS:    5,
		LogLevel:       "info", // Options: debug, info, warn, error, silent
		StoreDriver:    DriverMemory,
		StoreTimeout:   3 * time.Second,
		CooldownDriver: DriverMemory,
		RedisAddr:      "localhost:6379",
		Cooldowns: map[domain.ActionKind]time.Duration{
			domain.ActionFeed:  domain.DefaultFeedCooldown,
			domain.ActionPlay:  domain.DefaultPlayCooldown,
			domain.ActionClean: domain.DefaultCleanCooldown,
			domain.ActionColor: domain.DefaultColorCooldown,
		},
		DecayEnabled:      true,
		LeaderboardSize:   domain.DefaultLeaderboardSize,
		LeaderboardMetric: "points",
		BroadcastUpdates:  "owner",
		UpstreamTimeout:   3 * time.Second,
		KafkaTopic:        "pet.interactions",
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := DefaultConfig()

	// Server
	if port := os.Getenv("PORT"); port != "" {
		cfg.Port = port
	}
	if env := os.Getenv("APP_ENV"); env != "" {
		cfg.AppEnv = env
	}

	// Security
	if origins := os.Getenv("ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = parseList(origins)
	}
	if proxies := os.Getenv("TRUSTED_PROXIES"); proxies != "" {
		cfg.TrustedProxies = parseList(proxies)
	}

	// Rate Limiting
	if rl := os.Getenv("RATE_LIMIT_API"); rl != "" {
		if val, err := strconv.Atoi(rl); err == nil && val > 0 {
			cfg.RateLimitAPI = rate.Limit(val)
		}
	}
	if rl := os.Getenv("RATE_LIMIT_WS"); rl != "" {
		if val, err := strconv.Atoi(rl); err == nil && val > 0 {
			cfg.RateLimitWS = rate.Limit(val)
		}
	}

	// Logging
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	// Persistence
	if driver := os.Getenv("STORE_DRIVER"); driver != "" {
		cfg.StoreDriver = strings.ToLower(driver)
	}
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.AutoMigrate = parseBool(os.Getenv("AUTO_MIGRATE"), cfg.AutoMigrate)
	if d, ok := parseDuration(os.Getenv("STORE_TIMEOUT")); ok && d > 0 {
		cfg.StoreTimeout = d
	}

	// Cooldowns
	if driver := os.Getenv("COOLDOWN_DRIVER"); driver != "" {
		cfg.CooldownDriver = strings.ToLower(driver)
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if db := os.Getenv("REDIS_DB"); db != "" {
		if val, err := strconv.Atoi(db); err == nil && val >= 0 {
			cfg.RedisDB = val
		}
	}
	for kind, key := range map[domain.ActionKind]string{
		domain.ActionFeed:  "COOLDOWN_FEED",
		domain.ActionPlay:  "COOLDOWN_PLAY",
		domain.ActionClean: "COOLDOWN_CLEAN",
		domain.ActionColor: "COOLDOWN_COLOR",
	} {
		// Zero disables the cooldown for that kind
		if d, ok := parseDuration(os.Getenv(key)); ok && d >= 0 {
			cfg.Cooldowns[kind] = d
		}
	}

	// Game rules
	cfg.DecayEnabled = parseBool(os.Getenv("DECAY_ENABLED"), cfg.DecayEnabled)
	if size := os.Getenv("LEADERBOARD_SIZE"); size != "" {
		if val, err := strconv.Atoi(size); err == nil && val > 0 {
			cfg.LeaderboardSize = min(val, domain.MaxLeaderboardSize)
		}
	}
	if metric := os.Getenv("LEADERBOARD_METRIC"); metric != "" {
		cfg.LeaderboardMetric = strings.ToLower(metric)
	}
	if mode := os.Getenv("BROADCAST_UPDATES"); mode != "" {
		cfg.BroadcastUpdates = strings.ToLower(mode)
	}

	// External collaborators
	if d, ok := parseDuration(os.Getenv("UPSTREAM_TIMEOUT")); ok && d > 0 {
		cfg.UpstreamTimeout = d
	}
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.JWTIssuer = os.Getenv("JWT_ISSUER")
	cfg.PointsAPIURL = os.Getenv("POINTS_API_URL")
	cfg.PointsAPIKey = os.Getenv("POINTS_API_KEY")
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = parseList(brokers)
	}
	if topic := os.Getenv("KAFKA_TOPIC"); topic != "" {
		cfg.KafkaTopic = topic
	}

	return cfg
}

// Validate reports settings that cannot start the server
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver))
	}

	switch c.CooldownDriver {
	case DriverMemory, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("unknown COOLDOWN_DRIVER %q", c.CooldownDriver))
	}

	return errors.Join(errs...)
}

// BroadcastAll reports whether per-user updates go to every viewer
func (c *Config) BroadcastAll() bool {
	return c.BroadcastUpdates == "all"
}

// IsProduction reports whether APP_ENV selects production behaviour
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// parseList parses comma-separated values
func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// parseDuration accepts Go durations ("45s") or whole seconds ("45")
func parseDuration(raw string) (time.Duration, bool) {
	if raw == "" {
		return 0, false
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d, true
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, true
	}
	return 0, false
}

func parseBool(raw string, fallback bool) bool {
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return v
}
