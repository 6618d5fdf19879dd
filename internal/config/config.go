package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/crime-dashboard/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all service settings, populated from environment variables,
// an optional .env file, and an optional config file named by CONFIG_FILE.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Socrata API configuration.
	SocrataDomain     string
	SocrataDataset    string
	SocrataAppToken   string
	SocrataTimeout    time.Duration
	SocrataMaxRecords int
	SocrataRetryCount int
	SocrataRetryWait  time.Duration
	SocrataRateLimit  float64
	BreakerFailures   int
	BreakerTimeout    time.Duration

	FetchCacheSize int
	FetchCacheTTL  time.Duration

	CommunitiesPath  string
	SessionCacheSize int

	// Query applied on a session's first dashboard load.
	DefaultStart      time.Time
	DefaultEnd        time.Time
	DefaultCategories []domain.Category
	DefaultCommunity  string

	HistoryDBPath string

	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

var defaults = map[string]string{
	"http_addr":                ":8080",
	"log_level":                "info",
	"log_format":               "json",
	"shutdown_timeout":         "10s",
	"socrata_domain":           "data.cityofchicago.org",
	"socrata_dataset":          "ijzp-q8t2",
	"socrata_app_token":        "",
	"socrata_timeout":          "30s",
	"socrata_max_records":      "250000",
	"socrata_retry_count":      "2",
	"socrata_retry_wait":       "500ms",
	"socrata_rate_limit":       "5",
	"socrata_breaker_failures": "5",
	"socrata_breaker_timeout":  "30s",
	"fetch_cache_size":         "64",
	"fetch_cache_ttl":          "5m",
	"communities_path":         "",
	"session_cache_size":       "1000",
	"default_start_date":       "2023-10-01",
	"default_end_date":         "2024-01-01",
	"default_categories":       "THEFT",
	"default_community":        "",
	"history_db_path":          "",
	"kafka_enabled":            "false",
	"kafka_brokers":            "localhost:9092",
	"kafka_topic":              "crime-dashboard-refreshes",
	"cors_allowed_origins":     "*",
	"rate_limit_requests":      "60",
	"rate_limit_window":        "1m",
}

// Load reads configuration, applying defaults where unset. Environment
// variables take precedence over the config file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid CONFIG_FILE: %w", err)
		}
	}

	p := parser{v: v}
	cfg := &Config{
		HTTPAddr:        v.GetString("http_addr"),
		LogLevel:        v.GetString("log_level"),
		LogFormat:       v.GetString("log_format"),
		ShutdownTimeout: p.duration("shutdown_timeout"),

		SocrataDomain:     strings.TrimSpace(v.GetString("socrata_domain")),
		SocrataDataset:    strings.TrimSpace(v.GetString("socrata_dataset")),
		SocrataAppToken:   v.GetString("socrata_app_token"),
		SocrataTimeout:    p.duration("socrata_timeout"),
		SocrataMaxRecords: p.positiveInt("socrata_max_records"),
		SocrataRetryCount: p.nonNegativeInt("socrata_retry_count"),
		SocrataRetryWait:  p.duration("socrata_retry_wait"),
		SocrataRateLimit:  p.rate("socrata_rate_limit"),
		BreakerFailures:   p.positiveInt("socrata_breaker_failures"),
		BreakerTimeout:    p.duration("socrata_breaker_timeout"),

		FetchCacheSize: p.nonNegativeInt("fetch_cache_size"),
		FetchCacheTTL:  p.duration("fetch_cache_ttl"),

		CommunitiesPath:  v.GetString("communities_path"),
		SessionCacheSize: p.positiveInt("session_cache_size"),

		DefaultStart:      p.date("default_start_date"),
		DefaultEnd:        p.date("default_end_date"),
		DefaultCategories: p.categories("default_categories"),
		DefaultCommunity:  v.GetString("default_community"),

		HistoryDBPath: v.GetString("history_db_path"),

		KafkaEnabled: p.boolean("kafka_enabled"),
		KafkaBrokers: sharedcfg.ParseBrokers(v.GetString("kafka_brokers")),
		KafkaTopic:   v.GetString("kafka_topic"),

		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),
		RateLimitRequests:  p.positiveInt("rate_limit_requests"),
		RateLimitWindow:    p.duration("rate_limit_window"),
	}
	if p.err != nil {
		return nil, p.err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("HTTP_ADDR is required")
	}
	if cfg.SocrataDomain == "" {
		return nil, errors.New("SOCRATA_DOMAIN is required")
	}
	if cfg.SocrataDataset == "" {
		return nil, errors.New("SOCRATA_DATASET is required")
	}
	if !cfg.DefaultEnd.After(cfg.DefaultStart) {
		return nil, errors.New("DEFAULT_END_DATE must be after DEFAULT_START_DATE")
	}
	if len(cfg.DefaultCategories) > domain.MaxSelectedCategories {
		return nil, fmt.Errorf("DEFAULT_CATEGORIES allows at most %d categories", domain.MaxSelectedCategories)
	}
	if cfg.KafkaEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.KafkaEnabled && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
	}

	return cfg, nil
}

// SocrataBaseURL returns the API root for the configured Socrata domain.
func (c *Config) SocrataBaseURL() string {
	if strings.HasPrefix(c.SocrataDomain, "http://") || strings.HasPrefix(c.SocrataDomain, "https://") {
		return strings.TrimSuffix(c.SocrataDomain, "/")
	}
	return "https://" + c.SocrataDomain
}

// parser converts viper values and keeps the first error, naming the
// offending environment variable.
type parser struct {
	v   *viper.Viper
	err error
}

func (p *parser) fail(key string) {
	if p.err == nil {
		p.err = fmt.Errorf("invalid %s", strings.ToUpper(key))
	}
}

func (p *parser) duration(key string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(p.v.GetString(key)))
	if err != nil || d <= 0 {
		p.fail(key)
		return 0
	}
	return d
}

func (p *parser) positiveInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(p.v.GetString(key)))
	if err != nil || n <= 0 {
		p.fail(key)
		return 0
	}
	return n
}

func (p *parser) nonNegativeInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(p.v.GetString(key)))
	if err != nil || n < 0 {
		p.fail(key)
		return 0
	}
	return n
}

func (p *parser) rate(key string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(p.v.GetString(key)), 64)
	if err != nil || f < 0 {
		p.fail(key)
		return 0
	}
	return f
}

func (p *parser) boolean(key string) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(p.v.GetString(key)))
	if err != nil {
		p.fail(key)
		return false
	}
	return b
}

func (p *parser) date(key string) time.Time {
	d, err := domain.ParseDate(p.v.GetString(key))
	if err != nil {
		p.fail(key)
		return time.Time{}
	}
	return d
}

func (p *parser) categories(key string) []domain.Category {
	labels := splitList(p.v.GetString(key))
	if len(labels) == 0 {
		p.fail(key)
		return nil
	}
	cats, err := domain.ParseCategories(labels)
	if err != nil {
		p.fail(key)
		return nil
	}
	return cats
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
