package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the query API.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	StudentsPath    string
	AdminsPath      string
	AIProvider      string
	OpenAIAPIKey    string
	OpenAIBaseURL   string
	AIModel         string
	AITimeout       time.Duration
	RedisURL        string
	IntentCacheTTL  time.Duration
	NATSURL         string
	NATSSubject     string
	JWTSecret       string
	QueryRateLimit  int
	QueryRateWindow time.Duration
	CORSOrigins     []string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// UsesLLM reports whether free-text queries should be resolved by the configured language model.
func (c Config) UsesLLM() bool {
	return c.AIProvider != "keyword" && c.OpenAIAPIKey != ""
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("QUERYAPI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "Scoped Query API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("data.students_path", "data/students.json")
	v.SetDefault("data.admins_path", "data/admins.json")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-4o-mini")
	v.SetDefault("ai.timeout", "15s")
	v.SetDefault("intent_cache.ttl", "10m")
	v.SetDefault("nats.subject", "queryapi.queries")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", "1m")
	v.SetDefault("cors.origins", "*")

	aiTimeout, err := parseDuration(v.GetString("ai.timeout"), 15*time.Second)
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai timeout: %w", err)
	}

	cacheTTL, err := parseDuration(v.GetString("intent_cache.ttl"), 10*time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid intent cache ttl: %w", err)
	}

	rateWindow, err := parseDuration(v.GetString("rate_limit.window"), time.Minute)
	if err != nil {
		return Config{}, fmt.Errorf("invalid rate limit window: %w", err)
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		StudentsPath:    v.GetString("data.students_path"),
		AdminsPath:      v.GetString("data.admins_path"),
		AIProvider:      strings.ToLower(v.GetString("ai.provider")),
		OpenAIAPIKey:    v.GetString("openai_api_key"),
		OpenAIBaseURL:   v.GetString("openai_base_url"),
		AIModel:         v.GetString("ai.model"),
		AITimeout:       aiTimeout,
		RedisURL:        v.GetString("redis.url"),
		IntentCacheTTL:  cacheTTL,
		NATSURL:         v.GetString("nats.url"),
		NATSSubject:     v.GetString("nats.subject"),
		JWTSecret:       v.GetString("jwt.secret"),
		QueryRateLimit:  v.GetInt("rate_limit.max"),
		QueryRateWindow: rateWindow,
		CORSOrigins:     splitList(v.GetString("cors.origins")),
	}

	if cfg.StudentsPath == "" || cfg.AdminsPath == "" {
		return Config{}, fmt.Errorf("students and admins data paths must be provided")
	}

	if cfg.QueryRateLimit <= 0 {
		cfg.QueryRateLimit = 30
	}

	return cfg, nil
}

func parseDuration(value string, fallback time.Duration) (time.Duration, error) {
	if strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	return time.ParseDuration(value)
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
