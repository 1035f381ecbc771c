package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/teamkb/teamkb/pkg/logger"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	JWT       JWTConfig
	AI        AIConfig
	RateLimit RateLimitConfig
	Cache     CacheConfig
	Auth      AuthConfig
	LogLevel  string
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	CORSOrigin   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Production reports whether cookies should be Secure/SameSite=Strict.
func (s ServerConfig) Production() bool {
	return strings.EqualFold(s.Environment, "production")
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Addr returns host:port, or "" when Redis is not configured.
func (r RedisConfig) Addr() string {
	if r.Host == "" {
		return ""
	}
	return r.Host + ":" + r.Port
}

type JWTConfig struct {
	Secret string
	TTL    time.Duration
}

type AIConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	RankModel string
	Timeout   time.Duration
}

type RateLimitConfig struct {
	Enabled       bool
	RPS           float64
	Burst         int
	UseRedis      bool
	WindowSeconds int
}

type CacheConfig struct {
	HistoryTTL time.Duration
}

type AuthConfig struct {
	// AdminEmails are granted the admin role at registration.
	AdminEmails []string
}

// IsAdminEmail reports whether email is configured as an administrator.
func (a AuthConfig) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range a.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

// LoadConfig loads configuration from environment variables and an optional .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "5000")
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_ENVIRONMENT", "development")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	v.SetDefault("MONGODB_DATABASE", "teamkb")
	v.SetDefault("MONGODB_TIMEOUT", 10)
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_TTL", 7*24*60)
	v.SetDefault("AI_MODEL", "gpt-4o-mini")
	v.SetDefault("AI_TIMEOUT", 30)
	v.SetDefault("RATE_LIMIT_ENABLED", false)
	v.SetDefault("RATE_LIMIT_RPS", 10.0)
	v.SetDefault("RATE_LIMIT_BURST", 20)
	v.SetDefault("RATE_LIMIT_USE_REDIS", false)
	v.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 1)
	v.SetDefault("HISTORY_CACHE_TTL", 300)
	v.SetDefault("LOG_LEVEL", "info")

	cfg := &Config{
		Server: ServerConfig{
			Port:         v.GetString("SERVER_PORT"),
			Host:         v.GetString("SERVER_HOST"),
			Environment:  v.GetString("SERVER_ENVIRONMENT"),
			CORSOrigin:   v.GetString("CORS_ORIGIN"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 90 * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      v.GetString("MONGODB_URI"),
			Database: v.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(v.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetString("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    time.Duration(v.GetInt("JWT_TTL")) * time.Minute,
		},
		AI: AIConfig{
			APIKey:    v.GetString("AI_API_KEY"),
			BaseURL:   v.GetString("AI_BASE_URL"),
			Model:     v.GetString("AI_MODEL"),
			RankModel: v.GetString("AI_RANK_MODEL"),
			Timeout:   time.Duration(v.GetInt("AI_TIMEOUT")) * time.Second,
		},
		RateLimit: RateLimitConfig{
			Enabled:       v.GetBool("RATE_LIMIT_ENABLED"),
			RPS:           v.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         v.GetInt("RATE_LIMIT_BURST"),
			UseRedis:      v.GetBool("RATE_LIMIT_USE_REDIS"),
			WindowSeconds: v.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
		Cache: CacheConfig{
			HistoryTTL: time.Duration(v.GetInt("HISTORY_CACHE_TTL")) * time.Second,
		},
		Auth: AuthConfig{
			AdminEmails: splitList(v.GetString("ADMIN_EMAILS")),
		},
		LogLevel: v.GetString("LOG_LEVEL"),
	}
	if cfg.AI.RankModel == "" {
		cfg.AI.RankModel = cfg.AI.Model
	}

	if cfg.JWT.Secret == "" {
		if cfg.Server.Production() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		logger.Warnf("JWT_SECRET is not set; using an insecure development secret")
		cfg.JWT.Secret = "teamkb-development-secret"
	}
	if cfg.JWT.TTL <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be positive, got %s", cfg.JWT.TTL)
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
