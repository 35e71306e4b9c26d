package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"saladoverflow/internal/log"

	"github.com/joho/godotenv"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr     string
	Port           string
	DatabaseURL    string
	SessionSecret  string
	GinMode        string
	RedisURL       string
	CacheSize      int
	CacheTTL       time.Duration
	AllowedOrigins []string
	FrontendURL    string

	// DefaultSessionSecret is set when SESSION_SECRET was missing.
	DefaultSessionSecret bool
}

const devSessionSecret = "saladoverflow-dev-secret"

// LoadDotEnv reads an optional .env file into the process environment.
// A missing file is not an error.
func LoadDotEnv(paths ...string) bool {
	return godotenv.Load(paths...) == nil
}

// Load 从环境变量读取应用配置，并为缺失项提供安全的默认值。
func Load() AppConfig {
	port := env("PORT", "8000")

	listenAddr := env("LISTEN_ADDR", fmt.Sprintf(":%s", port))

	databaseURL := env("DATABASE_URL",
		"host=localhost user=postgres password=postgres dbname=saladoverflow port=5432 sslmode=disable TimeZone=UTC")

	sessionSecret := env("SESSION_SECRET", devSessionSecret)

	cacheSize, err := strconv.Atoi(env("CACHE_SIZE", "500"))
	if err != nil || cacheSize <= 0 {
		cacheSize = 500
	}

	cacheTTL, err := time.ParseDuration(env("CACHE_TTL", "10m"))
	if err != nil || cacheTTL <= 0 {
		cacheTTL = 10 * time.Minute
	}

	var origins []string
	for _, o := range strings.Split(env("ALLOWED_ORIGINS", "http://localhost:3000"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return AppConfig{
		ListenAddr:     listenAddr,
		Port:           port,
		DatabaseURL:    databaseURL,
		SessionSecret:  sessionSecret,
		GinMode:        env("GIN_MODE", "release"),
		RedisURL:       env("REDIS_URL", ""),
		CacheSize:      cacheSize,
		CacheTTL:       cacheTTL,
		AllowedOrigins: origins,
		FrontendURL:    env("FRONTEND_URL", "http://localhost:3000"),

		DefaultSessionSecret: sessionSecret == devSessionSecret,
	}
}

// Validate refuses settings that are unsafe to serve with. Outside release
// mode a missing SESSION_SECRET only warns.
func (c AppConfig) Validate() error {
	if !c.DefaultSessionSecret {
		return nil
	}
	if c.GinMode == "release" {
		return errors.New("SESSION_SECRET must be set when GIN_MODE=release")
	}
	log.Warn.Println("SESSION_SECRET not set, signing session cookies with the development key")
	return nil
}

func env(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
