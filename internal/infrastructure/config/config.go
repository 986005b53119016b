package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	LLM        LLMConfig        `mapstructure:"llm"`
	Store      StoreConfig      `mapstructure:"store"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Normalizer NormalizerConfig `mapstructure:"normalizer"`
	Session    SessionConfig    `mapstructure:"session"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	LogLevel   string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env     string `mapstructure:"env"`
	Debug   bool   `mapstructure:"debug"`
	Version string `mapstructure:"version"`
	Name    string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	MaxBodyBytes int64         `mapstructure:"max_body_bytes"`
}

// LLMConfig 文字生成服務配置
type LLMConfig struct {
	Provider         string        `mapstructure:"provider"`
	APIKey           string        `mapstructure:"api_key"`
	GeminiAPIKey     string        `mapstructure:"gemini_api_key"`
	OpenRouterAPIKey string        `mapstructure:"openrouter_api_key"`
	Model            string        `mapstructure:"model"`
	MaxTokens        int           `mapstructure:"max_tokens"`
	Temperature      float64       `mapstructure:"temperature"`
	Timeout          time.Duration `mapstructure:"timeout"`
	BaseURL          string        `mapstructure:"base_url"`
	MaxRetries       int           `mapstructure:"max_retries"`
}

// Key 取得目前供應商使用的 API Key；llm.api_key 優先
func (c LLMConfig) Key() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey
	case ProviderOpenRouter:
		return c.OpenRouterAPIKey
	}
	return ""
}

// StoreConfig 食譜儲存配置
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Driver          string        `mapstructure:"driver"`
	RedisAddr       string        `mapstructure:"redis_addr"`
	RedisPassword   string        `mapstructure:"redis_password"`
	RedisDB         int           `mapstructure:"redis_db"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// CatalogConfig 核准食材與計價設定
type CatalogConfig struct {
	File             string  `mapstructure:"file"`
	PerPersonDivisor float64 `mapstructure:"per_person_divisor"`
	MatchThreshold   float64 `mapstructure:"match_threshold"`
}

// NormalizerConfig 菜名正規化設定
type NormalizerConfig struct {
	Transliterate bool `mapstructure:"transliterate"`
}

// SessionConfig 對話 session 設定
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// 支援的供應商與儲存後端
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"

	StoreCSV    = "csv"
	StoreSQLite = "sqlite"
	StoreBadger = "badger"
	StoreMemory = "memory"

	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// LoadConfig 載入設定。path 為空時讀取工作目錄下可選的 .env；
// 指定 path 時檔案必須存在（.env、yaml、json 皆可）。
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	if err := loadDotEnv(path); err != nil {
		return nil, err
	}

	setDefaults(v)

	// 設定環境變數前綴
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnv(v)

	if path != "" && !isDotEnv(path) {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	config.LLM.Provider = strings.ToLower(strings.TrimSpace(config.LLM.Provider))
	config.Store.Driver = strings.ToLower(strings.TrimSpace(config.Store.Driver))
	config.Cache.Driver = strings.ToLower(strings.TrimSpace(config.Cache.Driver))

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// loadDotEnv 將 .env 載入環境變數；預設的 .env 不存在時略過
func loadDotEnv(path string) error {
	if path != "" {
		if !isDotEnv(path) {
			return nil
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	return nil
}

func isDotEnv(path string) bool {
	base := filepath.Base(path)
	return base == ".env" || strings.HasSuffix(base, ".env")
}

// bindEnv 綁定常用的環境變量名稱
func bindEnv(v *viper.Viper) {
	binds := map[string]string{
		"llm.provider":             "LLM_PROVIDER",
		"llm.api_key":              "LLM_API_KEY",
		"llm.gemini_api_key":       "GEMINI_API_KEY",
		"llm.openrouter_api_key":   "OPENROUTER_API_KEY",
		"llm.model":                "LLM_MODEL",
		"llm.max_tokens":           "MODEL_MAX_TOKENS",
		"llm.timeout":              "LLM_TIMEOUT",
		"llm.base_url":             "LLM_BASE_URL",
		"store.driver":             "STORE_DRIVER",
		"store.path":               "STORE_PATH",
		"cache.enabled":            "CACHE_ENABLED",
		"cache.driver":             "CACHE_DRIVER",
		"cache.redis_addr":         "REDIS_ADDR",
		"cache.redis_password":     "REDIS_PASSWORD",
		"cache.redis_db":           "REDIS_DB",
		"catalog.file":             "CATALOG_FILE",
		"normalizer.transliterate": "TRANSLITERATE",
		"rate_limit.enabled":       "RATE_LIMIT_ENABLED",
		"rate_limit.requests":      "RATE_LIMIT_REQUESTS",
		"rate_limit.window":        "RATE_LIMIT_WINDOW",
		"server.port":              "PORT",
		"log_level":                "LOG_LEVEL",
	}
	for key, env := range binds {
		_ = v.BindEnv(key, "APP_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
}

// setDefaults 設定預設值
func setDefaults(v *viper.Viper) {
	// 應用程式設定
	v.SetDefault("app.env", "development")
	v.SetDefault("app.debug", false)
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.name", "lifecode-recipe")

	// 伺服器設定
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.max_body_bytes", 64*1024)

	// LLM 設定
	v.SetDefault("llm.provider", ProviderGemini)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.temperature", 0.4)
	v.SetDefault("llm.timeout", "60s")
	v.SetDefault("llm.max_retries", 1)

	// 儲存設定
	v.SetDefault("store.driver", StoreCSV)
	v.SetDefault("store.path", "data/recipes.csv")

	// 快取設定
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.driver", CacheMemory)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.ttl", "24h")
	v.SetDefault("cache.cleanup_interval", "10m")

	// 食材與計價
	v.SetDefault("catalog.per_person_divisor", 10)
	v.SetDefault("catalog.match_threshold", 0.6)

	v.SetDefault("normalizer.transliterate", true)
	v.SetDefault("session.ttl", "2h")

	// 限流設定
	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests", 60)
	v.SetDefault("rate_limit.window", "1m")

	v.SetDefault("log_level", "info")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", config.Server.Port)
	}

	switch config.LLM.Provider {
	case ProviderGemini, ProviderOpenRouter:
	default:
		return fmt.Errorf("unsupported llm provider %q", config.LLM.Provider)
	}
	if config.LLM.Timeout <= 0 {
		return fmt.Errorf("invalid llm timeout")
	}

	switch config.Store.Driver {
	case StoreCSV, StoreSQLite, StoreBadger:
		if config.Store.Path == "" {
			return fmt.Errorf("store path is required for driver %q", config.Store.Driver)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unsupported store driver %q", config.Store.Driver)
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		switch config.Cache.Driver {
		case CacheMemory:
			if config.Cache.MaxSize <= 0 {
				return fmt.Errorf("invalid cache max size")
			}
			if config.Cache.CleanupInterval <= 0 {
				return fmt.Errorf("invalid cache cleanup interval")
			}
		case CacheRedis:
			if config.Cache.RedisAddr == "" {
				return fmt.Errorf("redis address is required")
			}
		default:
			return fmt.Errorf("unsupported cache driver %q", config.Cache.Driver)
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
	}

	if t := config.Catalog.MatchThreshold; t <= 0 || t > 1 {
		return fmt.Errorf("match threshold must be in (0, 1], got %v", t)
	}
	if config.Catalog.PerPersonDivisor <= 0 {
		return fmt.Errorf("per person divisor must be positive")
	}

	if config.RateLimit.Enabled && (config.RateLimit.Requests <= 0 || config.RateLimit.Window <= 0) {
		return fmt.Errorf("invalid rate limit")
	}
	return nil
}
