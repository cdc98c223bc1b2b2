package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 應用配置
type Config struct {
	App         AppConfig        `mapstructure:"app"`
	Server      ServerConfig     `mapstructure:"server"`
	OpenRouter  OpenRouterConfig `mapstructure:"openrouter"`
	Fetcher     FetcherConfig    `mapstructure:"fetcher"`
	Cache       CacheConfig      `mapstructure:"cache"`
	RateLimit   RateLimitConfig  `mapstructure:"rate_limit"`
	Image       ImageConfig      `mapstructure:"image"`
	Pipeline    PipelineConfig   `mapstructure:"pipeline"`
	DedupWindow time.Duration    `mapstructure:"dedup_window"`
	LogLevel    string           `mapstructure:"log_level"`
}

// AppConfig 應用程式設定
type AppConfig struct {
	Env      string `mapstructure:"env"`
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Version  string `mapstructure:"version"`
	Name     string `mapstructure:"name"`
}

// ServerConfig 服務器配置
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// OpenRouterConfig OpenRouter 配置
type OpenRouterConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// FetcherConfig 網頁抓取協作者設定
type FetcherConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	MaxBytes  int64         `mapstructure:"max_bytes"`
	UserAgent string        `mapstructure:"user_agent"`
}

// CacheConfig 緩存配置
type CacheConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	MaxSize         int           `mapstructure:"max_size"`
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
	RedisAddr       string        `mapstructure:"redis_addr"` // 非空時改用 Redis 後端
}

// RateLimitConfig 速率限制配置
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// ImageConfig 圖片配置
type ImageConfig struct {
	MaxSizeBytes int64 `mapstructure:"max_size_bytes"`
}

// PipelineConfig 管線設定
// 驗證器的門檻值刻意做成可調參數，不寫死在程式裡。
type PipelineConfig struct {
	LowConfidenceThreshold float64 `mapstructure:"low_confidence_threshold"`
	QuantityTolerance      float64 `mapstructure:"quantity_tolerance"`
	MissingMinConfidence   float64 `mapstructure:"missing_min_confidence"`
	NutrientTablePath      string  `mapstructure:"nutrient_table_path"`
	SynonymTablePath       string  `mapstructure:"synonym_table_path"`
}

// LoadConfig 載入設定
func LoadConfig() (*Config, error) {
	// 加載 .env 文件（允許不存在）
	_ = godotenv.Load()

	// 設定預設值
	setDefaults()

	// 設定環境變數前綴
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// 綁定環境變量
	viper.BindEnv("openrouter.enabled", "OPENROUTER_ENABLED")
	viper.BindEnv("openrouter.api_key", "OPENROUTER_API_KEY")
	viper.BindEnv("openrouter.model", "OPENROUTER_MODEL")
	viper.BindEnv("openrouter.max_tokens", "MODEL_MAX_TOKENS")
	viper.BindEnv("cache.enabled", "CACHE_ENABLED")
	viper.BindEnv("cache.redis_addr", "CACHE_REDIS_ADDR")
	viper.BindEnv("rate_limit.enabled", "RATE_LIMIT_ENABLED")
	viper.BindEnv("rate_limit.requests", "RATE_LIMIT_REQUESTS")
	viper.BindEnv("rate_limit.window", "RATE_LIMIT_WINDOW")
	viper.BindEnv("pipeline.nutrient_table_path", "NUTRIENT_TABLE_PATH")
	viper.BindEnv("pipeline.synonym_table_path", "SYNONYM_TABLE_PATH")
	viper.BindEnv("dedup_window", "DEDUP_WINDOW")
	viper.BindEnv("log_level", "LOG_LEVEL")

	// 設定設定檔名稱和路徑
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	// 讀取設定檔
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 添加調試日誌（logger 尚未初始化，改用 fmt.Println）
	fmt.Println("Loading configuration", "openrouter_api_key:", maskAPIKey(viper.GetString("openrouter.api_key")), "openrouter_model:", viper.GetString("openrouter.model"))

	// 解析設定
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 驗證必要設定
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// maskAPIKey 遮罩 API Key，只顯示前後各 4 個字符
func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// setDefaults 設定預設值
func setDefaults() {
	// 應用程式設定
	viper.SetDefault("app.env", "development")
	viper.SetDefault("app.debug", true)
	viper.SetDefault("app.log_level", "info")
	viper.SetDefault("app.version", "1.0.0")
	viper.SetDefault("app.name", "recipe-pipeline")

	// 伺服器設定
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")

	// OpenRouter 設定
	viper.SetDefault("openrouter.enabled", false)
	viper.SetDefault("openrouter.model", "qwen/qwen2.5-vl-72b-instruct:free")
	viper.SetDefault("openrouter.max_tokens", 2000)
	viper.SetDefault("openrouter.timeout", "60s")

	// 抓取協作者設定
	viper.SetDefault("fetcher.timeout", "20s")
	viper.SetDefault("fetcher.max_bytes", 5*1024*1024) // 5MB
	viper.SetDefault("fetcher.user_agent", "recipe-pipeline/1.0")

	// 快取設定
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size", 1000)
	viper.SetDefault("cache.ttl", "24h")
	viper.SetDefault("cache.cleanup_interval", "10m")
	viper.SetDefault("cache.redis_addr", "")

	// 限流設定
	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests", 100)
	viper.SetDefault("rate_limit.window", "1m")

	// 圖片設定
	viper.SetDefault("image.max_size_bytes", 10*1024*1024) // 10MB

	// 管線門檻值（未經真實語料調校，保持可調）
	viper.SetDefault("pipeline.low_confidence_threshold", 0.5)
	viper.SetDefault("pipeline.quantity_tolerance", 0.5)
	viper.SetDefault("pipeline.missing_min_confidence", 0.35)
	viper.SetDefault("pipeline.nutrient_table_path", "")
	viper.SetDefault("pipeline.synonym_table_path", "")

	// 去重視窗預設
	viper.SetDefault("dedup_window", "1s")
}

// validateConfig 驗證設定
func validateConfig(config *Config) error {
	// 驗證伺服器設定
	if config.Server.Port == 0 {
		return fmt.Errorf("server port is required")
	}

	// 驗證快取設定
	if config.Cache.Enabled {
		if config.Cache.MaxSize <= 0 {
			return fmt.Errorf("invalid cache max size")
		}
		if config.Cache.TTL <= 0 {
			return fmt.Errorf("invalid cache ttl")
		}
		if config.Cache.CleanupInterval <= 0 {
			return fmt.Errorf("invalid cache cleanup interval")
		}
	}

	// 驗證管線門檻值
	if config.Pipeline.LowConfidenceThreshold < 0 || config.Pipeline.LowConfidenceThreshold > 1 {
		return fmt.Errorf("invalid low confidence threshold")
	}
	if config.Pipeline.QuantityTolerance <= 0 {
		return fmt.Errorf("invalid quantity tolerance")
	}
	if config.Pipeline.MissingMinConfidence < 0 || config.Pipeline.MissingMinConfidence > 1 {
		return fmt.Errorf("invalid missing ingredient confidence threshold")
	}

	return nil
}
