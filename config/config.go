package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shouni/go-utils/envutil"
	"gopkg.in/yaml.v3"
)

// Значения по умолчанию
const (
	DefaultPort            = "8080"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultStaticDir       = "static"
	DefaultUploadDir       = "static/uploads"
	DefaultMaxUploadBytes  = 16 << 20
	DefaultAnalysisTimeout = 30 * time.Second
	DefaultChatTimeout     = 15 * time.Second
	DefaultMaxOutputTokens = 1000
	DefaultRateInterval    = time.Second
	DefaultCacheTTL        = 30 * time.Minute
	DefaultLogLevel        = "info"
)

// Config настройки приложения. Секреты берутся только из окружения.
type Config struct {
	TelegramToken string `yaml:"-"`
	GeminiAPIKey  string `yaml:"-"`

	GeminiModel     string        `yaml:"gemini_model"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
	RateInterval    time.Duration `yaml:"rate_interval"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`

	Port           string `yaml:"port"`
	StaticDir      string `yaml:"static_dir"`
	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	AnalysisTimeout time.Duration `yaml:"analysis_timeout"`
	ChatTimeout     time.Duration `yaml:"chat_timeout"`

	Palette  []string `yaml:"palette"`
	LogLevel string   `yaml:"log_level"`
}

// Default возвращает настройки по умолчанию
func Default() *Config {
	return &Config{
		GeminiModel:     DefaultGeminiModel,
		MaxOutputTokens: DefaultMaxOutputTokens,
		RateInterval:    DefaultRateInterval,
		CacheTTL:        DefaultCacheTTL,
		Port:            DefaultPort,
		StaticDir:       DefaultStaticDir,
		UploadDir:       DefaultUploadDir,
		MaxUploadBytes:  DefaultMaxUploadBytes,
		AnalysisTimeout: DefaultAnalysisTimeout,
		ChatTimeout:     DefaultChatTimeout,
		LogLevel:        DefaultLogLevel,
	}
}

// Load собирает настройки: значения по умолчанию, затем YAML-файл из XRAY_CONFIG, затем окружение.
func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := Default()

	if path := os.Getenv("XRAY_CONFIG"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	c.TelegramToken = envutil.GetEnv("TELEGRAM_TOKEN", c.TelegramToken)
	c.GeminiAPIKey = envutil.GetEnv("GEMINI_API_KEY", c.GeminiAPIKey)
	c.GeminiModel = envutil.GetEnv("GEMINI_MODEL", c.GeminiModel)
	c.Port = envutil.GetEnv("PORT", c.Port)
	c.StaticDir = envutil.GetEnv("STATIC_DIR", c.StaticDir)
	c.UploadDir = envutil.GetEnv("UPLOAD_DIR", c.UploadDir)
	c.LogLevel = envutil.GetEnv("LOG_LEVEL", c.LogLevel)

	if palette := envutil.GetEnv("PALETTE", ""); palette != "" {
		c.Palette = nil
		for _, h := range strings.Split(palette, ",") {
			c.Palette = append(c.Palette, strings.TrimSpace(h))
		}
	}

	var errs []error
	errs = append(errs,
		envInt("MAX_OUTPUT_TOKENS", &c.MaxOutputTokens),
		envInt64("MAX_UPLOAD_BYTES", &c.MaxUploadBytes),
		envDuration("ANALYSIS_TIMEOUT", &c.AnalysisTimeout),
		envDuration("CHAT_TIMEOUT", &c.ChatTimeout),
		envDuration("RATE_INTERVAL", &c.RateInterval),
		envDuration("CACHE_TTL", &c.CacheTTL),
	)
	return errors.Join(errs...)
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	var errs []error
	if c.AnalysisTimeout <= 0 {
		errs = append(errs, errors.New("analysis timeout must be positive"))
	}
	if c.ChatTimeout <= 0 {
		errs = append(errs, errors.New("chat timeout must be positive"))
	}
	if c.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("max upload bytes must be positive"))
	}
	if c.MaxOutputTokens <= 0 {
		errs = append(errs, errors.New("max output tokens must be positive"))
	}
	if c.UploadDir == "" {
		errs = append(errs, errors.New("upload dir is required"))
	}
	return errors.Join(errs...)
}

// SlogLevel уровень логирования из LogLevel
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func envInt(key string, dst *int) error {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func envInt64(key string, dst *int64) error {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}

func envDuration(key string, dst *time.Duration) error {
	raw := envutil.GetEnv(key, "")
	if raw == "" {
		return nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = v
	return nil
}
