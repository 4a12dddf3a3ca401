// Package config loads runtime settings from an optional YAML file and the
// environment. Environment variables always win over the file.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting the server, bot and CLIs read.
type Config struct {
	HTTPAddr      string `yaml:"http_addr"`
	DBDSN         string `yaml:"db_dsn"`
	DBAutoMigrate bool   `yaml:"db_auto_migrate"`
	JWTSecret     string `yaml:"jwt_secret"`

	TempDir   string `yaml:"temp_dir"`
	OutputDir string `yaml:"output_dir"`

	TesseractLang  string `yaml:"tesseract_lang"`
	TessdataPrefix string `yaml:"tessdata_prefix"`

	PreviewMaxWidth  int `yaml:"preview_max_width"`
	PreviewMaxHeight int `yaml:"preview_max_height"`
	MaxUploadMB      int `yaml:"max_upload_mb"`
	MaxHousingImages int `yaml:"max_housing_images"`

	TelegramToken       string        `yaml:"telegram_bot_token"`
	TelegramPollTimeout time.Duration `yaml:"telegram_poll_timeout"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		HTTPAddr:            ":8081",
		DBAutoMigrate:       true,
		JWTSecret:           "dev-insecure-secret-change",
		OutputDir:           "output",
		TesseractLang:       "eng",
		PreviewMaxWidth:     400,
		PreviewMaxHeight:    300,
		MaxUploadMB:         10,
		MaxHousingImages:    3,
		TelegramPollTimeout: 30 * time.Second,
	}
}

// LoadDotEnv loads ./.env if present without overriding variables already set.
func LoadDotEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("WARN .env: %v", err)
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// APPEALDESK_CONFIG (if set), then environment overrides.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("APPEALDESK_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}
	cfg.applyEnv()
	return cfg, cfg.validate()
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.DBDSN = getEnv("DB_DSN", c.DBDSN)
	c.DBAutoMigrate = getEnvBool("DB_AUTO_MIGRATE", c.DBAutoMigrate)
	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.TempDir = getEnv("TEMP_DIR", c.TempDir)
	c.OutputDir = getEnv("OUTPUT_DIR", c.OutputDir)
	c.TesseractLang = getEnv("TESSERACT_LANG", c.TesseractLang)
	c.TessdataPrefix = getEnv("TESSDATA_PREFIX", c.TessdataPrefix)
	c.PreviewMaxWidth = getEnvInt("PREVIEW_MAX_WIDTH", c.PreviewMaxWidth)
	c.PreviewMaxHeight = getEnvInt("PREVIEW_MAX_HEIGHT", c.PreviewMaxHeight)
	c.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", c.MaxUploadMB)
	c.MaxHousingImages = getEnvInt("MAX_HOUSING_IMAGES", c.MaxHousingImages)
	c.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", c.TelegramToken)
	c.TelegramPollTimeout = getEnvDuration("TELEGRAM_POLL_TIMEOUT", c.TelegramPollTimeout)
}

func (c *Config) validate() error {
	if c.PreviewMaxWidth <= 0 || c.PreviewMaxHeight <= 0 {
		return fmt.Errorf("preview bounds must be positive, got %dx%d", c.PreviewMaxWidth, c.PreviewMaxHeight)
	}
	if c.MaxHousingImages <= 0 {
		return fmt.Errorf("max housing images must be positive, got %d", c.MaxHousingImages)
	}
	if c.MaxUploadMB <= 0 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadMB)
	}
	return nil
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (c Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN config %s=%q is not an integer, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "":
		return def
	case "false", "0", "no":
		return false
	default:
		return true
	}
}

// getEnvDuration accepts Go durations ("45s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	log.Printf("WARN config %s=%q is not a duration, using %s", key, v, def)
	return def
}
