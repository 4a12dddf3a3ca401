package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"APPEALDESK_CONFIG", "HTTP_ADDR", "DB_DSN", "DB_AUTO_MIGRATE", "JWT_SECRET", "TEMP_DIR",
		"OUTPUT_DIR", "TESSERACT_LANG", "TESSDATA_PREFIX", "PREVIEW_MAX_WIDTH", "PREVIEW_MAX_HEIGHT",
		"MAX_UPLOAD_MB", "MAX_HOUSING_IMAGES", "TELEGRAM_BOT_TOKEN", "TELEGRAM_POLL_TIMEOUT",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8081" || cfg.TesseractLang != "eng" || cfg.MaxHousingImages != 3 {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.PreviewMaxWidth != 400 || cfg.PreviewMaxHeight != 300 {
		t.Fatalf("preview defaults %dx%d", cfg.PreviewMaxWidth, cfg.PreviewMaxHeight)
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Fatalf("upload bytes %d", cfg.MaxUploadBytes())
	}
}

func TestFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "appealdesk.yaml")
	yml := "http_addr: \":9000\"\ntesseract_lang: deu\nmax_housing_images: 5\ntelegram_poll_timeout: 45s\ndb_auto_migrate: false\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APPEALDESK_CONFIG", path)
	t.Setenv("HTTP_ADDR", ":7000")
	t.Setenv("PREVIEW_MAX_WIDTH", "not-a-number")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":7000" {
		t.Fatalf("env should override file, got %s", cfg.HTTPAddr)
	}
	if cfg.TesseractLang != "deu" || cfg.MaxHousingImages != 5 || cfg.DBAutoMigrate {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.TelegramPollTimeout != 45*time.Second {
		t.Fatalf("poll timeout %s", cfg.TelegramPollTimeout)
	}
	if cfg.PreviewMaxWidth != 400 {
		t.Fatalf("bad integer should keep default, got %d", cfg.PreviewMaxWidth)
	}
}

func TestEnvDurationSeconds(t *testing.T) {
	clearEnv(t)
	t.Setenv("TELEGRAM_POLL_TIMEOUT", "12")
	t.Setenv("DB_AUTO_MIGRATE", "no")
	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.TelegramPollTimeout != 12*time.Second || cfg.DBAutoMigrate {
		t.Fatalf("unexpected %+v", cfg)
	}
}

func TestValidation(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAX_HOUSING_IMAGES", "0")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for zero housing images")
	}
	t.Setenv("MAX_HOUSING_IMAGES", "")
	t.Setenv("APPEALDESK_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
