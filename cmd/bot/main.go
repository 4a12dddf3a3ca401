package main

import (
	"context"
	"errors"
	"log"
	"net"
	"os/signal"
	"regexp"
	"strconv"
	"strings"
	"syscall"
	"time"

	"appealdesk/pkg/cases"
	"appealdesk/pkg/config"
	"appealdesk/pkg/database"
	"appealdesk/pkg/intake"
	"appealdesk/pkg/ocr"
	"appealdesk/pkg/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if strings.TrimSpace(cfg.TelegramToken) == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN is not set")
	}

	db := database.MustOpen(cfg.DBDSN)
	if cfg.DBAutoMigrate {
		database.MigrateCases(db)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("telegram: %v", err)
	}
	bot.Debug = false
	log.Printf("authorized on account %s", bot.Self.UserName)

	store := cases.GormStore{DB: db}
	proc := intake.New(ocr.NewExtractor(ocr.NewTesseract(cfg.TesseractLang, cfg.TessdataPrefix), cfg.TempDir), cfg.TempDir)
	proc.MaxHousingImages = cfg.MaxHousingImages

	r := &telegram.Router{
		Bot: bot,
		Cases: &cases.Service{
			Store:     store,
			Intake:    proc,
			OutputDir: cfg.OutputDir,
		},
		Chats:     store,
		MaxImages: cfg.MaxHousingImages,
		MaxBytes:  cfg.MaxUploadBytes(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	runPolling(ctx, bot, int(cfg.TelegramPollTimeout/time.Second), func(upd tgbotapi.Update) {
		go r.HandleUpdate(ctx, upd)
	})
}

var reRetryAfter = regexp.MustCompile(`(?i)retry after\s+(\d+)`)

func retryDelayFromError(err error) time.Duration {
	if err == nil {
		return 0
	}
	s := strings.ToLower(err.Error())
	if strings.Contains(s, "too many requests") {
		if m := reRetryAfter.FindStringSubmatch(s); len(m) == 2 {
			if n, _ := strconv.Atoi(m[1]); n > 0 {
				return time.Duration(n) * time.Second
			}
		}
		return 3 * time.Second
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return 2 * time.Second
	}
	return 1 * time.Second
}

// runPolling long-polls getUpdates until ctx is cancelled, backing off on
// errors instead of exiting.
func runPolling(ctx context.Context, bot *tgbotapi.BotAPI, timeout int, handle func(tgbotapi.Update)) {
	offset := 0
	baseDelay := 1 * time.Second
	maxDelay := 15 * time.Second
	if timeout <= 0 {
		timeout = 30
	}

	for {
		select {
		case <-ctx.Done():
			log.Printf("polling: context cancelled")
			return
		default:
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = timeout

		updates, err := bot.GetUpdates(u)
		if err != nil {
			d := retryDelayFromError(err)
			if d < baseDelay {
				d = baseDelay
			}
			if d > maxDelay {
				d = maxDelay
			}
			log.Printf("polling error: %v; retry in %v", err, d)
			time.Sleep(d)
			continue
		}

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			handle(upd)
		}

		if len(updates) == 0 {
			time.Sleep(200 * time.Millisecond)
		}
	}
}
