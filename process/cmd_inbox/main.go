package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"appealdesk/models"
	"appealdesk/pkg/cases"
	"appealdesk/pkg/config"
	"appealdesk/pkg/database"
	"appealdesk/pkg/fields"
	"appealdesk/pkg/intake"
	"appealdesk/pkg/ocr"
	"appealdesk/process/inbox"

	"gorm.io/gorm"
)

// Scans an inbox directory of scanned tickets and housing documents, records
// the extracted fields as uploads and optionally keeps watching for new files.
func main() {
	dirFlag := flag.String("dir", "inbox", "directory to scan for document images")
	kindFlag := flag.String("kind", "parking", "kind for files directly under -dir (parking|housing)")
	username := flag.String("username", "admin", "user the uploads belong to")
	dryRun := flag.Bool("dry-run", false, "Skip all DB writes and keep the files; just log what OCR finds")
	watch := flag.Bool("watch", false, "Watch directory for new files")
	workers := flag.Int("workers", 0, "Worker pool size (default NumCPU)")
	verbose := flag.Bool("verbose", false, "Verbose per-file logging")
	flag.Parse()

	kind, ok := fields.ParseKind(*kindFlag)
	if !ok {
		log.Fatalf("invalid -kind %q", *kindFlag)
	}

	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	proc := intake.New(ocr.NewExtractor(ocr.NewTesseract(cfg.TesseractLang, cfg.TessdataPrefix), cfg.TempDir), cfg.TempDir)
	r := &inbox.Runner{
		Opts: inbox.Options{
			Dir:     *dirFlag,
			Kind:    kind,
			Workers: *workers,
			DryRun:  *dryRun,
			Verbose: *verbose,
		},
		Intake: proc,
	}
	if !*dryRun {
		db := database.MustOpen(cfg.DBDSN)
		r.Opts.UserID = resolveUser(db, *username)
		r.Store = cases.GormStore{DB: db}
	} else {
		log.Printf("Dry-run: scanning %s (no DB interaction)", *dirFlag)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := r.Scan(ctx)
	log.Printf("Scan done: processed=%d empty=%d failed=%d", st.Processed, st.Empty, st.Failed)

	if *watch {
		if err := r.Watch(ctx); err != nil {
			log.Fatalf("watch failed: %v", err)
		}
	}
}

func resolveUser(db *gorm.DB, username string) *uint {
	if username == "" {
		return nil
	}
	var u models.User
	if err := db.Where("username = ?", username).First(&u).Error; err != nil {
		log.Fatalf("user %s not found: %v", username, err)
	}
	return &u.ID
}
