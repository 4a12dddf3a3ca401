package main

import (
	"fmt"
	"log"
	"os"

	"appealdesk/pkg/config"

	"github.com/gin-gonic/gin"
)

var (
	cfg       config.Config
	jwtSecret []byte // from JWT_SECRET (falls back to a dev default)
)

func main() {
	// .env first so its values are visible to config.Load
	config.LoadDotEnv()
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	jwtSecret = []byte(cfg.JWTSecret)

	// `./appealdesk migrate` runs AutoMigrate and seeding then exits.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB()
		fmt.Println("migration and seeding completed")
		return
	}

	initDB()
	initPipeline()

	r := gin.Default()
	r.MaxMultipartMemory = cfg.MaxUploadBytes()
	setupRoutes(r)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("http server: %v", err)
	}
}
