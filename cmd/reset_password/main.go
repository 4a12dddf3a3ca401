package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"appealdesk/models"
	"appealdesk/pkg/config"
	"appealdesk/pkg/database"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	username := flag.String("username", "", "username to reset")
	password := flag.String("password", "", "new plaintext password (min 6 chars)")
	flag.Parse()
	if *username == "" || *password == "" {
		log.Fatal("--username and --password are required")
	}
	if len(*password) < 6 {
		log.Fatal("password too short (min 6)")
	}
	config.LoadDotEnv()
	db := database.MustOpen(os.Getenv("DB_DSN"))

	var user models.User
	if err := db.Where("username = ?", *username).First(&user).Error; err != nil {
		log.Fatalf("user not found: %v", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt: %v", err)
	}
	if err := db.Model(&user).Update("hashed_password", hash).Error; err != nil {
		log.Fatalf("update failed: %v", err)
	}
	// Existing sessions must log in again.
	res := db.Model(&models.RefreshToken{}).Where("user_id = ? AND revoked = ?", user.ID, false).Update("revoked", true)
	if res.Error != nil {
		log.Printf("warning: revoking refresh tokens failed: %v", res.Error)
	}
	fmt.Printf("Password reset for user %s (refresh tokens revoked=%d)\n", user.Username, res.RowsAffected)
}
