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
	email := flag.String("email", "", "profile email printed on letters")
	address := flag.String("address", "", "profile address printed on letters")
	phone := flag.String("phone", "", "profile phone printed on letters")
	name := flag.String("name", "", "full name for the profile (default username)")
	admin := flag.Bool("admin", false, "give the user the administrator role")
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Println("usage: go run ./cmd/create_user [flags] <username> <password>")
		os.Exit(2)
	}
	username := flag.Arg(0)
	password := flag.Arg(1)

	config.LoadDotEnv()
	db := database.MustOpen(os.Getenv("DB_DSN"))

	roleName := "user"
	if *admin {
		roleName = "administrator"
	}
	// ensure role exists
	var role models.Role
	if err := db.Where("name = ?", roleName).First(&role).Error; err != nil {
		role = models.Role{Name: roleName, Description: "regular user"}
		if *admin {
			role.Description = "full access"
		}
		db.Create(&role)
	}

	// check existing
	var existing models.User
	if err := db.Where("username = ?", username).First(&existing).Error; err == nil {
		fmt.Printf("user %s already exists (id=%d)\n", username, existing.ID)
		os.Exit(0)
	}

	hpw, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("bcrypt failed: %v", err)
	}
	rid := role.ID
	user := models.User{Username: username, HashedPassword: hpw, RoleID: &rid}
	if err := db.Create(&user).Error; err != nil {
		log.Fatalf("failed to create user: %v", err)
	}
	full := *name
	if full == "" {
		full = username
	}
	// create profile so letters are pre-filled
	prof := models.Profile{UserID: user.ID, Name: full, Email: *email, Address: *address, Phone: *phone, Active: true}
	if err := db.Create(&prof).Error; err != nil {
		log.Printf("warning: failed to create profile: %v", err)
	}
	fmt.Printf("created user %s id=%d role=%s\n", username, user.ID, roleName)
}
