package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/database"
	"github.com/stemsi/dropwatch/internal/logger"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/service"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	// ─── Initialize Services ───────────────────────────────────────────
	adminService := service.NewAdminService(repository.NewAdminRepository(pool), repository.NewRoleRepository(pool))
	authService := service.NewAuthService(cfg)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)
	prompt := func(label string) string {
		fmt.Print(label)
		s, _ := reader.ReadString('\n')
		return strings.TrimSpace(s)
	}

	fmt.Println("=== Create Dashboard Admin ===")

	name := prompt("Enter Name: ")
	if name == "" {
		fmt.Println("Error: Name is required")
		return
	}

	email := prompt("Enter Email: ")
	if email == "" || !strings.Contains(email, "@") {
		fmt.Println("Error: A valid email is required")
		return
	}

	fmt.Print("Enter Password: ")
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Println("Error reading password")
		return
	}
	password := string(bytePassword)
	if len(password) < 6 {
		fmt.Println("Error: Password must be at least 6 characters")
		return
	}

	roleID := 1
	if raw := prompt("Enter Role ID (1 superadmin, 2 counselor; default 1): "); raw != "" {
		roleID, err = strconv.Atoi(raw)
		if err != nil || roleID < 1 {
			fmt.Println("Error: Role ID must be a positive number")
			return
		}
	}

	// ─── Create ────────────────────────────────────────────────────────
	hash, err := authService.HashPassword(password)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash password")
	}

	admin := &model.Admin{Email: email, Name: name, PasswordHash: hash, RoleID: roleID}
	if err := adminService.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicateAdmin) {
			fmt.Printf("Error: an admin with email %s already exists\n", email)
			os.Exit(1)
		}
		log.Fatal().Err(err).Msg("Failed to create admin")
	}

	fmt.Printf("\nSuccess! Admin '%s' (%s) created with ID: %d\n", admin.Name, admin.Email, admin.ID)
}
