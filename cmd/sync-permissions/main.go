package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/stemsi/dropwatch/internal/config"
	"github.com/stemsi/dropwatch/internal/database"
	"github.com/stemsi/dropwatch/internal/logger"
	"github.com/stemsi/dropwatch/internal/model"
	"github.com/stemsi/dropwatch/internal/repository"
	"github.com/stemsi/dropwatch/internal/service"
)

func main() {
	roleID := flag.Int("role", 1, "Role ID that receives every permission")
	flag.Parse()

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

	adminService := service.NewAdminService(repository.NewAdminRepository(pool), repository.NewRoleRepository(pool))

	fmt.Println("=== Sync Role Permissions ===")
	fmt.Printf("Registering %d permission codes and granting all of them to role %d.\n", len(model.AllPermissions), *roleID)

	if err := adminService.SyncRolePermissions(ctx, *roleID); err != nil {
		log.Fatal().Err(err).Int("role_id", *roleID).Msg("Failed to sync permissions")
	}

	fmt.Printf("\nSuccess! Role %d now holds every permission.\n", *roleID)
}
