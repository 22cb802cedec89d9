// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"shopcore/internal/core/types"
	"shopcore/internal/domain/auth"
	"shopcore/internal/domain/catalogs/product"
	"shopcore/internal/infrastructure/storage/postgres"
	"shopcore/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	poolCfg := postgres.DefaultPoolConfig(dbURL)
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("connected to database")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)
	userRepo := postgres.NewUserRepo(txManager)
	productRepo := postgres.NewProductRepo(txManager)

	if err := seedAdminUser(ctx, userRepo, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoProducts(ctx, txManager, productRepo, log); err != nil {
			log.Fatalw("failed to seed demo products", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, users *postgres.UserRepo, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@shopcore.local"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	exists, err := users.Exists(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		log.Infow("admin user already exists", "email", adminEmail)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	admin := auth.NewUser(adminEmail, string(hash))
	admin.Name = "Administrator"
	admin.IsAdmin = true
	admin.Roles = []string{auth.RoleAdmin}

	if err := users.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail)
	return nil
}

func seedDemoProducts(ctx context.Context, txManager *postgres.TxManager, products *postgres.ProductRepo, log *logger.Logger) error {
	demo := []struct {
		name      string
		sku       string
		quantity  int64
		costPrice string
		price     string
	}{
		{"Wireless Mouse", "WM-001", 120, "8.50", "19.99"},
		{"Mechanical Keyboard", "MK-002", 60, "32.00", "79.99"},
		{"USB-C Hub", "UH-003", 200, "11.20", "29.99"},
		{"27\" Monitor", "MN-004", 35, "145.00", "249.99"},
		{"Laptop Stand", "LS-005", 80, "9.75", "24.99"},
	}

	// one transaction per product so a duplicate SKU does not abort the rest
	for _, d := range demo {
		p := product.New(d.name, d.quantity,
			types.MustMoney(d.costPrice), types.MustMoney(d.price))
		sku := d.sku
		p.SKU = &sku
		p.CreatedBy = "seed"
		p.UpdatedBy = "seed"

		err := txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			return products.Create(ctx, p)
		})
		if err != nil {
			log.Warnw("skipping product", "name", d.name, "error", err)
			continue
		}
		log.Infow("product created", "name", d.name, "sku", d.sku)
	}
	return nil
}
