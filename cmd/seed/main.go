package main

import (
	"context"
	"fmt"
	"log"

	"github.com/Modeva-Ecommerce/modeva-webshop/app"
	"github.com/Modeva-Ecommerce/modeva-webshop/config"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/seed"
	"github.com/Modeva-Ecommerce/modeva-webshop/utils"
)

// main migrates the webshop schema, loads the demo catalog and prints an
// admin token.
// Usage: go run cmd/seed/main.go
// This is a standalone CLI tool, not part of the main application
func main() {
	fmt.Println("════════════════════════════════════════════════════════════")
	fmt.Println("MODEVA WEBSHOP - Demo Catalog Seeder")
	fmt.Println("════════════════════════════════════════════════════════════")
	fmt.Println()

	cfg := config.Load()
	logger.InitLogger(cfg)

	config.InitDB(cfg)
	defer config.CloseDB()
	config.ConnectRedis(cfg)
	defer config.CloseRedis()
	log.Println("✓ Connected to database and Redis")

	if err := config.WebshopGorm.AutoMigrate(repositories.Models()...); err != nil {
		log.Fatalf("Failed to migrate schema: %v", err)
	}
	log.Println("✓ Schema migrated")

	repos := repositories.NewGorm(config.WebshopGorm, events.NewDispatcher(logger.GetLogger()))
	shop := app.New(cfg, repos, config.RedisClient)

	if err := seed.Demo(context.Background(), shop); err != nil {
		log.Fatalf("Failed to seed demo catalog: %v", err)
	}
	log.Println("✓ Demo catalog seeded")

	email := adminEmail()
	token, err := utils.GenerateJWT(cfg.JWT.AdminSecret, email, "Webshop Admin", utils.RoleAdmin, cfg.JWT.Expiration)
	if err != nil {
		log.Fatalf("Failed to sign admin token: %v", err)
	}

	fmt.Println()
	fmt.Println("════════════════════════════════════════════════════════════")
	fmt.Println("✅ Demo Catalog Ready")
	fmt.Println("════════════════════════════════════════════════════════════")
	fmt.Printf("Admin: %s\n", email)
	fmt.Printf("Token: %s\n", token)
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("1. Start the server: go run main.go")
	fmt.Println("2. Browse GET /api/v1/store/products")
	fmt.Println("3. Send the token as 'Authorization: Bearer <token>' to /api/v1/admin")
	fmt.Println()
}

func adminEmail() string {
	var email string
	fmt.Print("Admin email [admin@modeva.local]: ")
	fmt.Scanln(&email)
	if email == "" {
		email = "admin@modeva.local"
	}
	return email
}
