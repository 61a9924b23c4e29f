// @title Modeva Webshop API
// @version 1.0
// @description Storefront catalog, cart and webshop administration
// @host localhost:8081
// @BasePath /api/v1
// @schemes http
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Modeva-Ecommerce/modeva-webshop/app"
	"github.com/Modeva-Ecommerce/modeva-webshop/config"
	"github.com/Modeva-Ecommerce/modeva-webshop/events"
	"github.com/Modeva-Ecommerce/modeva-webshop/logger"
	"github.com/Modeva-Ecommerce/modeva-webshop/metrics"
	"github.com/Modeva-Ecommerce/modeva-webshop/repositories"
	"github.com/Modeva-Ecommerce/modeva-webshop/seed"
)

func main() {
	cfg := config.Load()
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	defer log.Sync()

	metrics.InitMetrics(cfg.Metrics.Prefix)

	config.ConnectRedis(cfg)
	defer config.CloseRedis()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hooks := events.NewDispatcher(log)
	var repos *repositories.Set
	switch cfg.Server.Store {
	case "memory":
		repos = repositories.NewMemory(hooks)
	default:
		config.InitDB(cfg)
		defer config.CloseDB()
		repos = repositories.NewGorm(config.WebshopGorm, hooks)
	}

	shop := app.New(cfg, repos, config.RedisClient)
	if cfg.Server.Store == "memory" {
		if err := seed.Demo(ctx, shop); err != nil {
			log.Fatal("failed to seed demo catalog", zap.Error(err))
		}
		log.Info("✅ In-memory record store seeded with demo catalog")
	}

	router := shop.Router(cfg, func(c *gin.Context) error {
		if err := config.PingDB(c.Request.Context()); err != nil {
			return err
		}
		return config.RedisClient.Ping(c.Request.Context()).Err()
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("🚀 Server is running", zap.String("addr", srv.Addr), zap.String("store", cfg.Server.Store))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", zap.Error(err))
	}
}
