package main

import (
	"Gin_postgres_redis_loan_tracker/app"
	"Gin_postgres_redis_loan_tracker/config"
	"Gin_postgres_redis_loan_tracker/routes"
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	config.LoadEnv()
	cfg := app.LoadConfig()

	lg := app.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		lg.Fatal("invalid configuration", zap.Error(err))
	}
	if cfg.LogFormat == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	application := app.MustNew(cfg, lg)
	defer application.Close()

	r := application.Router

	// Health
	r.GET("/healthz", func(c *app.Ctx) {
		sqlDB, err := application.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err == nil {
			err = application.RDB.Ping(c.Request.Context()).Err()
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, app.H{"ok": false, "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, app.H{"ok": true})
	})

	routes.RegisterRoutes(r, application)
	app.BootstrapAdminToken(cfg, application.Tokens, lg, os.Stderr)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		lg.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			lg.Fatal("server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Error("shutdown", zap.Error(err))
	}
}
