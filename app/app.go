package app

import (
	"Gin_postgres_redis_loan_tracker/db"
	"Gin_postgres_redis_loan_tracker/loans"
	"Gin_postgres_redis_loan_tracker/session"
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Short aliases for handlers.
type Ctx = gin.Context
type H = gin.H

// App holds the process-wide dependencies.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	Config Config
	Log    *zap.Logger
	Tokens *session.Tokens
	Loans  *loans.Service

	appSess *session.AppSessionStore
	idem    *session.IdempotencyStore
	limiter *RateLimiter
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }
func (a *App) Idempotency() *session.IdempotencyStore { return a.idem }
func (a *App) RateLimit() gin.HandlerFunc { return a.limiter.Middleware() }
func (a *App) Repo() *db.Repo { return db.NewRepo(a.DB) }

func MustNew(cfg Config, lg *zap.Logger) *App {
	// --- DB ---
	dbConn, err := db.Open(cfg.DatabaseURL, lg, gormlogger.Warn)
	if err != nil {
		lg.Fatal("open db", zap.Error(err))
	}
	if err := db.Migrate(dbConn); err != nil {
		lg.Fatal("migrate", zap.Error(err))
	}

	// --- Redis ---
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		lg.Fatal("redis", zap.Error(err))
	}

	// --- Gin ---
	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(lg))
	useCORS(r, cfg.WebOrigin)

	svc := loans.NewService(db.NewRepo(dbConn), lg.Named("loans"), loans.Options{MaxRetries: cfg.TxMaxRetries})

	return &App{
		Router:  r,
		DB:      dbConn,
		RDB:     rdb,
		Config:  cfg,
		Log:     lg,
		Tokens:  session.NewTokens(cfg.JWTSecret, cfg.SessionTTL),
		Loans:   svc,
		appSess: session.NewAppSessionStore(rdb, cfg.SessionTTL),
		idem:    session.NewIdempotencyStore(rdb, cfg.IdempotencyTTL),
		limiter: NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
	}
}

func (a *App) Close() {
	_ = a.RDB.Close()
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = a.Log.Sync()
}
