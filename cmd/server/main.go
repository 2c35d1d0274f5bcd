package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"parimarket/internal/broadcast"
	"parimarket/internal/config"
	cronrunner "parimarket/internal/cron"
	"parimarket/internal/db"
	"parimarket/internal/handler"
	"parimarket/internal/logger"
	"parimarket/internal/pricefeed"
	"parimarket/internal/repository"
	gormrepository "parimarket/internal/repository/gorm"
	"parimarket/internal/service"
)

func main() {
	cfgPath := os.Getenv("PARI_CONFIG")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	envOnly := os.Getenv("PARI_ENV_ONLY") == "1"

	cfg, err := config.Load(cfgPath, envOnly)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DB)
	if err != nil {
		log.Fatal("open database failed", zap.Error(err))
	}
	defer db.Close(database)

	if err := db.SetTimezone(database, cfg.DB.Timezone); err != nil {
		log.Warn("set timezone failed", zap.Error(err))
	}
	if err := db.AutoMigrate(database); err != nil {
		log.Fatal("migrate failed", zap.Error(err))
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn("redis unreachable, notices stay local", zap.Error(err))
		}
	}

	var repo repository.Repository = gormrepository.New(database.Gorm)

	hub := broadcast.New(log, rdb, cfg.Redis.Channel, cfg.Broadcast.SendBuffer)
	go hub.Run(ctx)

	ledger := &service.Ledger{Repo: repo}
	admission := &service.Admission{
		Repo:   repo,
		Ledger: ledger,
		Config: cfg.Market,
		Logger: log,
	}
	settlement := &service.Settlement{
		Repo:        repo,
		Ledger:      ledger,
		Broadcaster: hub,
		Logger:      log,
	}
	account := &service.Account{
		Repo:   repo,
		Ledger: ledger,
		Config: cfg.Account,
		Logger: log,
	}
	scheduler := &service.Scheduler{
		Repo:       repo,
		Settlement: settlement,
		Prices:     pricefeed.NewClient(cfg.PriceFeed),
		Config:     cfg.Resolution,
		Logger:     log,
	}

	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery(), handler.RequestID(), handler.CORS())

	(&handler.HealthHandler{DB: database.Gorm}).Register(engine)
	(&handler.UserHandler{Repo: repo, Account: account}).Register(engine)
	(&handler.EventHandler{Repo: repo, Settlement: settlement}).Register(engine)
	(&handler.BetHandler{Admission: admission}).Register(engine)
	(&handler.WSHandler{Hub: hub, Logger: log}).Register(engine)

	runner := cronrunner.New(log, ctx)
	if cfg.Resolution.Enabled {
		if _, err := runner.Add(cfg.Resolution.CronSpec, func(jobCtx context.Context) {
			if err := scheduler.RunOnce(jobCtx); err != nil {
				log.Warn("resolution tick failed", zap.Error(err))
			}
		}); err != nil {
			log.Fatal("register resolution job failed", zap.Error(err))
		}
	}
	runner.Start()
	defer runner.Stop()

	srv := &http.Server{
		Addr:    cfg.Server.HTTPAddr,
		Handler: engine,
	}

	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
