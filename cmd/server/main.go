package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/profile-service/internal/cache"
	"github.com/iliyamo/profile-service/internal/config"
	"github.com/iliyamo/profile-service/internal/database"
	"github.com/iliyamo/profile-service/internal/handler"
	"github.com/iliyamo/profile-service/internal/logging"
	"github.com/iliyamo/profile-service/internal/middleware"
	"github.com/iliyamo/profile-service/internal/queue"
	"github.com/iliyamo/profile-service/internal/repository"
	"github.com/iliyamo/profile-service/internal/router"
	"github.com/iliyamo/profile-service/internal/service"
	"github.com/iliyamo/profile-service/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.New("prod").Error("load config", "err", err)
		os.Exit(1)
	}
	log := logging.New(cfg.Env)

	dsn := cfg.DBDSN
	if dsn == "" {
		dsn = database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	}
	db, err := database.Open(dsn)
	if err != nil {
		log.Error("connect mysql", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.DBAutoMigrate {
		if err := database.Migrate(context.Background(), db); err != nil {
			log.Error("migrate", "err", err)
			os.Exit(1)
		}
	}

	rdb, err := config.NewRedisClient(cfg.Redis)
	if err != nil {
		// start degraded; cache reads fall back to MySQL and OTP calls report the outage
		log.Warn("redis unavailable at startup", "err", err)
	}
	defer rdb.Close()
	store := cache.NewRedisStore(rdb)

	var notifier queue.Notifier = queue.LogNotifier{Log: log}
	if cfg.Notifier == "amqp" {
		notifier = queue.NewPublisher(cfg.RabbitMQURL, cfg.OTPQueue, log)
	}

	tokens := utils.NewSessionTokens(cfg.JWTSecret, cfg.JWTIssuer, cfg.SessionTTL)
	accounts := repository.NewAccountRepo(db)
	profiles := repository.NewProfileRepo(db)

	reg := service.NewRegistration(accounts, store, notifier, service.RegistrationConfig{
		OTPTTL:        cfg.Cache.OTPTTL,
		OTPKeyPrefix:  cfg.Cache.OTPKeyPrefix,
		BcryptCost:    cfg.BcryptCost,
		NotifyTimeout: cfg.NotifyTimeout,
	}, log)
	login := service.NewLogin(accounts, tokens, cfg.CookieSecure)
	prof := service.NewProfiles(profiles, store, service.ProfileConfig{
		CacheTTL:  cfg.Cache.ProfileTTL,
		KeyPrefix: cfg.Cache.ProfileKeyPrefix,
	}, log)

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.IsDevelopment()
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echomw.Recover())

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log)
	router.RegisterRoutes(e, map[string]handler.Pinger{"mysql": db, "redis": store})
	router.RegisterAuth(e, handler.NewAuthHandler(reg, login, cfg.RequestTimeout), tokens, limiter)
	router.RegisterUser(e, handler.NewUserHandler(prof, cfg.RequestTimeout), tokens)

	addr := ":" + cfg.Port
	go func() {
		log.Info("listening", "addr", addr, "env", cfg.Env, "notifier", cfg.Notifier)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
	reg.Wait() // let in-flight OTP notifications finish
	log.Info("stopped")
}
