package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nimasrn/hacienda/internal/config"
	"github.com/nimasrn/hacienda/internal/handlers"
	"github.com/nimasrn/hacienda/internal/idempotency"
	"github.com/nimasrn/hacienda/internal/passwords"
	"github.com/nimasrn/hacienda/internal/repository"
	"github.com/nimasrn/hacienda/internal/seed"
	"github.com/nimasrn/hacienda/internal/services"
	"github.com/nimasrn/hacienda/pkg/db"
	xhttp "github.com/nimasrn/hacienda/pkg/http"
	"github.com/nimasrn/hacienda/pkg/logger"
	"github.com/nimasrn/hacienda/pkg/prom"
	"github.com/nimasrn/hacienda/pkg/redis"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	err := config.Load(argContainsEnvPath())
	if err != nil {
		logger.Error("failed to load config", "error", err)
		return
	}
	cfg := config.Get()
	logger.Info("starting api", "version", version, "commit", commit, "date", date, "env", cfg.AppEnv)

	store, err := db.Open(cfg.ServerDB())
	if err != nil {
		logger.Error("failed opening db", "error", err)
		return
	}
	defer store.Close()

	ctx := context.Background()
	if cfg.DBAutoMigrate {
		if err := store.Migrate(ctx); err != nil {
			logger.Error("failed migrating db", "error", err)
			return
		}
	}

	hasher := passwords.New(cfg.PasswordHashCost)
	if cfg.DBSeed {
		if _, err := seed.Run(ctx, store, hasher); err != nil {
			logger.Error("failed seeding db", "error", err)
			return
		}
	}

	// idempotency keys are honored only with redis configured
	var idem services.IdempotencyStore
	if cfg.RedisAddr != "" {
		redisAdap, err := redis.NewRedisAdapter("default", cfg.RedisUniversalKeyPrefix, &redis.Options{
			Addrs:      []string{cfg.RedisAddr},
			ClientName: cfg.AppName,
			DB:         cfg.RedisDatabase,
			Username:   cfg.RedisUsername,
			Password:   cfg.RedisPassword,
		})
		if err != nil {
			logger.Error("failed connecting to redis", "error", err)
			return
		}
		defer redisAdap.Close()
		idemConf := idempotency.DefaultConfig()
		idemConf.LockTTL = cfg.IdempotencyLockTTL
		idemConf.ProcessedTTL = cfg.IdempotencyTTL
		idem = idempotency.NewStore(redisAdap, idemConf)
	}

	if err := prom.Create(hostname(), cfg.AppEnv, cfg.PromNamespace); err != nil {
		logger.Warn("failed registering metrics", "error", err)
	}
	if cfg.AppDebugMetricsAddr != "" {
		go prom.ListenAndServer(cfg.AppDebugMetricsAddr, cfg.AppDebugMetricsURI)
	}

	handlers.DetailedErrors = cfg.IsDevelopment()

	// transport
	s := xhttp.NewServer(xhttp.DefaultServerOption)
	s.Use(xhttp.RequestIDMiddleware)
	s.Use(xhttp.RecoverMiddleware(handlers.Panic))
	s.Use(xhttp.CORSMiddleware(cfg.HttpCorsOrigin))
	s.Use(xhttp.RequestLoggerMiddleware)
	s.Use(prom.HTTPMetricsMiddleware)
	s.Use(xhttp.CompressMiddleware(6))
	s.Use(xhttp.TimeoutMiddleware(cfg.HttpRequestTimeout))
	s.Router = xhttp.CreateDefaultRouter(handlers.NotFound)

	userRepo := repository.NewUserRepository(store)
	propertyRepo := repository.NewPropertyRepository(store)
	transactionRepo := repository.NewTransactionRepository(store)
	paymentRepo := repository.NewPaymentRepository(store)

	// services
	userService := services.NewUserService(userRepo, hasher)
	propertyService := services.NewPropertyService(propertyRepo, userRepo)
	transactionService := services.NewTransactionService(transactionRepo, userRepo)
	paymentService := services.NewPaymentService(paymentRepo, transactionRepo, idem)
	reportService := services.NewReportService(userRepo, propertyRepo, transactionRepo, paymentRepo)

	handlers.RegisterHealthRoutes(s.Router, handlers.NewHealthHandler(store, version))
	g := s.Router.Group("/api")
	handlers.RegisterUserRoutes(g, handlers.NewUserHandler(userService))
	handlers.RegisterPropertyRoutes(g, handlers.NewPropertyHandler(propertyService))
	handlers.RegisterTransactionRoutes(g, handlers.NewTransactionHandler(transactionService))
	handlers.RegisterPaymentRoutes(g, handlers.NewPaymentHandler(paymentService))
	handlers.RegisterReportRoutes(g, handlers.NewReportHandler(reportService))

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		var err = s.ListenAndServe(cfg.HttpListenAddr)
		if err != nil {
			logger.Error("error in running http-server", "error", err)
			c <- syscall.SIGTERM
		}
	}()

	<-c
	s.Shutdown()
}

func hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return h
}

func argContainsEnvPath() string {
	for _, v := range os.Args {
		if strings.HasPrefix(v, "--env=") {
			p := strings.TrimPrefix(v, "--env=")
			if _, err := os.Stat(p); err != nil {
				logger.Error("failed to open the passed env file", "path", p, "error", err)
				return ""
			}
			return p
		}
	}
	return ""
}
