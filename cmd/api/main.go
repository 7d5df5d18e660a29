package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-catalog-api/internal/auth"
	"github.com/ariefcatur/go-catalog-api/internal/catalog"
	"github.com/ariefcatur/go-catalog-api/internal/config"
	"github.com/ariefcatur/go-catalog-api/internal/httpx"
	kafkax "github.com/ariefcatur/go-catalog-api/internal/kafka"
	"github.com/ariefcatur/go-catalog-api/internal/logx"
	"github.com/ariefcatur/go-catalog-api/internal/memory"
	"github.com/ariefcatur/go-catalog-api/internal/metrics"
	"github.com/ariefcatur/go-catalog-api/internal/postgres"
	"github.com/ariefcatur/go-catalog-api/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logx.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
	if cfg.JWTSecret == config.DefaultJWTSecret {
		log.Warn("JWT_SECRET not set, signing tokens with the built-in development secret")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN, postgres.Up); err != nil {
			log.Fatalf("migrate: %v", err)
		}
		log.Info("schema up to date")
	}

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.PostgresConns)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis holds revoked refresh tokens; without it they live in memory.
	var revoked auth.RevocationList = memory.NewRevocationList()
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		revoked = &redisx.RevocationList{RDB: rdb}
	} else {
		log.Warn("REDIS_ADDR empty, logout revocations are per process")
	}

	// Kafka change feed
	var events catalog.Publisher = catalog.NopPublisher{}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, 1024, log.WithField("component", "producer"))
		prod.Start(ctx)
		events = kafkax.EventPublisher{Producer: prod}
	}

	repo := &catalog.Repo{DB: db}
	m := metrics.New("catalog")
	router := httpx.NewRouter(log, m)
	h := &httpx.Handler{
		Store: repo,
		Auth: &auth.Service{
			Users:   repo,
			Tokens:  auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL),
			Revoked: revoked,
			Log:     log.WithField("component", "auth"),
		},
		Events:        events,
		Log:           log,
		PageSize:      cfg.PageSize,
		Service:       cfg.ServiceName,
		AuthRateLimit: cfg.AuthRateLimit,
		AuthRateBurst: cfg.AuthRateBurst,
	}
	h.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	// graceful shutdown
	go func() {
		log.Infof("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()      // close inbox, flush and close writer
		prod.WaitClosed() // drain
	}
	cancel()
}
