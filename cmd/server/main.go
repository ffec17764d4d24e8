// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in the internal service
// packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"vouch/internal/admin"
	"vouch/internal/attestor"
	"vouch/internal/audit"
	"vouch/internal/experience/cache"
	exphandler "vouch/internal/experience/handler"
	"vouch/internal/experience/service"
	"vouch/internal/experience/store"
	"vouch/internal/jwttoken"
	"vouch/internal/platform/config"
	"vouch/internal/platform/httpserver"
	"vouch/internal/platform/logger"
	"vouch/internal/platform/metrics"
	platformredis "vouch/internal/platform/redis"
	httpapi "vouch/internal/transport/http"
	id "vouch/pkg/domain"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	auditStore := audit.NewInMemoryStore()
	publisher := audit.NewPublisher(auditStore)

	adminAddr := id.Address(cfg.AdminAddress)
	registry := admin.NewRegistry(adminAddr, cfg.Attestor.URL, id.SchemaID(cfg.Attestor.SchemaID), publisher)

	var expStore store.Store
	if cfg.Postgres.DSN != "" {
		pool, err := pgxpool.New(ctx, cfg.Postgres.DSN)
		if err != nil {
			log.Error("postgres pool failed", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			log.Error("postgres schema failed", "error", err)
			os.Exit(1)
		}
		expStore = pg
		log.Info("using postgres store")
	} else {
		expStore = store.NewInMemoryStore()
		log.Info("using in-memory store")
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	svcOpts := []service.Option{
		service.WithLogger(log),
		service.WithAuditPublisher(publisher),
	}
	if redisClient != nil {
		// Transition checks keep reading the primary store; only plain reads
		// go through the cache.
		svcOpts = append(svcOpts, service.WithSource(expStore))
		expStore = cache.New(expStore, redisClient.Client, cfg.Redis.CacheTTL, log)
		defer redisClient.Close()
		log.Info("experience cache enabled")
	}

	m := metrics.New()
	svcOpts = append(svcOpts, service.WithMetrics(m))
	signer := attestor.NewClient(registry, cfg.Attestor.Timeout)
	svc := service.New(expStore, service.NewScope(), signer, registry, svcOpts...)

	tokens := jwttoken.New(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience)
	router := httpapi.NewRouter(log, m, jwttoken.NewAdapter(tokens),
		exphandler.New(svc, log),
		admin.NewHandler(registry, log),
	)

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	if len(cfg.Kafka.Brokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka sink failed", "error", err)
			os.Exit(1)
		}
		defer sink.Close()
		worker := audit.NewWorker(sink, publisher.Inbox(), log)
		g.Go(func() error {
			err := worker.Run(gctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		log.Info("event fan-out enabled", "topic", cfg.Kafka.Topic)
	}

	g.Go(func() error {
		log.Info("starting vouch", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
