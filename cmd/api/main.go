package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"classroll/internal/archive"
	"classroll/internal/audit"
	"classroll/internal/auth"
	"classroll/internal/config"
	"classroll/internal/httpapi"
	"classroll/internal/ledger"
	"classroll/internal/metrics"
	"classroll/internal/queue"
	"classroll/internal/store"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	hour, minute, hasCutoff, err := cfg.Cutoff()
	if err != nil {
		return err
	}

	ledgerAuth := auth.AnyOf{
		ledger.Password(cfg.AdminPassword),
		auth.AdminToken{SigningKey: cfg.JWTSigningKey, Issuer: cfg.JWTIssuer},
	}
	opts := []ledger.Option{ledger.WithLocation(loc)}
	if hasCutoff {
		opts = append(opts, ledger.WithLateCutoff(hour, minute))
	}
	l := ledger.New(ledgerAuth, opts...)
	if cfg.SeedDemo {
		l.SeedDemo()
		log.Println("demo students loaded")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var redisClient *store.Redis
	if cfg.UsesRedis() {
		redisClient = store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer redisClient.Close()
		if !redisClient.Healthy(ctx) {
			log.Printf("warning: redis not reachable at %s", cfg.RedisAddr)
		}
	}

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	} else {
		mem := queue.NewInMemory(64)
		q = mem
		go drainInMemory(ctx, mem)
	}

	var snapshots archive.Store
	if cfg.ArchiveBackend == "redis" {
		snapshots = archive.NewRedis(redisClient.Client, archive.DefaultPrefix)
	} else {
		snapshots = archive.NewMemory()
	}

	// The audit trail only exists when a worker drains the redis queue.
	var auditReader httpapi.AuditReader
	if cfg.QueueBackend == "redis" {
		db, err := store.NewDB(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Printf("warning: db not reachable, /audit disabled: %v", err)
		} else {
			defer db.Close()
			auditReader = newAuditReader(ctx, audit.NewRepository(db.Client))
		}
	}

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:           log.Default(),
		Ledger:           l,
		Queue:            q,
		Archive:          snapshots,
		Audit:            auditReader,
		Metrics:          metrics.New(prometheus.DefaultRegisterer),
		Gatherer:         prometheus.DefaultGatherer,
		Redis:            redisClient,
		AdminPassword:    cfg.AdminPassword,
		JWTIssuer:        cfg.JWTIssuer,
		JWTSigningKey:    cfg.JWTSigningKey,
		AdminTokenTTL:    cfg.AdminTokenTTL,
		GuardAdminRoutes: cfg.GuardAdminRoutes,
		RateLimitPerMin:  cfg.RateLimitPerMin,
		StaticDir:        cfg.StaticDir,
	})

	httpSrv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

type auditRepository interface {
	httpapi.AuditReader
	EnsureSchema(ctx context.Context) error
}

// newAuditReader creates the audit table when the API starts before any
// worker has run. It returns nil, disabling /audit, if that fails.
func newAuditReader(ctx context.Context, repo auditRepository) httpapi.AuditReader {
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Printf("warning: audit schema unavailable, /audit disabled: %v", err)
		return nil
	}
	return repo
}

// drainInMemory logs events when no external worker is attached.
func drainInMemory(ctx context.Context, q *queue.InMemory) {
	msgs, err := q.Consume(ctx)
	if err != nil {
		log.Printf("in-memory queue consume failed: %v", err)
		return
	}
	for msg := range msgs {
		log.Printf("event %s: %s", msg.Type, msg.Body)
	}
}
