package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"classroll/internal/audit"
	"classroll/internal/config"
	"classroll/internal/queue"
	"classroll/internal/store"
)

// Worker consumes ledger events from Redis and appends them to the Postgres audit trail.
func main() {
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend != "redis" {
		log.Fatalf("worker needs QUEUE_BACKEND=redis, got %q", cfg.QueueBackend)
	}

	db, err := store.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	repo := audit.NewRepository(db.Client)
	if err := repo.EnsureSchema(ctx); err != nil {
		log.Fatalf("audit schema: %v", err)
	}

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()
	if !redisClient.Healthy(ctx) {
		log.Printf("WARNING: redis not reachable at %s, will keep retrying", cfg.RedisAddr)
	}

	q := queue.NewRedisQueue(redisClient.Client, queue.DefaultKey)
	messages, err := q.Consume(ctx)
	if err != nil {
		log.Fatalf("queue consume init failed: %v", err)
	}

	log.Println("worker started, waiting for events...")
	for msg := range messages {
		if err := handle(ctx, repo, msg); err != nil {
			log.Printf("event %s dropped: %v", msg.Type, err)
		}
	}

	log.Println("worker stopped")
}

func handle(ctx context.Context, repo *audit.Repository, msg queue.Message) error {
	switch msg.Type {
	case queue.TypeMarked, queue.TypeReset, queue.TypeRestored:
	default:
		log.Printf("ignoring event type %q", msg.Type)
		return nil
	}
	evt, err := queue.Decode(msg)
	if err != nil {
		return err
	}
	if err := repo.Insert(ctx, audit.FromEvent(msg.Type, evt)); err != nil {
		return err
	}
	if msg.Type == queue.TypeMarked {
		log.Printf("archived mark %s for student %s (%s)", evt.ID, evt.StudentID, evt.Status)
	} else {
		log.Printf("archived %s %s", msg.Type, evt.ID)
	}
	return nil
}
