// Command main is the entry point for the WhisperVault background worker.
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"whispervault/internal/cache"
	"whispervault/internal/config"
	"whispervault/internal/database"
	"whispervault/internal/middleware"
	"whispervault/internal/moderation"
	"whispervault/internal/queue"
	"whispervault/internal/render"
	"whispervault/internal/repository"
	"whispervault/internal/service"
	"whispervault/internal/social"
	"whispervault/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.InitLogger(cfg.Env)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()
	if redisClient == nil {
		log.Fatal("Worker requires Redis; set REDIS_URL")
	}

	confessionRepo := repository.NewConfessionRepository(db)
	jobRepo := repository.NewPublishJobRepository(db)

	tasks := queue.New(redisClient)
	engine := moderation.NewEngine()
	renderer := render.New(cfg.AssetsDir)
	publishers := social.NewRegistry(cfg, redisClient)
	confessions := service.NewConfessionService(confessionRepo, engine, tasks)

	w := worker.New(confessions, confessionRepo, jobRepo, tasks, renderer, publishers)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Println("Shutting down worker...")
		cancel()
	}()

	log.Println("Worker starting...")
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("Worker error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	_ = redisClient.Close()
	log.Println("Worker shutdown complete")
}
