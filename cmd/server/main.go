package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/mgarrity/sift/internal/analysis"
	"github.com/mgarrity/sift/internal/api"
	"github.com/mgarrity/sift/internal/config"
	"github.com/mgarrity/sift/internal/database"
	"github.com/mgarrity/sift/internal/digest"
	"github.com/mgarrity/sift/internal/feedback"
	"github.com/mgarrity/sift/internal/inference"
	"github.com/mgarrity/sift/internal/store/gormstore"
	"github.com/mgarrity/sift/internal/streams"
	"github.com/mgarrity/sift/internal/worker"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg := config.Load()
	logger := worker.NewLogger(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Init(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to initialize database: ", err)
	}
	defer database.Close(db)

	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to run migrations: ", err)
	}

	feedbackStore := gormstore.NewFeedbackStore(db)
	digestStore := gormstore.NewDigestStore(db)

	llm := inference.NewClient(cfg.InferenceURL, cfg.GeminiAPIKey, cfg.InferenceModel, cfg.InferenceStub)
	classifier := analysis.NewClassifier(llm, logger)
	svc := feedback.NewService(classifier, feedbackStore, logger)

	// Streams, worker, and scheduler are optional: without Redis the HTTP
	// surface works unchanged, only the periodic and stream paths are off.
	var publisher *streams.Publisher
	if cfg.RedisURL != "" {
		publisher, err = streams.NewPublisher(cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to create stream publisher: ", err)
		}
		defer publisher.Close()
	}

	var events digest.EventPublisher
	if publisher != nil {
		events = publisher
	}
	generator, err := digest.NewGenerator(feedbackStore, digestStore, llm, events, logger)
	if err != nil {
		log.Fatal("Failed to create digest generator: ", err)
	}

	if cfg.RedisURL != "" {
		stopConsumer, err := streams.StartInboundConsumer(cfg.RedisURL, streams.HandleInboundFeedback(svc))
		if err != nil {
			log.Fatal("Failed to start inbound consumer: ", err)
		}
		defer stopConsumer()

		stopWorker, err := worker.Start(cfg, generator)
		if err != nil {
			log.Fatal("Failed to start worker: ", err)
		}
		defer stopWorker()

		stopScheduler, err := worker.StartScheduler(cfg)
		if err != nil {
			log.Fatal("Failed to start scheduler: ", err)
		}
		defer stopScheduler()
	} else {
		logger.Warn("REDIS_URL not set; stream ingestion and scheduled digests disabled")
	}

	router := api.NewRouter(api.Deps{
		Service:       svc,
		FeedbackStore: feedbackStore,
		DigestStore:   digestStore,
		Generator:     generator,
		InitSchema:    func() error { return database.RunMigrations(db) },
		Seed: func(ctx context.Context) (int, error) {
			return database.SeedFeedback(ctx, svc)
		},
		Env: cfg.Env,
	})

	logger.Info("Server starting", "port", cfg.Port, "env", cfg.Env, "inference_stub", cfg.InferenceStub)
	if err := router.Run("0.0.0.0:" + cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}
