package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/pkorolev/reposage/internal/api"
	"github.com/pkorolev/reposage/internal/config"
	"github.com/pkorolev/reposage/internal/db"
	"github.com/pkorolev/reposage/internal/embedding"
	"github.com/pkorolev/reposage/internal/genai"
	"github.com/pkorolev/reposage/internal/git"
	"github.com/pkorolev/reposage/internal/gitremote"
	"github.com/pkorolev/reposage/internal/index"
	"github.com/pkorolev/reposage/internal/indexer"
	"github.com/pkorolev/reposage/internal/meetings"
	"github.com/pkorolev/reposage/internal/qa"
	"github.com/pkorolev/reposage/internal/storage"
	"github.com/pkorolev/reposage/internal/summarizer"
	"github.com/pkorolev/reposage/internal/syncer"
	"github.com/pkorolev/reposage/internal/transcribe"
)

func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// The store handle is opened once here and closed on shutdown; every
	// component receives it by injection.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	dbClient, err := db.NewClient(ctx, db.Config{
		URI:      cfg.Neo4jURI,
		Username: cfg.Neo4jUser,
		Password: cfg.Neo4jPass,
	})
	cancel()
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}

	genClient := genai.NewClient(cfg.GenAIURL, cfg.GenAIKey, cfg.GenAIModel)
	embClient := embedding.NewClient(cfg.TEIURL)
	historyClient := gitremote.NewClient(cfg.GitHubAPIURL)
	transcribeClient := transcribe.NewClient(cfg.TranscribeURL, cfg.TranscribeAPIKey)

	summarizerSvc := summarizer.NewService(genClient, logger)

	retrievalIndex := index.New(db.NewEmbeddingStore(dbClient), embClient, summarizerSvc)
	pipeline := indexer.NewPipeline(git.NewService(cfg.ReposPath), retrievalIndex, logger)

	syncEngine := syncer.NewEngine(historyClient, db.NewCommitStore(dbClient), summarizerSvc, logger)
	orchestrator := qa.NewOrchestrator(retrievalIndex, genClient, db.NewQuestionStore(dbClient), logger)
	processor := meetings.NewProcessor(db.NewMeetingStore(dbClient), transcribeClient, summarizerSvc, logger)

	uploader := storage.NewHTTPUploader(cfg.StorageURL)

	handler := api.NewHandler(dbClient, db.NewUserStore(dbClient), syncEngine, orchestrator, processor, pipeline, uploader, logger)
	defer handler.Close()

	app := fiber.New(fiber.Config{
		AppName: "RepoSage API",
	})
	api.SetupRoutes(app, handler)

	go func() {
		log.Printf("Starting reposage backend on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	if err := app.Shutdown(); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := dbClient.Close(shutdownCtx); err != nil {
		log.Printf("store close: %v", err)
	}
}
