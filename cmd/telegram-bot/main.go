package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"mealweek/internal/config"
	"mealweek/internal/database"
	"mealweek/internal/intake"
	"mealweek/internal/llm"
	"mealweek/internal/metrics"
	"mealweek/internal/planner"
	"mealweek/internal/profile"
	"mealweek/internal/telegram"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()

	textGen, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	if closer, ok := textGen.(llm.Closer); ok {
		defer closer.Close()
	}

	db, err := database.NewDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	profileRepo := profile.NewRepository(db.SQL)
	planRepo := planner.NewPlanRepository(db.SQL)
	sessionRepo := intake.NewSessionRepository(db.SQL)
	metricsStore := metrics.NewStore(db.SQL)

	mealPlanner := planner.NewPlanner(profileRepo, planRepo, textGen, metricsStore)

	bot, err := telegram.NewBot(cfg, mealPlanner, sessionRepo, profileRepo, planRepo, metricsStore)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram Bot: %v", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	bot.RegisterHandlers()

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: nil,
	}

	go func() {
		log.Printf("Telegram Bot Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
