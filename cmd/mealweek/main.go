package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"mealweek/internal/api"
	"mealweek/internal/auth"
	"mealweek/internal/config"
	"mealweek/internal/database"
	"mealweek/internal/intake"
	"mealweek/internal/llm"
	"mealweek/internal/metrics"
	"mealweek/internal/planner"
	"mealweek/internal/profile"
)

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	ctx := context.Background()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
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

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		textGen := mustTextGen(ctx, cfg)
		mealPlanner := planner.NewPlanner(profileRepo, planRepo, textGen, metricsStore)

		verifier, err := auth.NewVerifier(cfg.AuthSecret)
		if err != nil {
			log.Fatalf("JWT_SECRET is required for serving: %v", err)
		}

		server := api.NewServer(verifier, sessionRepo, profileRepo, mealPlanner)
		log.Printf("API server listening on %s", cfg.ListenAddr)
		if err := server.Run(cfg.ListenAddr); err != nil {
			log.Fatalf("Server failed: %v", err)
		}

	case "plan":
		planCmd := flag.NewFlagSet("plan", flag.ExitOnError)
		userID := planCmd.String("user", "", "User ID to plan for")
		planCmd.Parse(os.Args[2:])
		if *userID == "" {
			log.Fatal("The -user flag is required")
		}

		textGen := mustTextGen(ctx, cfg)
		mealPlanner := planner.NewPlanner(profileRepo, planRepo, textGen, metricsStore)

		content, err := mealPlanner.GetOrGenerate(ctx, *userID, time.Now())
		if err != nil {
			log.Fatalf("Failed to get plan: %v", err)
		}
		fmt.Println(content)

	case "regenerate":
		regenCmd := flag.NewFlagSet("regenerate", flag.ExitOnError)
		userID := regenCmd.String("user", "", "User ID to plan for")
		regenCmd.Parse(os.Args[2:])
		if *userID == "" {
			log.Fatal("The -user flag is required")
		}

		textGen := mustTextGen(ctx, cfg)
		mealPlanner := planner.NewPlanner(profileRepo, planRepo, textGen, metricsStore)

		content, err := mealPlanner.Regenerate(ctx, *userID, time.Now())
		if err != nil {
			log.Fatalf("Failed to regenerate plan: %v", err)
		}
		fmt.Println(content)

	case "sessions-cleanup":
		if err := sessionRepo.CleanupExpired(ctx, time.Now()); err != nil {
			log.Fatalf("Session cleanup failed: %v", err)
		}
		fmt.Println("Expired intake sessions removed.")

	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		affected, err := metricsStore.Cleanup(*days)
		if err != nil {
			log.Fatalf("Cleanup failed: %v", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)

	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func mustTextGen(ctx context.Context, cfg *config.Config) llm.TextGenerator {
	textGen, err := llm.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}
	return textGen
}

func printUsage() {
	fmt.Println("Usage: mealweek <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  serve              Run the authenticated HTTP API")
	fmt.Println("  plan -user ID      Print the week's plan, generating it on a cache miss")
	fmt.Println("  regenerate -user ID  Force a fresh plan for the week")
	fmt.Println("  sessions-cleanup   Remove expired intake sessions")
	fmt.Println("  metrics-cleanup    Remove old metric records")
}
