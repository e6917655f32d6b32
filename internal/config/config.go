package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Supported text-generation providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds the configuration for the application.
type Config struct {
	// LLM Config
	LLMProvider  string
	GeminiAPIKey string
	OpenAIAPIKey string

	// Storage Config
	DatabasePath string

	// HTTP API Config
	ListenAddr string
	AuthSecret string

	// Telegram Config
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
func NewFromEnv() (*Config, error) {
	provider := os.Getenv("LLM_PROVIDER")
	if provider == "" {
		provider = ProviderGemini
	}
	if provider != ProviderGemini && provider != ProviderOpenAI {
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q: expected %q or %q", provider, ProviderGemini, ProviderOpenAI)
	}

	geminiAPIKey := os.Getenv("GEMINI_API_KEY")
	if provider == ProviderGemini && geminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	openAIAPIKey := os.Getenv("OPENAI_API_KEY")
	if provider == ProviderOpenAI && openAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	databasePath := os.Getenv("DATABASE_PATH")
	if databasePath == "" {
		databasePath = "data/mealweek.db"
	}

	listenAddr := os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = ":8080"
	}

	// HTTP API Config (Optional for CLI, required for serving)
	authSecret := os.Getenv("JWT_SECRET")

	// Telegram Config (Optional for CLI, required for Bot)
	telegramBotToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	telegramWebhookURL := os.Getenv("TELEGRAM_WEBHOOK_URL")

	allowedUserIDs, err := parseUserIDs(os.Getenv("TELEGRAM_ALLOWED_USER_IDS"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOWED_USER_IDS: %w", err)
	}

	var adminTelegramID int64
	if s := os.Getenv("TELEGRAM_ADMIN_ID"); s != "" {
		adminTelegramID, err = strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_ADMIN_ID: %w", err)
		}
	}

	return &Config{
		LLMProvider:            provider,
		GeminiAPIKey:           geminiAPIKey,
		OpenAIAPIKey:           openAIAPIKey,
		DatabasePath:           databasePath,
		ListenAddr:             listenAddr,
		AuthSecret:             authSecret,
		TelegramBotToken:       telegramBotToken,
		TelegramWebhookURL:     telegramWebhookURL,
		TelegramAllowedUserIDs: allowedUserIDs,
		AdminTelegramID:        adminTelegramID,
	}, nil
}

// parseUserIDs parses a comma-separated list of Telegram user IDs.
func parseUserIDs(raw string) ([]int64, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("user id %q is not a number", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
