package config

import (
	"os"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		setEnv("DATABASE_PATH", "data/test.db")
		os.Unsetenv("LLM_PROVIDER")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMProvider != ProviderGemini {
			t.Errorf("Expected default provider 'gemini', got '%s'", cfg.LLMProvider)
		}
		if cfg.GeminiAPIKey != "gemini_key" {
			t.Errorf("Expected GeminiAPIKey to be 'gemini_key', got '%s'", cfg.GeminiAPIKey)
		}
		if cfg.DatabasePath != "data/test.db" {
			t.Errorf("Expected DatabasePath to be 'data/test.db', got '%s'", cfg.DatabasePath)
		}
		if cfg.ListenAddr != ":8080" {
			t.Errorf("Expected default ListenAddr ':8080', got '%s'", cfg.ListenAddr)
		}
	})

	t.Run("MissingGeminiAPIKey", func(t *testing.T) {
		os.Unsetenv("GEMINI_API_KEY")
		os.Unsetenv("LLM_PROVIDER")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing GEMINI_API_KEY, got nil")
		}
		expectedError := "GEMINI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("OpenAIProvider", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "openai")
		setEnv("OPENAI_API_KEY", "openai_key")
		os.Unsetenv("GEMINI_API_KEY")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.LLMProvider != ProviderOpenAI {
			t.Errorf("Expected provider 'openai', got '%s'", cfg.LLMProvider)
		}
		if cfg.OpenAIAPIKey != "openai_key" {
			t.Errorf("Expected OpenAIAPIKey to be 'openai_key', got '%s'", cfg.OpenAIAPIKey)
		}
	})

	t.Run("MissingOpenAIAPIKey", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "openai")
		os.Unsetenv("OPENAI_API_KEY")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing OPENAI_API_KEY, got nil")
		}
		expectedError := "OPENAI_API_KEY environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("UnknownProvider", func(t *testing.T) {
		setEnv("LLM_PROVIDER", "llama-at-home")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for unknown provider, got nil")
		}
	})

	t.Run("AllowedUserIDs", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("LLM_PROVIDER")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "123, 456,789")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		want := []int64{123, 456, 789}
		if len(cfg.TelegramAllowedUserIDs) != len(want) {
			t.Fatalf("Expected %d user IDs, got %d", len(want), len(cfg.TelegramAllowedUserIDs))
		}
		for i, id := range want {
			if cfg.TelegramAllowedUserIDs[i] != id {
				t.Errorf("Expected user ID %d at position %d, got %d", id, i, cfg.TelegramAllowedUserIDs[i])
			}
		}
	})

	t.Run("BadAllowedUserIDs", func(t *testing.T) {
		setEnv("GEMINI_API_KEY", "gemini_key")
		os.Unsetenv("LLM_PROVIDER")
		setEnv("TELEGRAM_ALLOWED_USER_IDS", "123,abc")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for non-numeric user ID, got nil")
		}
	})
}
