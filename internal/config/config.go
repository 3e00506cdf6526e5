package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	BaseURL          string
	FrontendURL      string
	OpenAIKey        string
	AIProvider       string
	AIModel          string
	AIBaseURL        string
	EnableHSTS       bool
	RedisURL         string
	RabbitMQURL      string
	RabbitMQPrefetch int
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string

	// Recommendation tuning
	RecommendationLimit    int
	RecommendationCacheTTL time.Duration

	// Conversation tuning
	MaxConversationTurns         int
	MaxHistoryLength             int
	MinEntitiesForRecommendation int

	// Worker tuning
	ConversationRetentionDays int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		OpenAIKey:        getEnv("OPENAI_API_KEY", ""),
		AIProvider:       getEnv("AI_PROVIDER", "openai"),
		AIModel:          getEnv("AI_MODEL", ""),
		AIBaseURL:        getEnv("AI_BASE_URL", ""),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),

		RecommendationLimit:    getEnvInt("RECOMMENDATION_LIMIT", 10),
		RecommendationCacheTTL: time.Duration(getEnvInt("RECOMMENDATION_CACHE_TTL_SECONDS", 3600)) * time.Second,

		MaxConversationTurns:         getEnvInt("MAX_CONVERSATION_TURNS", 20),
		MaxHistoryLength:             getEnvInt("MAX_HISTORY_LENGTH", 50),
		MinEntitiesForRecommendation: getEnvInt("MIN_ENTITIES_FOR_RECOMMENDATION", 2),

		ConversationRetentionDays: getEnvInt("CONVERSATION_RETENTION_DAYS", 30),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("RABBITMQ_URL is required for analytics event queueing")
	}

	return cfg, nil
}

// AnalyzerProvider returns the analyzer provider name to use. When the
// configured provider needs an API key and none is set, the lexicon
// fallback is used instead.
func (c *Config) AnalyzerProvider() string {
	if c.AIProvider == "openai" && c.OpenAIKey == "" {
		return "lexicon"
	}
	return c.AIProvider
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
