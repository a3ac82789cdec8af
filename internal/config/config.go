package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Operating modes. Quota enforcement and CORS origin restrictions are only
// active in ModeProd.
const (
	ModeDev  = "dev"
	ModeProd = "prod"
)

// Config holds all configuration for the application
type Config struct {
	Mode       string
	Server     ServerConfig
	PostgreSQL PostgreSQLConfig
	Badger     BadgerConfig
	OpenAI     OpenAIConfig
	Currency   CurrencyConfig
	Search     SearchConfig
	Cache      CacheConfig
	Quota      QuotaConfig
	Chat       ChatConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	GinMode        string
	AllowedOrigins []string
}

// PostgreSQLConfig holds the property catalog database configuration
type PostgreSQLConfig struct {
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// BadgerConfig holds the key-value store configuration used by the
// cache layer and quota tracker.
type BadgerConfig struct {
	Path     string
	InMemory bool
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey         string
	APIBase        string
	ChatModel      string
	EmbeddingModel string
	Temperature    float64
	MaxTokens      int
	Timeout        int
	Enabled        bool
}

// CurrencyConfig holds the exchange-rate service configuration
type CurrencyConfig struct {
	APIBase      string
	BaseCurrency string
	Timeout      int
}

// SearchConfig holds the orchestrator loop parameters
type SearchConfig struct {
	MaxRounds          int
	TargetSize         int
	FetchLimit         int
	RelevanceThreshold int
	EnrichWorkers      int
}

// CacheConfig holds cache namespacing and TTLs
type CacheConfig struct {
	Namespace     string
	ResultTTL     time.Duration
	PreferenceTTL time.Duration
	ChatTurnTTL   time.Duration
	PromptsTTL    time.Duration
}

// QuotaConfig holds per-identity usage limits
type QuotaConfig struct {
	Namespace string
	Ceiling   int
	TTL       time.Duration
}

// ChatConfig holds the streaming chat parameters
type ChatConfig struct {
	OpenMarker      string
	CloseMarker     string
	ReplayChunkSize int
	ReplayInterval  time.Duration
	SessionTTL      time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	mode := getEnv("APP_MODE", ModeDev)
	if mode != ModeDev && mode != ModeProd {
		return nil, fmt.Errorf("invalid APP_MODE %q, must be %q or %q", mode, ModeDev, ModeProd)
	}

	cfg := &Config{
		Mode: mode,
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "propmatch"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 25),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		Badger: BadgerConfig{
			Path:     getEnv("BADGER_PATH", "./data/kv"),
			InMemory: getEnvAsBool("BADGER_IN_MEMORY", false),
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			APIBase:        getEnv("OPENAI_API_BASE", "https://api.openai.com/v1"),
			ChatModel:      getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Temperature:    getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.3),
			MaxTokens:      getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 2048),
			Timeout:        getEnvAsInt("OPENAI_TIMEOUT", 60),
			Enabled:        getEnv("OPENAI_API_KEY", "") != "",
		},
		Currency: CurrencyConfig{
			APIBase:      getEnv("CURRENCY_API_BASE", "https://open.er-api.com/v6"),
			BaseCurrency: getEnv("CURRENCY_BASE", "THB"),
			Timeout:      getEnvAsInt("CURRENCY_TIMEOUT", 10),
		},
		Search: SearchConfig{
			MaxRounds:          getEnvAsInt("SEARCH_MAX_ROUNDS", 3),
			TargetSize:         getEnvAsInt("SEARCH_TARGET_SIZE", 5),
			FetchLimit:         getEnvAsInt("SEARCH_FETCH_LIMIT", 10),
			RelevanceThreshold: getEnvAsInt("SEARCH_RELEVANCE_THRESHOLD", 70),
			EnrichWorkers:      getEnvAsInt("ENRICH_WORKERS", 4),
		},
		Cache: CacheConfig{
			Namespace:     getEnv("CACHE_NAMESPACE", "propmatch"),
			ResultTTL:     getEnvAsDuration("CACHE_RESULT_TTL", time.Hour),
			PreferenceTTL: getEnvAsDuration("CACHE_PREFERENCE_TTL", time.Hour),
			ChatTurnTTL:   getEnvAsDuration("CACHE_CHAT_TURN_TTL", time.Hour),
			PromptsTTL:    getEnvAsDuration("CACHE_PROMPTS_TTL", 6*time.Hour),
		},
		Quota: QuotaConfig{
			Namespace: getEnv("QUOTA_NAMESPACE", "propmatch-quota"),
			Ceiling:   getEnvAsInt("QUOTA_CEILING", 30),
			TTL:       getEnvAsDuration("QUOTA_TTL", 24*time.Hour),
		},
		Chat: ChatConfig{
			OpenMarker:      getEnv("CHAT_OPEN_MARKER", "[SEARCHING]"),
			CloseMarker:     getEnv("CHAT_CLOSE_MARKER", "[DONE]"),
			ReplayChunkSize: getEnvAsInt("CHAT_REPLAY_CHUNK_SIZE", 24),
			ReplayInterval:  getEnvAsDuration("CHAT_REPLAY_INTERVAL", 30*time.Millisecond),
			SessionTTL:      getEnvAsDuration("CHAT_SESSION_TTL", time.Hour),
		},
	}

	return cfg, nil
}

// EnforceQuota reports whether the quota ceiling should be applied.
// Enforcement is a production-only behavior.
func (c *Config) EnforceQuota() bool {
	return c.Mode == ModeProd
}

// GetPostgreSQLDSN returns the PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %v", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// Accept plain seconds for compatibility with numeric env values
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
