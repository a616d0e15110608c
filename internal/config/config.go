// Package config provides environment configuration for the API server.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Store backends.
const (
	StoreBolt = "bolt"
	StoreNATS = "nats"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// NATS settings
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Conversation store
	StoreBackend string
	StorePath    string
	KVBucket     string

	// Audit log
	AuditLogFile    string
	AuditMaxSizeMB  int
	AuditMaxBackups int
	AuditCompress   bool

	// LLM settings
	LLMProvider       string
	AnthropicAPIKey   string
	OpenAIAPIKey      string
	OpenAIBaseURL     string
	LLMModel          string
	LLMTemperature    float64
	CapabilityTimeout time.Duration

	// Tools and agents
	SearchSubject   string
	AgentOneDocsDir string
	AgentTwoDocsDir string
	PDFDir          string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel       string
	LogDevelopment bool

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool
}

// Load reads configuration from environment variables.
func Load() *Config {
	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 300*time.Second),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Conversation store
		StoreBackend: getEnv("STORE_BACKEND", StoreBolt),
		StorePath:    getEnv("STORE_PATH", "db/conversations.db"),
		KVBucket:     getEnv("KV_BUCKET", "conversations"),

		// Audit log
		AuditLogFile:    getEnv("AUDIT_LOG_FILE", "orchestrator_logs.log"),
		AuditMaxSizeMB:  getIntEnv("AUDIT_MAX_SIZE_MB", 5),
		AuditMaxBackups: getIntEnv("AUDIT_MAX_BACKUPS", 5),
		AuditCompress:   getBoolEnv("AUDIT_COMPRESS", false),

		// LLM
		LLMProvider:       getEnv("LLM_PROVIDER", "openai"),
		AnthropicAPIKey:   getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:      getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", ""),
		LLMModel:          getEnv("LLM_MODEL", ""),
		LLMTemperature:    getFloatEnv("LLM_TEMPERATURE", 0.7),
		CapabilityTimeout: getDurationEnv("CAPABILITY_TIMEOUT", 60*time.Second),

		// Tools and agents
		SearchSubject:   getEnv("SEARCH_SUBJECT", "search.query"),
		AgentOneDocsDir: getEnv("AGENT_ONE_DOCS_DIR", "documents/doc_a_one"),
		AgentTwoDocsDir: getEnv("AGENT_TWO_DOCS_DIR", "documents/doc_a_two"),
		PDFDir:          getEnv("PDF_DIR", "documents/unic_pdf"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogDevelopment: getBoolEnv("LOG_DEVELOPMENT", false),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),
	}
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error

	switch c.StoreBackend {
	case StoreBolt:
		if c.StorePath == "" {
			errs = append(errs, errors.New("STORE_PATH is required for the bolt store"))
		}
	case StoreNATS:
		if c.NATSURL == "" {
			errs = append(errs, errors.New("NATS_URL is required for the nats store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend))
	}

	switch c.LLMProvider {
	case "openai":
		if c.OpenAIAPIKey == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required for the openai provider"))
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			errs = append(errs, errors.New("ANTHROPIC_API_KEY is required for the anthropic provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider))
	}

	if c.CapabilityTimeout <= 0 {
		errs = append(errs, errors.New("CAPABILITY_TIMEOUT must be positive"))
	}
	if c.AuditMaxSizeMB <= 0 {
		errs = append(errs, errors.New("AUDIT_MAX_SIZE_MB must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
