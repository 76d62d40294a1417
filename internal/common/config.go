package common

import (
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	LLM    LLMConfig
	OCR    OCRConfig
	JobLog JobLogConfig
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model             string
	APIKey            string
	BaseURL           string
	Temperature       float32
	Timeout           time.Duration
	ClassifyMaxTokens int
	ExtractMaxTokens  int

	// CallsPerSecond bounds outbound completion calls; <= 0 disables the
	// throttle (used by tests).
	CallsPerSecond float64
	Burst          int
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	OCRmyPDF string // binary name or absolute path; if empty -> "ocrmypdf"
	Timeout  time.Duration
}

// JobLogConfig holds the run-ledger configuration
type JobLogConfig struct {
	Path string // sqlite file; ":memory:" for tests
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Model:             getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:            getEnv("OPENAI_API_KEY", ""),
			BaseURL:           getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature:       getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:           getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			ClassifyMaxTokens: getEnvAsInt("LLM_CLASSIFY_MAX_TOKENS", 20),
			ExtractMaxTokens:  getEnvAsInt("LLM_EXTRACT_MAX_TOKENS", 5700),
			CallsPerSecond:    getEnvAsFloat64("LLM_CALLS_PER_SECOND", 1.0),
			Burst:             getEnvAsInt("LLM_BURST", 1),
		},
		OCR: OCRConfig{
			OCRmyPDF: getEnv("OCRMYPDF_BIN", "ocrmypdf"),
			Timeout:  getEnvAsDuration("OCR_TIMEOUT", 5*time.Minute),
		},
		JobLog: JobLogConfig{
			Path: getEnv("JOBLOG_PATH", "joblog.db"),
		},
	}
}

// ValidateConfig validates the loaded configuration
func (c *Config) Validate() error {
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	if c.LLM.Model == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_MODEL is required", ErrInvalidInput)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
