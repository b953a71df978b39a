package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Session store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is read once at process start. QuestionCount and PassingScore are
// captured into each session at creation, so changing them requires a restart
// and never affects interviews already in progress.
type Config struct {
	Provider string
	Port     string

	QuestionCount int
	PassingScore  float64

	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string

	TTSEndpoint string
	TTSTimeout  time.Duration

	ResultRetrySchedule    string
	ResultRetryEnabled     bool
	ResultRetryMaxAttempts int
}

// loads configuration from environment variables
func LoadConfig() (*Config, error) {
	config := &Config{
		Provider: getEnv("AI_PROVIDER", "gemini"),
		Port:     getEnv("PORT", "8080"),

		QuestionCount: getEnvInt("INTERVIEW_QUESTION_COUNT", 5),
		PassingScore:  getEnvFloat("INTERVIEW_PASSING_SCORE", 3),

		SessionBackend: getEnv("SESSION_BACKEND", BackendMemory),
		SessionTTL:     getEnvDuration("SESSION_TTL", 2*time.Hour),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),

		TTSEndpoint: getEnv("TTS_ENDPOINT", ""),
		TTSTimeout:  getEnvDuration("TTS_TIMEOUT", 30*time.Second),

		ResultRetrySchedule:    getEnv("RESULT_RETRY_SCHEDULE", "*/5 * * * *"),
		ResultRetryEnabled:     getEnv("RESULT_RETRY_ENABLED", "true") == "true",
		ResultRetryMaxAttempts: getEnvInt("RESULT_RETRY_MAX_ATTEMPTS", 12),
	}

	if err := validateConfig(config); err != nil {
		return nil, err
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Provider != "gemini" {
		return errors.New("unsupported AI provider: " + config.Provider + ". Currently supported: gemini")
	}
	if config.QuestionCount < 1 {
		return fmt.Errorf("INTERVIEW_QUESTION_COUNT must be at least 1, got %d", config.QuestionCount)
	}
	if config.PassingScore <= 0 {
		return fmt.Errorf("INTERVIEW_PASSING_SCORE must be positive, got %v", config.PassingScore)
	}
	if config.SessionBackend != BackendMemory && config.SessionBackend != BackendRedis {
		return errors.New("SESSION_BACKEND must be 'memory' or 'redis', got: " + config.SessionBackend)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
