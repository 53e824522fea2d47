package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/abhisek/examgen/internal/llm"
)

// Config holds all application configuration.
type Config struct {
	LogLevel  string
	LogFormat string
	// LogFile receives logs while the terminal UI is running. Empty means
	// the XDG state directory.
	LogFile string

	HTTPAddr       string
	GinMode        string
	MaxUploadBytes int64
	// AllowedOrigins controls HTTP CORS. Empty means all origins.
	AllowedOrigins []string

	OutputDir        string
	PDFFont          string
	ImageConcurrency int

	LLM llm.Config
	// LLMErr is set when no provider is usable; generation is then disabled
	// but the rest of the application still runs.
	LLMErr error
}

// Load reads configuration from environment variables with sensible defaults.
// It loads a .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	cfg := &Config{
		LogLevel:         getEnv("EXAMGEN_LOG_LEVEL", "info"),
		LogFormat:        getEnv("EXAMGEN_LOG_FORMAT", "pretty"),
		LogFile:          getEnv("EXAMGEN_LOG_FILE", ""),
		HTTPAddr:         getEnv("EXAMGEN_HTTP_ADDR", ":8080"),
		GinMode:          getEnv("GIN_MODE", "release"),
		MaxUploadBytes:   int64(getEnvInt("EXAMGEN_MAX_UPLOAD_MB", 20)) * 1024 * 1024,
		AllowedOrigins:   parseOrigins(getEnv("EXAMGEN_CORS_ORIGINS", "")),
		OutputDir:        getEnv("EXAMGEN_OUTPUT_DIR", "."),
		PDFFont:          getEnv("EXAMGEN_PDF_FONT", ""),
		ImageConcurrency: getEnvInt("EXAMGEN_IMAGE_CONCURRENCY", 4),
	}
	cfg.LLM, cfg.LLMErr = llm.ResolveConfig()
	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
