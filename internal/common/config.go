package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	LLM      LLMConfig
	Extract  ExtractConfig
	Import   ImportConfig
	Log      LogConfig
}

// DatabaseConfig holds catalog / recipe store configuration
type DatabaseConfig struct {
	Driver          string // "sqlite" | "postgres"
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	DialTimeout     time.Duration
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	BaseURL     string
	Model       string
	VisionModel string
	APIKey      string
	Temperature float32
	Timeout     time.Duration
	MaxRetries  int
}

// ExtractConfig holds file extraction limits and external tool locations
type ExtractConfig struct {
	MaxFileMB     int
	MaxPDFPages   int
	DPI           int
	Pdftotext     string
	Pdftoppm      string
	MinChars      int
	MinWords      int
	MinUOMHits    int
	DisableRaster bool
}

// ImportConfig holds recipe import behavior
type ImportConfig struct {
	MatchThreshold int
	CreatedBy      string
	Workers        int
	FileTimeout    time.Duration
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level         string
	ImportLogPath string
}

// LoadConfig loads configuration from environment variables. A .env file in the
// working directory is read first when present; real environment values win.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("config.dotenv.load_failed", "error", err)
	}
	return &Config{
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			DSN:             getEnv("DB_URL", "file:recipes.db?_pragma=busy_timeout(5000)"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		LLM: LLMConfig{
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			VisionModel: getEnv("OPENAI_VISION_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.2),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 60*time.Second),
			MaxRetries:  getEnvAsInt("OPENAI_MAX_RETRIES", 1),
		},
		Extract: ExtractConfig{
			MaxFileMB:     getEnvAsInt("MAX_FILE_MB", 25),
			MaxPDFPages:   getEnvAsInt("MAX_PDF_PAGES", 50),
			DPI:           getEnvAsInt("PDF_RASTER_DPI", 150),
			Pdftotext:     getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:      getEnv("PDFTOPPM_BIN", "pdftoppm"),
			MinChars:      getEnvAsInt("TEXT_CONF_MIN_CHARS", 200),
			MinWords:      getEnvAsInt("TEXT_CONF_MIN_WORDS", 30),
			MinUOMHits:    getEnvAsInt("TEXT_CONF_MIN_UOM_HITS", 2),
			DisableRaster: getEnvAsBool("PDF_DISABLE_RASTER", false),
		},
		Import: ImportConfig{
			MatchThreshold: getEnvAsInt("MATCH_THRESHOLD", 70),
			CreatedBy:      getEnv("IMPORT_CREATED_BY", "recipe_importer"),
			Workers:        getEnvAsInt("IMPORT_WORKERS", 1),
			FileTimeout:    getEnvAsDuration("IMPORT_FILE_TIMEOUT", 5*time.Minute),
		},
		Log: LogConfig{
			Level:         getEnv("LOG_LEVEL", "info"),
			ImportLogPath: getEnv("IMPORT_LOG_PATH", "logs/recipe_imports.jsonl"),
		},
	}
}

// SlogLevel maps Log.Level to a slog level; unknown values mean info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
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

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

// Validate validates the loaded configuration. The LLM key is only required when
// requireLLM is set; extraction of DOCX/CSV/XLSX works without it.
func (c *Config) Validate(requireLLM bool) error {
	v := NewValidator()
	v.Field("DB_DRIVER", c.Database.Driver, OneOf("sqlite", "postgres"))
	v.Field("MATCH_THRESHOLD", c.Import.MatchThreshold, IntRange(0, 100))
	v.Field("MAX_PDF_PAGES", c.Extract.MaxPDFPages, IntRange(1, 1000))
	v.Field("PDF_RASTER_DPI", c.Extract.DPI, IntRange(36, 600))
	v.Field("IMPORT_WORKERS", c.Import.Workers, IntRange(1, 64))
	v.Field("IMPORT_CREATED_BY", c.Import.CreatedBy, Required, MaxLength(64))
	if requireLLM {
		v.Field("OPENAI_API_KEY", c.LLM.APIKey, Required)
	}
	if v.HasErrors() {
		return NewAppError("CONFIG_ERROR", v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
