package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Keys     APIKeys
	Ai       AIConfig
	Library  LibraryConfig
	Log      LogConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	TokenTTL           time.Duration
	WorkspaceIdleTTL   time.Duration
}

type DatabaseConfig struct {
	Connection string
	SQLitePath string
}

type StorageConfig struct {
	// memory | redis | postgres | sqlite
	Backend string
}

type APIKeys struct {
	GoogleGemini string
}

type AIConfig struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	RequestTimeout time.Duration
	SystemPrompt   string `toml:"system_prompt"`
}

type LibraryConfig struct {
	StoreDisplayName    string `toml:"store_display_name"`
	MaxFileSizeBytes    int64  `toml:"max_file_size_bytes"`
	PollInterval        time.Duration
	MaxPollAttempts     int `toml:"max_poll_attempts"`
	ProgressClearDelay  time.Duration
	MaxTokensPerChunk   int `toml:"max_tokens_per_chunk"`
	MaxOverlapTokens    int `toml:"max_overlap_tokens"`
	RecommendedMaxBytes int64
	LargeLibraryBytes   int64
}

type LogConfig struct {
	Level    string
	FilePath string
	Console  bool
}

const gigabyte = 1024 * 1024 * 1024

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	cfg := &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", "change-me"),
			TokenTTL:           getEnvAsDuration("TOKEN_TTL", 30*24*time.Hour),
			WorkspaceIdleTTL:   getEnvAsDuration("WORKSPACE_IDLE_TTL", time.Hour),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			SQLitePath: getEnv("SQLITE_PATH", "data/companion.db"),
		},
		Storage: StorageConfig{
			Backend: getEnv("STORAGE_BACKEND", "memory"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GEMINI_API_KEY", getEnv("GOOGLE_GEMINI_API_KEY", "")),
		},
		Ai: AIConfig{
			BaseURL:        getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com"),
			Model:          getEnv("GEMINI_MODEL", "gemini-3-flash-preview"),
			RequestTimeout: getEnvAsDuration("GEMINI_REQUEST_TIMEOUT", 60*time.Second),
		},
		Library: LibraryConfig{
			StoreDisplayName:    getEnv("LIBRARY_STORE_NAME", "Architecture-Library-v1"),
			MaxFileSizeBytes:    getEnvAsInt64("LIBRARY_MAX_FILE_BYTES", 100*1024*1024),
			PollInterval:        getEnvAsDuration("LIBRARY_POLL_INTERVAL", 3*time.Second),
			MaxPollAttempts:     getEnvAsInt("LIBRARY_MAX_POLL_ATTEMPTS", 60),
			ProgressClearDelay:  getEnvAsDuration("LIBRARY_PROGRESS_CLEAR_DELAY", 3*time.Second),
			MaxTokensPerChunk:   getEnvAsInt("LIBRARY_CHUNK_TOKENS", 200),
			MaxOverlapTokens:    getEnvAsInt("LIBRARY_CHUNK_OVERLAP", 20),
			RecommendedMaxBytes: 20 * gigabyte,
			LargeLibraryBytes:   10 * gigabyte,
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE_PATH", "logs/app.log"),
			Console:  getEnvAsBool("LOG_CONSOLE", true),
		},
	}

	if path := getEnv("CONFIG_FILE", ""); path != "" {
		if err := applyFile(cfg, path); err != nil {
			log.Printf("[WARN] Failed to apply config file %s: %v", path, err)
		}
	}

	return cfg
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// fileOverlay is the optional TOML file. Only keys present in the file
// override the environment.
type fileOverlay struct {
	Ai      *AIConfig      `toml:"ai"`
	Library *LibraryConfig `toml:"library"`
}

func applyFile(cfg *Config, path string) error {
	var overlay fileOverlay
	if _, err := toml.DecodeFile(path, &overlay); err != nil {
		return err
	}

	if ai := overlay.Ai; ai != nil {
		if ai.BaseURL != "" {
			cfg.Ai.BaseURL = ai.BaseURL
		}
		if ai.Model != "" {
			cfg.Ai.Model = ai.Model
		}
		if ai.SystemPrompt != "" {
			cfg.Ai.SystemPrompt = ai.SystemPrompt
		}
	}

	if lib := overlay.Library; lib != nil {
		if lib.StoreDisplayName != "" {
			cfg.Library.StoreDisplayName = lib.StoreDisplayName
		}
		if lib.MaxFileSizeBytes > 0 {
			cfg.Library.MaxFileSizeBytes = lib.MaxFileSizeBytes
		}
		if lib.MaxPollAttempts > 0 {
			cfg.Library.MaxPollAttempts = lib.MaxPollAttempts
		}
		if lib.MaxTokensPerChunk > 0 {
			cfg.Library.MaxTokensPerChunk = lib.MaxTokensPerChunk
		}
		if lib.MaxOverlapTokens > 0 {
			cfg.Library.MaxOverlapTokens = lib.MaxOverlapTokens
		}
	}

	return nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
