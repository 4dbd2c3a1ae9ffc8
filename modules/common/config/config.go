package config

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config - all environment-backed settings, built once at startup and
// passed by pointer into every constructor.
type Config struct {
	// Supabase
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseAnonKey    string
	StorageBucket      string

	// SiliconFlow (VTON provider)
	SiliconFlowAPIKey  string
	SiliconFlowBaseURL string
	UseMockVTON        bool

	// Gemini API
	GeminiAPIKey string
	GeminiModel  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Server
	Port string
}

// Load - read .env (if present) and environment variables, fail fast on
// missing required values.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	useTLS := false
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	useMock := false
	if mockStr := os.Getenv("USE_MOCK_VTON"); mockStr != "" {
		if parsed, err := strconv.ParseBool(mockStr); err == nil {
			useMock = parsed
		}
	}
	// No provider key means mock mode, same as the original dev setup.
	if os.Getenv("SILICONFLOW_API_KEY") == "" {
		useMock = true
	}

	cfg := &Config{
		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseAnonKey:    getEnv("SUPABASE_ANON_KEY", ""),
		StorageBucket:      getEnv("STORAGE_BUCKET", "product-images"),

		SiliconFlowAPIKey:  getEnv("SILICONFLOW_API_KEY", ""),
		SiliconFlowBaseURL: getEnv("SILICONFLOW_BASE_URL", "https://api.siliconflow.cn/v1"),
		UseMockVTON:        useMock,

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.0-flash"),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		Port: getEnv("PORT", "8080"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Supabase: %s (bucket: %s)", cfg.SupabaseURL, cfg.StorageBucket)
	log.Printf("   Gemini: %s", cfg.GeminiModel)
	log.Printf("   VTON: mock=%v", cfg.UseMockVTON)

	return cfg, nil
}

// validate - required environment variables
func (c *Config) validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if !c.UseMockVTON && c.SiliconFlowAPIKey == "" {
		return fmt.Errorf("SILICONFLOW_API_KEY is required (or set USE_MOCK_VTON=true)")
	}
	return nil
}

// getEnv - environment variable with default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetRedisAddr - Redis connection string
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
