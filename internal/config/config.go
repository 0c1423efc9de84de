package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	Environment string

	// Database
	DatabaseURL    string
	MigrateOnStart bool
	MigrationsDir  string

	// Redis
	RedisURL string

	// Server
	Port           string
	FrontendURL    string
	AllowedOrigins []string

	// Match settings and level table (YAML); empty uses the embedded default
	SettingsPath string

	// Simulation
	PhysicsHz           int
	ForceMultiplier     float64
	PredictionSteps     int
	StationaryThreshold float64
	DefaultController   string

	// Sessions
	SessionIdleMinutes int

	// Security
	JWTSecret          string
	SessionTokenTTLMin int
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	return &Config{
		// Environment
		Environment: getEnv("APP_ENV", "development"),

		// Database
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),
		MigrationsDir:  getEnv("MIGRATIONS_DIR", "migrations"),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// Server
		Port:           getEnv("APP_PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", "http://localhost:5173"),
		AllowedOrigins: getEnvList("ALLOWED_ORIGINS"),

		SettingsPath: getEnv("SETTINGS_PATH", ""),

		// Simulation
		PhysicsHz:           getEnvInt("PHYSICS_HZ", 60),
		ForceMultiplier:     getEnvFloat("FORCE_MULTIPLIER", 5000),
		PredictionSteps:     getEnvInt("PREDICTION_STEPS", 30),
		StationaryThreshold: getEnvFloat("STATIONARY_THRESHOLD", 10),
		DefaultController:   getEnv("DEFAULT_CONTROLLER", "pointer"),

		// Sessions
		SessionIdleMinutes: getEnvInt("SESSION_IDLE_MINUTES", 30),

		// Security
		JWTSecret:          getEnv("JWT_SECRET", "change-me-in-production"),
		SessionTokenTTLMin: getEnvInt("SESSION_TOKEN_TTL_MINUTES", 120),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
