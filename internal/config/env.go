package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "GOLFSIM_"

// loadDotEnv reads .env from the working directory if present. Variables
// already set in the environment win.
func loadDotEnv() {
	_ = godotenv.Load()
}

// applyEnv applies GOLFSIM_* environment overrides to the config.
func applyEnv(cfg *Config) {
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
	cfg.Logging.LogFile = getEnv("LOG_FILE", cfg.Logging.LogFile)
	cfg.Server.Addr = getEnv("ADDR", cfg.Server.Addr)
	cfg.Terrain.Seed = getEnvInt64("SEED", cfg.Terrain.Seed)
	cfg.Sweep.Divisions = getEnvInt("DIVISIONS", cfg.Sweep.Divisions)
	cfg.Sweep.BatchSize = getEnvInt("BATCH_SIZE", cfg.Sweep.BatchSize)
	cfg.Sweep.Staggered = getEnvBool("STAGGERED", cfg.Sweep.Staggered)
	cfg.Sweep.Output = getEnv("OUTPUT", cfg.Sweep.Output)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(EnvPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
