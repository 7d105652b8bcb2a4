package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gestion-proyectos/backend/logging"

	"github.com/joho/godotenv"
)

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Log       LogConfig
	Storage   StorageConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port         string
	CORSOrigin   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Driver string
	URI    string
	Name   string
}

type AuthConfig struct {
	JWTSecret string
}

type LogConfig struct {
	File   string
	Level  string
	Stdout bool
}

type StorageConfig struct {
	UploadDir     string
	MaxUploadSize int64
}

type SchedulerConfig struct {
	// ScanSchedule is a cron expression; empty disables the scheduled scan.
	ScanSchedule string
	RedisAddr    string
	LockTTL      time.Duration
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		logging.Logger.Info("Event ID: ENV_FILE_MISSING, Description: no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			CORSOrigin:   getEnv("CORS_ORIGIN", "http://localhost:4200"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver: strings.ToLower(getEnv("STORE_DRIVER", DriverMongo)),
			URI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Name:   getEnv("MONGO_DB_NAME", "gestion_proyectos"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Log: LogConfig{
			File:   getEnv("LOG_FILE", "logs/backend.log"),
			Level:  getEnv("LOG_LEVEL", "info"),
			Stdout: getEnvAsBool("LOG_STDOUT", false),
		},
		Storage: StorageConfig{
			UploadDir:     getEnv("UPLOAD_DIR", "uploads"),
			MaxUploadSize: int64(getEnvAsInt("MAX_UPLOAD_MB", 10)) << 20,
		},
		Scheduler: SchedulerConfig{
			ScanSchedule: getEnv("NOTIFY_SCAN_SCHEDULE", ""),
			RedisAddr:    getEnv("REDIS_ADDR", ""),
			LockTTL:      getEnvAsDuration("SCAN_LOCK_TTL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("SERVER_PORT is required")
	}

	switch c.Database.Driver {
	case DriverMongo:
		if c.Database.URI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
		if c.Database.Name == "" {
			return fmt.Errorf("MONGO_DB_NAME is required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverMongo, DriverMemory, c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}

	if c.Scheduler.LockTTL <= 0 {
		return fmt.Errorf("SCAN_LOCK_TTL must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		logging.Logger.Warnf("Event ID: CONFIG_INVALID_VALUE, Description: invalid integer for %s, using default %d", key, defaultValue)
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
		logging.Logger.Warnf("Event ID: CONFIG_INVALID_VALUE, Description: invalid boolean for %s, using default %t", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		logging.Logger.Warnf("Event ID: CONFIG_INVALID_VALUE, Description: invalid duration for %s, using default %s", key, defaultValue)
		return defaultValue
	}

	return value
}
