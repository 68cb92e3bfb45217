package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Relay    RelayConfig
	JWT      JWTConfig
	Database DatabaseConfig
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// RelayConfig tunes the relay core. CallSignalScope is either "room" or
// "global" since both behaviors exist in the wild. AutoJoinRoom empty
// disables the automatic join after auth.
type RelayConfig struct {
	HistoryCapacity int
	AutoJoinRoom    string
	CallSignalScope string
	MessageTTL      time.Duration
}

type JWTConfig struct {
	Secret    []byte
	ExpiresIn time.Duration
}

type DatabaseConfig struct {
	URL string
}

const (
	ScopeRoom   = "room"
	ScopeGlobal = "global"
)

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", ":8080"),
			ReadTimeout:  getDurationOrDefault("READ_TIMEOUT", "15s"),
			WriteTimeout: getDurationOrDefault("WRITE_TIMEOUT", "15s"),
		},
		Relay: RelayConfig{
			HistoryCapacity: getIntOrDefault("HISTORY_CAPACITY", 100),
			AutoJoinRoom:    getEnvOrDefault("AUTO_JOIN_ROOM", "lobby"),
			CallSignalScope: getScopeOrDefault("CALL_SIGNAL_SCOPE", ScopeRoom),
			MessageTTL:      getDurationOrDefault("MESSAGE_TTL", "10s"),
		},
		JWT: JWTConfig{
			Secret:    []byte(getEnvOrFatal("JWT_SECRET")),
			ExpiresIn: getDurationOrDefault("JWT_EXPIRES_IN", "24h"),
		},
		Database: DatabaseConfig{
			// Empty disables the postgres archive and account auth.
			URL: getEnvOrDefault("DATABASE_URL", ""),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrFatal(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatalf("%s environment variable is required", key)
	}
	return value
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %v", key, err)
	}
	return intValue
}

func getScopeOrDefault(key, defaultValue string) string {
	value := getEnvOrDefault(key, defaultValue)
	if value != ScopeRoom && value != ScopeGlobal {
		log.Fatalf("Invalid scope for %s: %q (want %q or %q)", key, value, ScopeRoom, ScopeGlobal)
	}
	return value
}
