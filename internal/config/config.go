// Package config loads the process configuration from environment
// variables, one Config struct per concern, the way passbi_core's
// internal/db and internal/cache packages each load their own.
package config

import (
	"os"
	"strconv"
	"time"
)

// StoreConfig holds Postgres connection settings.
type StoreConfig struct {
	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string
	MinConns int32
	MaxConns int32
}

// LoadStoreConfigFromEnv reads DB_* environment variables.
func LoadStoreConfigFromEnv() *StoreConfig {
	port, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))
	minConns, _ := strconv.Atoi(getEnv("DB_MIN_CONNS", "5"))
	maxConns, _ := strconv.Atoi(getEnv("DB_MAX_CONNS", "20"))

	return &StoreConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     port,
		Database: getEnv("DB_NAME", "routes"),
		User:     getEnv("DB_USER", "routeuser"),
		Password: getEnv("DB_PASSWORD", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		MinConns: int32(minConns),
		MaxConns: int32(maxConns),
	}
}

// CacheConfig holds Redis connection settings.
type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
	LockTTL  time.Duration
}

// LoadCacheConfigFromEnv reads REDIS_* environment variables.
func LoadCacheConfigFromEnv() *CacheConfig {
	port, _ := strconv.Atoi(getEnv("REDIS_PORT", "6379"))
	db, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	ttl, _ := time.ParseDuration(getEnv("CACHE_TTL", "3600s"))
	lockTTL, _ := time.ParseDuration(getEnv("CACHE_LOCK_TTL", "5s"))

	return &CacheConfig{
		Host:     getEnv("REDIS_HOST", "localhost"),
		Port:     port,
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       db,
		TTL:      ttl,
		LockTTL:  lockTTL,
	}
}

// APIConfig holds request-orchestration defaults.
type APIConfig struct {
	Port            string
	DefaultCity     string
	RouteDeadlineMs int
}

// LoadAPIConfigFromEnv reads the remaining top-level environment variables.
func LoadAPIConfigFromEnv() *APIConfig {
	deadline, _ := strconv.Atoi(getEnv("ROUTE_DEADLINE_MS", "3000"))

	return &APIConfig{
		Port:            getEnv("API_PORT", "8080"),
		DefaultCity:     getEnv("DEFAULT_CITY", "bogota"),
		RouteDeadlineMs: deadline,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
