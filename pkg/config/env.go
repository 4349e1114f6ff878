// pkg/config/env.go
package config

import (
	"os"
	"strconv"
	"time"
)

// Environment variables read by ApplyEnvironmentOverrides
const (
	EnvWidth            = "ARENA_WIDTH"
	EnvHeight           = "ARENA_HEIGHT"
	EnvQuadtreeCapacity = "ARENA_QUADTREE_CAPACITY"
	EnvServerAddr       = "ARENA_SERVER_ADDR"
	EnvHealthAddr       = "ARENA_HEALTH_ADDR"
	EnvTickRate         = "ARENA_TICK_RATE"
	EnvMaxClients       = "ARENA_MAX_CLIENTS"
	EnvLevel            = "ARENA_LEVEL"
	EnvBreakerTimeout   = "ARENA_CB_TIMEOUT"
	EnvBreakerMaxFails  = "ARENA_CB_MAX_FAILS"
	EnvRetryDelay       = "ARENA_RETRY_DELAY"
	EnvMaxMemoryMB      = "ARENA_MAX_MEMORY_MB"
	EnvMaxGoroutines    = "ARENA_MAX_GOROUTINES"
)

// ApplyEnvironmentOverrides replaces config values with any ARENA_* variables
// that are set, then validates the result.
func ApplyEnvironmentOverrides(config *Config) error {
	config.Engine.Width = getEnvAsFloatOrDefault(EnvWidth, config.Engine.Width)
	config.Engine.Height = getEnvAsFloatOrDefault(EnvHeight, config.Engine.Height)
	config.Engine.CapacityPerNode = getEnvAsIntOrDefault(EnvQuadtreeCapacity, config.Engine.CapacityPerNode)
	config.Server.Address = getEnvOrDefault(EnvServerAddr, config.Server.Address)
	config.Server.HealthAddress = getEnvOrDefault(EnvHealthAddr, config.Server.HealthAddress)
	config.Server.TickRate = getEnvAsIntOrDefault(EnvTickRate, config.Server.TickRate)
	config.Server.MaxClients = getEnvAsIntOrDefault(EnvMaxClients, config.Server.MaxClients)
	config.Level = getEnvOrDefault(EnvLevel, config.Level)
	config.Client.CircuitBreakerTimeout = getEnvAsDurationOrDefault(EnvBreakerTimeout, config.Client.CircuitBreakerTimeout)
	config.Client.CircuitBreakerMaxConsecutiveFails = getEnvAsIntOrDefault(EnvBreakerMaxFails, config.Client.CircuitBreakerMaxConsecutiveFails)
	config.Client.RetryDelay = getEnvAsDurationOrDefault(EnvRetryDelay, config.Client.RetryDelay)
	config.Resources.MaxMemoryMB = int64(getEnvAsIntOrDefault(EnvMaxMemoryMB, int(config.Resources.MaxMemoryMB)))
	config.Resources.MaxGoroutines = getEnvAsIntOrDefault(EnvMaxGoroutines, config.Resources.MaxGoroutines)

	return config.Validate()
}

// TickInterval returns the wall-clock duration of one simulation tick
func (s ServerConfig) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second
	}
	return time.Second / time.Duration(s.TickRate)
}

// Helper functions for environment variable parsing

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
