// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config contains the configuration of an arena server
type Config struct {
	Engine EngineConfig `json:"engine" yaml:"engine"`
	Server ServerConfig `json:"server" yaml:"server"`
	Client ClientConfig `json:"client" yaml:"client"`
	// Resources bounds the server process
	Resources ResourceConfig `json:"resources" yaml:"resources"`
	// Level is the path of the level file loaded at startup. Empty means an open field.
	Level string `json:"level" yaml:"level"`
}

// EngineConfig contains the collision engine parameters
type EngineConfig struct {
	Width           float64 `json:"width" yaml:"width"`
	Height          float64 `json:"height" yaml:"height"`
	CapacityPerNode int     `json:"capacityPerNode" yaml:"capacityPerNode"`
}

// ServerConfig contains network-related configuration
type ServerConfig struct {
	Address           string `json:"address" yaml:"address"`
	HealthAddress     string `json:"healthAddress" yaml:"healthAddress"`
	TickRate          int    `json:"tickRate" yaml:"tickRate"`             // simulation ticks per second
	BroadcastEvery    int    `json:"broadcastEvery" yaml:"broadcastEvery"` // ticks between state broadcasts
	MaxClients        int    `json:"maxClients" yaml:"maxClients"`
	MaxMessagesPerMin int    `json:"maxMessagesPerMin" yaml:"maxMessagesPerMin"`
}

// ClientConfig contains the connection policy of the Go client. Durations
// are nanoseconds in JSON and Go duration strings in YAML.
type ClientConfig struct {
	CircuitBreakerMaxRequests         int           `json:"circuitBreakerMaxRequests" yaml:"circuitBreakerMaxRequests"`
	CircuitBreakerInterval            time.Duration `json:"circuitBreakerInterval" yaml:"circuitBreakerInterval"`
	CircuitBreakerTimeout             time.Duration `json:"circuitBreakerTimeout" yaml:"circuitBreakerTimeout"`
	CircuitBreakerMaxConsecutiveFails int           `json:"circuitBreakerMaxConsecutiveFails" yaml:"circuitBreakerMaxConsecutiveFails"`
	MaxRetries                        int           `json:"maxRetries" yaml:"maxRetries"`
	RetryDelay                        time.Duration `json:"retryDelay" yaml:"retryDelay"`
	DialTimeout                       time.Duration `json:"dialTimeout" yaml:"dialTimeout"`
}

// ResourceConfig limits memory and the goroutines started for sessions
type ResourceConfig struct {
	MaxMemoryMB     int64         `json:"maxMemoryMB" yaml:"maxMemoryMB"`
	MaxGoroutines   int           `json:"maxGoroutines" yaml:"maxGoroutines"`
	CheckInterval   time.Duration `json:"checkInterval" yaml:"checkInterval"`
	ShutdownTimeout time.Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
}

// LoadConfig loads a configuration from a file. Files ending in .yaml or
// .yml are parsed as YAML, anything else as JSON.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file, in YAML or JSON by extension
func SaveConfig(config *Config, path string) error {
	if config == nil {
		return fmt.Errorf("failed to marshal config: %w", ErrInvalidConfig)
	}

	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(config)
	} else {
		data, err = json.MarshalIndent(config, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default arena configuration
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Width:           2048,
			Height:          2048,
			CapacityPerNode: 10,
		},
		Server: ServerConfig{
			Address:           ":8080",
			HealthAddress:     ":8081",
			TickRate:          60,
			BroadcastEvery:    3,
			MaxClients:        32,
			MaxMessagesPerMin: 1200,
		},
		Client: DefaultClientConfig(),
		Resources: ResourceConfig{
			MaxMemoryMB:     500,
			MaxGoroutines:   256,
			CheckInterval:   10 * time.Second,
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// DefaultClientConfig returns the default client connection policy
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		CircuitBreakerMaxRequests:         3,
		CircuitBreakerInterval:            60 * time.Second,
		CircuitBreakerTimeout:             30 * time.Second,
		CircuitBreakerMaxConsecutiveFails: 5,
		MaxRetries:                        3,
		RetryDelay:                        time.Second,
		DialTimeout:                       5 * time.Second,
	}
}

// Validate checks that every value is usable
func (c *Config) Validate() error {
	if c.Engine.Width <= 0 || c.Engine.Height <= 0 {
		return fmt.Errorf("%w: engine size must be positive, got %vx%v", ErrInvalidConfig, c.Engine.Width, c.Engine.Height)
	}
	if c.Engine.CapacityPerNode < 1 {
		return fmt.Errorf("%w: capacityPerNode must be at least 1, got %d", ErrInvalidConfig, c.Engine.CapacityPerNode)
	}
	if c.Server.Address == "" {
		return fmt.Errorf("%w: server address cannot be empty", ErrInvalidConfig)
	}
	if c.Server.TickRate < 1 || c.Server.TickRate > 240 {
		return fmt.Errorf("%w: tickRate must be between 1 and 240, got %d", ErrInvalidConfig, c.Server.TickRate)
	}
	if c.Server.BroadcastEvery < 1 {
		return fmt.Errorf("%w: broadcastEvery must be at least 1, got %d", ErrInvalidConfig, c.Server.BroadcastEvery)
	}
	if c.Server.MaxClients < 1 {
		return fmt.Errorf("%w: maxClients must be at least 1, got %d", ErrInvalidConfig, c.Server.MaxClients)
	}
	if c.Server.MaxMessagesPerMin < 1 {
		return fmt.Errorf("%w: maxMessagesPerMin must be at least 1, got %d", ErrInvalidConfig, c.Server.MaxMessagesPerMin)
	}
	if c.Client.CircuitBreakerMaxConsecutiveFails < 1 {
		return fmt.Errorf("%w: circuitBreakerMaxConsecutiveFails must be at least 1, got %d", ErrInvalidConfig, c.Client.CircuitBreakerMaxConsecutiveFails)
	}
	if c.Client.MaxRetries < 1 {
		return fmt.Errorf("%w: maxRetries must be at least 1, got %d", ErrInvalidConfig, c.Client.MaxRetries)
	}
	if c.Client.RetryDelay < 0 || c.Client.CircuitBreakerTimeout < 0 || c.Client.CircuitBreakerInterval < 0 {
		return fmt.Errorf("%w: client durations cannot be negative", ErrInvalidConfig)
	}
	if c.Resources.MaxMemoryMB < 1 {
		return fmt.Errorf("%w: maxMemoryMB must be at least 1, got %d", ErrInvalidConfig, c.Resources.MaxMemoryMB)
	}
	if c.Resources.MaxGoroutines < 2*c.Server.MaxClients {
		return fmt.Errorf("%w: maxGoroutines must allow two per client, got %d for %d clients",
			ErrInvalidConfig, c.Resources.MaxGoroutines, c.Server.MaxClients)
	}
	if c.Resources.CheckInterval <= 0 || c.Resources.ShutdownTimeout <= 0 {
		return fmt.Errorf("%w: resource intervals must be positive", ErrInvalidConfig)
	}
	return nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}
