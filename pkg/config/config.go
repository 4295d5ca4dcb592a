package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all application configuration
type Config struct {
	Server ServerConfig
	Codec  CodecConfig
	Output OutputConfig
}

// ServerConfig holds web server configuration
type ServerConfig struct {
	Host        string
	Port        int
	MaxBodySize int64
}

// CodecConfig holds decrypt behaviour settings
type CodecConfig struct {
	Strict bool
}

// OutputConfig holds where the CLI inspect command writes reports.
// The web server returns reports in the response and ignores it.
type OutputConfig struct {
	Dir string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        getEnv("HOST", "127.0.0.1"),
			Port:        getEnvInt("PORT", 3000),
			MaxBodySize: int64(getEnvInt("SAVELENS_MAX_BODY", 16<<20)),
		},
		Codec: CodecConfig{
			Strict: getEnvBool("SAVELENS_STRICT", false),
		},
		Output: OutputConfig{
			Dir: getEnv("SAVELENS_OUT_DIR", "out"),
		},
	}
}

// Addr returns the host:port listen address
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// getEnv gets a non-empty environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf(`
Server: %s (max body %d bytes)
Strict: %t
Output: %s`,
		c.Addr(), c.Server.MaxBodySize,
		c.Codec.Strict,
		c.Output.Dir,
	)
}
