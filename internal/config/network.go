package config

import (
	"fmt"
	"net"
	"os"
)

const DefaultHTTPPort = "8081"

// NetworkConfig holds network-related configuration
type NetworkConfig struct {
	LocalHost    string
	HTTPPort     string
	PostgresPort string
	DatabaseURL  string
}

// GetNetworkConfig returns network configuration from environment or defaults
func GetNetworkConfig() *NetworkConfig {
	return &NetworkConfig{
		LocalHost:    getEnvOrDefault("LOCAL_HOST", "localhost"),
		HTTPPort:     getEnvOrDefault("HTTP_PORT", DefaultHTTPPort),
		PostgresPort: getEnvOrDefault("POSTGRES_PORT", "5432"),
		DatabaseURL:  getEnvOrDefault("DATABASE_URL", ""),
	}
}

// ServerAddr returns host:port for the HTTP API
func (nc *NetworkConfig) ServerAddr() string {
	return net.JoinHostPort(nc.LocalHost, nc.HTTPPort)
}

// GetPostgresConnectionString constructs PostgreSQL connection string
func (nc *NetworkConfig) GetPostgresConnectionString() string {
	if nc.DatabaseURL != "" {
		return nc.DatabaseURL
	}

	host := getEnvOrDefault("DB_HOST", nc.LocalHost)
	port := getEnvOrDefault("DB_PORT", nc.PostgresPort)
	user := getEnvOrDefault("DB_USER", "postgres")
	password := getEnvOrDefault("DB_PASSWORD", "")
	dbname := getEnvOrDefault("DB_NAME", "audio_sessions")

	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port, user, password, dbname)
}

// getEnvOrDefault returns environment variable value or default
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
