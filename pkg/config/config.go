package config

import (
	"os"
	"strconv"

	"github.com/alimgiray/backers/internal/models"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds process-level configuration read once at the boundary. The
// core pipeline never reads the environment itself; it receives these values
// explicitly.
type Config struct {
	Server      ServerConfig
	Cache       CacheConfig
	Credentials models.Credentials
}

type ServerConfig struct {
	Port         string
	ReadTimeout  int
	WriteTimeout int
}

type CacheConfig struct {
	// Path is the sqlite response-cache file; empty disables caching.
	Path string
}

// Load reads configuration from a .env file and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 15),
		},
		Cache: CacheConfig{
			Path: getEnv("BACKERS_CACHE_PATH", ""),
		},
		Credentials: models.Credentials{
			AccessToken:  firstEnv("GITHUB_ACCESS_TOKEN", "GITHUB_TOKEN"),
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
			APIHost:      getEnv("GITHUB_API_URL", ""),
			GraphQLHost:  getEnv("GITHUB_GRAPHQL_URL", ""),
		},
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as integer or returns a default value.
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// firstEnv returns the first non-empty value among the given variables.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}
