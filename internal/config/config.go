package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port              string
	Environment       string
	LogLevel          string
	MongoDBURI        string
	MongoDBPassword   string
	MongoDBDatabase   string
	JWTSecret         string
	JWTTTL            time.Duration
	JWKSURL           string
	AllowedOrigins    []string
	AuthRatePerMinute int
	CloudinaryName    string
	CloudinaryKey     string
	CloudinarySecret  string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port:             getEnvWithDefault("PORT", "8080"),
		Environment:      getEnvWithDefault("ENVIRONMENT", "development"),
		LogLevel:         getEnvWithDefault("LOG_LEVEL", "info"),
		MongoDBURI:       os.Getenv("MONGODB_URI"),
		MongoDBPassword:  os.Getenv("MONGODB_PASSWORD"),
		MongoDBDatabase:  getEnvWithDefault("MONGODB_DATABASE", "eventapp"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		JWKSURL:          os.Getenv("JWKS_URL"),
		AllowedOrigins:   splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:5173")),
		CloudinaryName:   os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinarySecret: os.Getenv("CLOUDINARY_API_SECRET"),
	}

	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if len(cfg.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("ALLOWED_ORIGINS must list at least one origin")
	}

	ttl, err := time.ParseDuration(getEnvWithDefault("JWT_TTL", "1h"))
	if err != nil || ttl <= 0 {
		return nil, fmt.Errorf("JWT_TTL must be a positive duration")
	}
	cfg.JWTTTL = ttl

	rpm, err := strconv.Atoi(getEnvWithDefault("AUTH_RATE_PER_MINUTE", "10"))
	if err != nil || rpm <= 0 {
		return nil, fmt.Errorf("AUTH_RATE_PER_MINUTE must be a positive integer")
	}
	cfg.AuthRatePerMinute = rpm

	return cfg, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// CloudinaryEnabled reports whether all three Cloudinary credentials are set.
func (c *Config) CloudinaryEnabled() bool {
	return c.CloudinaryName != "" && c.CloudinaryKey != "" && c.CloudinarySecret != ""
}
