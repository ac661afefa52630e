package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("MONGODB_URI", "mongodb://localhost:27017")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "eventapp", cfg.MongoDBDatabase)
	assert.Equal(t, time.Hour, cfg.JWTTTL)
	assert.Equal(t, 10, cfg.AuthRatePerMinute)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.CloudinaryEnabled())
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("JWT_TTL", "15m")
	t.Setenv("AUTH_RATE_PER_MINUTE", "3")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("CLOUDINARY_CLOUD_NAME", "demo")
	t.Setenv("CLOUDINARY_API_KEY", "key")
	t.Setenv("CLOUDINARY_API_SECRET", "shh")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 15*time.Minute, cfg.JWTTTL)
	assert.Equal(t, 3, cfg.AuthRatePerMinute)
	assert.True(t, cfg.IsProduction())
	assert.True(t, cfg.CloudinaryEnabled())
}

func TestLoadConfigErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"missing uri":    {"MONGODB_URI": "", "JWT_SECRET": "s"},
		"missing secret": {"MONGODB_URI": "mongodb://x", "JWT_SECRET": ""},
		"bad ttl":        {"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "JWT_TTL": "forever"},
		"bad rate":       {"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "AUTH_RATE_PER_MINUTE": "-1"},
		"empty origins":  {"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "ALLOWED_ORIGINS": ","},
		"blank origins":  {"MONGODB_URI": "mongodb://x", "JWT_SECRET": "s", "ALLOWED_ORIGINS": " "},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
