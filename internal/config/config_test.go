package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Env:          "development",
		Port:         "8000",
		JWTSecret:    "secure-secret-at-least-32-chars-long",
		JWTAlgorithm: "HS256",
		JWTTTL:       15 * time.Minute,
		DBDriver:     "sqlite",
		DBPassword:   "secure-password",
		BlobDriver:   "memory",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
	}{
		{"valid development config", func(*Config) {}, false},
		{"missing port", func(c *Config) { c.Port = "" }, true},
		{"missing secret", func(c *Config) { c.JWTSecret = "" }, true},
		{"asymmetric algorithm rejected", func(c *Config) { c.JWTAlgorithm = "RS256" }, true},
		{"none algorithm rejected", func(c *Config) { c.JWTAlgorithm = "NONE" }, true},
		{"HS512 accepted", func(c *Config) { c.JWTAlgorithm = "HS512" }, false},
		{"zero ttl rejected", func(c *Config) { c.JWTTTL = 0 }, true},
		{"negative skew rejected", func(c *Config) { c.JWTClockSkew = -time.Second }, true},
		{"unknown db driver", func(c *Config) { c.DBDriver = "mysql" }, true},
		{"unknown blob driver", func(c *Config) { c.BlobDriver = "gcs" }, true},
		{"production default secret", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.BlobDriver = "s3"
			c.JWTSecret = defaultJWTSecret
		}, true},
		{"production short secret", func(c *Config) {
			c.Env = "prod"
			c.DBDriver = "postgres"
			c.BlobDriver = "s3"
			c.JWTSecret = "short"
		}, true},
		{"production default db password", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.BlobDriver = "s3"
			c.DBPassword = "password"
		}, true},
		{"production memory blob store", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
		}, true},
		{"production ok", func(c *Config) {
			c.Env = "production"
			c.DBDriver = "postgres"
			c.BlobDriver = "s3"
			c.DBSSLMode = "require"
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("JWT_ALGORITHM", " hs384 ")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("JWT_CLOCK_SKEW", "5s")
	t.Setenv("DB_DRIVER", "SQLITE")
	t.Setenv("BLOB_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_FAIL_CLOSED", "true")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "test", c.Env)
	assert.Equal(t, "HS384", c.JWTAlgorithm)
	assert.Equal(t, 30*time.Minute, c.JWTTTL)
	assert.Equal(t, 5*time.Second, c.JWTClockSkew)
	assert.Equal(t, "sqlite", c.DBDriver)
	assert.Equal(t, "posts", c.BlobBucket)
	assert.True(t, c.RateLimitFailClosed)
}

func TestLoadConfig_DefaultTokenLifetime(t *testing.T) {
	t.Setenv("APP_ENV", "test")

	c, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, c.JWTTTL)
	assert.Equal(t, time.Duration(0), c.JWTClockSkew)
	assert.Equal(t, "HS256", c.JWTAlgorithm)
	assert.False(t, c.RateLimitFailClosed)
}
