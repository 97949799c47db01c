package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("ALLOWED_ORIGINS", "")

	cfg := LoadConfig()

	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenExpiry)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.CORS.AllowedOrigins)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("ACCESS_TOKEN_EXPIRY", "5m")
	t.Setenv("REFRESH_TOKEN_EXPIRY", "bogus")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test,,")
	t.Setenv("REDIS_DB", "3")

	cfg := LoadConfig()

	assert.Equal(t, "access", cfg.JWT.AccessSecret)
	assert.Equal(t, 5*time.Minute, cfg.JWT.AccessTokenExpiry)
	assert.Equal(t, 7*24*time.Hour, cfg.JWT.RefreshTokenExpiry)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 3, cfg.Redis.DB)
	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			JWT: JWTConfig{
				AccessSecret:       "a",
				RefreshSecret:      "b",
				AccessTokenExpiry:  time.Minute,
				RefreshTokenExpiry: time.Hour,
			},
			Auth: AuthConfig{BcryptCost: 12},
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{name: "missing access secret", mutate: func(c *Config) { c.JWT.AccessSecret = "" }},
		{name: "missing refresh secret", mutate: func(c *Config) { c.JWT.RefreshSecret = "" }},
		{name: "equal secrets", mutate: func(c *Config) { c.JWT.RefreshSecret = c.JWT.AccessSecret }},
		{name: "zero access expiry", mutate: func(c *Config) { c.JWT.AccessTokenExpiry = 0 }},
		{name: "negative refresh expiry", mutate: func(c *Config) { c.JWT.RefreshTokenExpiry = -time.Second }},
		{name: "bcrypt cost too low", mutate: func(c *Config) { c.Auth.BcryptCost = 2 }},
	}

	require.NoError(t, valid().Validate())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
