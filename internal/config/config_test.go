package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, k := range []string{
		"PORT", "SERVER_PORT", "STORE_DRIVER", "DATABASE_URL", "JWT_SECRET",
		"S3_BUCKET", "S3_REGION", "S3_ENDPOINT", "S3_PUBLIC_URL", "REDIS_URL",
		"BOOKS_CACHE_TTL", "API_URL", "KEEPALIVE_SCHEDULE", "CORS_ALLOWED_ORIGINS",
		"LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(k, "")
	}

	c := FromEnv()

	assert.Equal(t, "3000", c.Server.Port)
	assert.Equal(t, 5*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, StoreDriverPostgres, c.Database.Driver)
	assert.Equal(t, int32(5), c.Database.MaxConns)
	assert.Equal(t, "books", c.Storage.Bucket)
	assert.Equal(t, "us-east-1", c.Storage.Region)
	assert.Equal(t, 60*time.Second, c.Cache.TTL)
	assert.Equal(t, "*/14 * * * *", c.KeepAlive.Schedule)
	assert.Equal(t, []string{"*"}, c.CORS.AllowedOrigins)
	assert.Equal(t, "info", c.Log.Level)
	assert.False(t, c.IsCacheConfigured())
	assert.False(t, c.IsKeepAliveConfigured())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("DB_MAX_CONNS", "12")
	t.Setenv("SERVER_READ_TIMEOUT", "7s")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("CORS_ALLOW_CREDENTIALS", "true")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("API_URL", "https://bookworm.example/healthz")

	c := FromEnv()

	assert.Equal(t, "8081", c.Server.Port)
	assert.Equal(t, StoreDriverMemory, c.Database.Driver)
	assert.Equal(t, int32(12), c.Database.MaxConns)
	assert.Equal(t, 7*time.Second, c.Server.ReadTimeout)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, c.CORS.AllowedOrigins)
	assert.True(t, c.CORS.AllowCredentials)
	assert.True(t, c.IsCacheConfigured())
	assert.True(t, c.IsKeepAliveConfigured())
}

func TestFromEnv_BadNumbersFallBack(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "lots")
	t.Setenv("SERVER_IDLE_TIMEOUT", "forever")

	c := FromEnv()

	assert.Equal(t, int32(5), c.Database.MaxConns)
	assert.Equal(t, 120*time.Second, c.Server.IdleTimeout)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database: DatabaseConfig{Driver: StoreDriverPostgres, URL: "postgres://u:p@localhost/db"},
			JWT:      JWTConfig{Secret: "s3cret"},
			Storage:  StorageConfig{Bucket: "books", Endpoint: "http://127.0.0.1:9000"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ok", mutate: func(c *Config) {}},
		{name: "memory store needs no url", mutate: func(c *Config) { c.Database = DatabaseConfig{Driver: StoreDriverMemory} }},
		{name: "missing secret", mutate: func(c *Config) { c.JWT.Secret = "" }, wantErr: "JWT_SECRET"},
		{name: "missing database url", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: "DATABASE_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.Database.Driver = "mongo" }, wantErr: "STORE_DRIVER"},
		{name: "missing storage endpoint", mutate: func(c *Config) { c.Storage.Endpoint = "" }, wantErr: "S3_ENDPOINT"},
		{name: "missing bucket", mutate: func(c *Config) { c.Storage.Bucket = "" }, wantErr: "S3_BUCKET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestImagePublicURL(t *testing.T) {
	c := &Config{Storage: StorageConfig{Endpoint: "http://127.0.0.1:9000/", Bucket: "books"}}
	assert.Equal(t, "http://127.0.0.1:9000/books", c.ImagePublicURL())

	c.Storage.PublicURL = "https://cdn.bookworm.example/"
	assert.Equal(t, "https://cdn.bookworm.example", c.ImagePublicURL())
}
