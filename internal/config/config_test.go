package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/susmanga")
	t.Setenv("JWT_SECRET", testSecret)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, 3600, cfg.CacheTTL)
	assert.Equal(t, time.Hour, cfg.CacheDuration())
	assert.Equal(t, "https://nhentai.net", cfg.SourceBaseURL)
	assert.True(t, cfg.IngestRollback)
	assert.Equal(t, "admin", cfg.AdminUsername)
	assert.Equal(t, time.Hour, cfg.AdminTokenDuration())
	assert.False(t, cfg.StorageEnabled())
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/susmanga")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("INGEST_ROLLBACK", "false")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("R2_ENDPOINT", "https://r2.example")
	t.Setenv("R2_ACCESS_KEY_ID", "key")
	t.Setenv("R2_SECRET_ACCESS_KEY", "secret")
	t.Setenv("R2_BUCKET", "manga")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.False(t, cfg.IngestRollback)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.StorageEnabled())
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", testSecret)

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestLoadConfig_InvalidInteger(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/susmanga")
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("HTTP_PORT", "eighty")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "HTTP_PORT")
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := &Config{
		HTTPPort:        0,
		DBMaxOpenConns:  1,
		SourceRateLimit: 1,
		ScrapeWorkers:   1,
		UploadWorkers:   1,
		SourceBaseURL:   "ftp://source",
		LogLevel:        "loud",
		LogFormat:       "text",
		JWTSecret:       "short",
	}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"HTTP_PORT", "SOURCE_BASE_URL", "LOG_LEVEL", "JWT_SECRET"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadBlacklist(t *testing.T) {
	t.Run("EmptyPath", func(t *testing.T) {
		labels, err := LoadBlacklist("")
		assert.NoError(t, err)
		assert.Empty(t, labels)
	})

	t.Run("File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blacklist.yaml")
		require.NoError(t, os.WriteFile(path, []byte("labels:\n  - Guro\n  - scat\n"), 0o600))

		labels, err := LoadBlacklist(path)
		require.NoError(t, err)
		assert.Equal(t, []string{"Guro", "scat"}, labels)
	})

	t.Run("Malformed", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blacklist.yaml")
		require.NoError(t, os.WriteFile(path, []byte("labels: [unterminated"), 0o600))

		_, err := LoadBlacklist(path)
		assert.Error(t, err)
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadBlacklist(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", "json")

	logger.Info("hidden")
	logger.Warn("shown", "slug", "test-comic")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.True(t, strings.Contains(out, `"slug":"test-comic"`))
}
