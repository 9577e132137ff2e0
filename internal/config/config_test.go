package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test helper to set env vars and clean up after
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	old := os.Getenv(key)
	os.Setenv(key, value)
	t.Cleanup(func() {
		if old == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, old)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	setEnv(t, "PORT", "")
	setEnv(t, "SANCTIONS_DATA_URL", "")
	setEnv(t, "CACHE_REFRESH_HOURS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultSanctionsDataURL, cfg.SanctionsDataURL)
	assert.Equal(t, DefaultTronAccountURL, cfg.TronAccountURL)
	assert.Equal(t, 12*time.Hour, cfg.CacheRefresh)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, DefaultTaskWorkers, cfg.TaskWorkers)
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "SANCTIONS_DATA_URL", "https://example.com/targets.csv")
	setEnv(t, "CACHE_REFRESH_HOURS", "1")
	setEnv(t, "TASK_RESULT_TTL_SECONDS", "60")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "https://example.com/targets.csv", cfg.SanctionsDataURL)
	assert.Equal(t, time.Hour, cfg.CacheRefresh)
	assert.Equal(t, time.Minute, cfg.TaskTTL)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{
			name: "valid config",
			config: Config{
				SanctionsDataURL: DefaultSanctionsDataURL,
				TronAccountURL:   DefaultTronAccountURL,
				DataDir:          "./data",
				TaskWorkers:      1,
			},
			wantErr: "",
		},
		{
			name: "missing sanctions URL",
			config: Config{
				TronAccountURL: DefaultTronAccountURL,
				DataDir:        "./data",
				TaskWorkers:    1,
			},
			wantErr: "SANCTIONS_DATA_URL is required",
		},
		{
			name: "missing tron URL",
			config: Config{
				SanctionsDataURL: DefaultSanctionsDataURL,
				DataDir:          "./data",
				TaskWorkers:      1,
			},
			wantErr: "TRON_ACCOUNT_URL is required",
		},
		{
			name: "missing data dir",
			config: Config{
				SanctionsDataURL: DefaultSanctionsDataURL,
				TronAccountURL:   DefaultTronAccountURL,
				TaskWorkers:      1,
			},
			wantErr: "DATA_DIR is required",
		},
		{
			name: "zero workers",
			config: Config{
				SanctionsDataURL: DefaultSanctionsDataURL,
				TronAccountURL:   DefaultTronAccountURL,
				DataDir:          "./data",
			},
			wantErr: "TASK_WORKERS must be at least 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestConfig_CachePath(t *testing.T) {
	cfg := &Config{DataDir: "/var/lib/instakyc"}
	assert.Equal(t, filepath.Join("/var/lib/instakyc", DefaultCacheFile), cfg.CachePath())
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{Env: "development"}
	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())

	cfg.Env = "production"
	assert.False(t, cfg.IsDevelopment())
	assert.True(t, cfg.IsProduction())
}

func TestGetEnv(t *testing.T) {
	setEnv(t, "TEST_VAR", "custom_value")

	assert.Equal(t, "custom_value", getEnv("TEST_VAR", "default"))
	assert.Equal(t, "default", getEnv("NONEXISTENT_VAR", "default"))
}

func TestGetEnvInt64(t *testing.T) {
	setEnv(t, "TEST_INT", "42")
	setEnv(t, "TEST_INVALID", "not_a_number")

	assert.Equal(t, int64(42), getEnvInt64("TEST_INT", 0))
	assert.Equal(t, int64(99), getEnvInt64("NONEXISTENT_VAR", 99))
	assert.Equal(t, int64(99), getEnvInt64("TEST_INVALID", 99)) // Falls back on parse error
}
