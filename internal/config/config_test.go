package config

import (
	"os"
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
	for _, key := range []string{"PORT", "DEFAULT_REGION", "CLASSIFY_TIMEOUT", "FREE_MESSAGE_SCANS"} {
		setEnv(t, key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultRegion, cfg.DefaultRegion)
	assert.Equal(t, DefaultClassifyTimeout, cfg.ClassifyTimeout)
	assert.Equal(t, DefaultMessageScans, cfg.FreeMessageScans)
	assert.Equal(t, DefaultAutoHangupGrace, cfg.AutoHangupGrace)
	assert.False(t, cfg.ModelEnabled())
}

func TestLoad_Overrides(t *testing.T) {
	setEnv(t, "PORT", "9090")
	setEnv(t, "DEFAULT_REGION", "US")
	setEnv(t, "CLASSIFY_TIMEOUT", "4s")
	setEnv(t, "FREE_MESSAGE_SCANS", "2")
	setEnv(t, "GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "US", cfg.DefaultRegion)
	assert.Equal(t, 4*time.Second, cfg.ClassifyTimeout)
	assert.Equal(t, 2, cfg.FreeMessageScans)
	assert.True(t, cfg.ModelEnabled())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}, wantErr: ""},
		{
			name:    "bad region",
			mutate:  func(c *Config) { c.DefaultRegion = "VNM" },
			wantErr: "DEFAULT_REGION",
		},
		{
			name:    "negative quota",
			mutate:  func(c *Config) { c.FreeCallLookups = -1 },
			wantErr: "non-negative",
		},
		{
			name:    "hangup score out of range",
			mutate:  func(c *Config) { c.AutoHangupScore = 150 },
			wantErr: "AUTO_HANGUP_SCORE",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.ClassifyTimeout = 0 },
			wantErr: "CLASSIFY_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				DefaultRegion:   "VN",
				ClassifyTimeout: DefaultClassifyTimeout,
				AutoHangupScore: DefaultAutoHangupScore,
			}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
