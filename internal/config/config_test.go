package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SHOP_TIMEZONE", "")
	t.Setenv("TOKEN_TTL", "")
	t.Setenv("DB_CONNECT_ATTEMPTS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Asia/Tokyo", cfg.Timezone.String())
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 3, cfg.DBConnectAttempts)
	assert.Equal(t, 2*time.Second, cfg.DBConnectBackoff)
	assert.False(t, cfg.IsProduction())
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"SHOP_TIMEZONE", "Mars/Olympus"},
		{"TOKEN_TTL", "soon"},
		{"TOKEN_TTL", "-1m"},
		{"DB_CONNECT_ATTEMPTS", "0"},
		{"TOKEN_RATE_LIMIT", "fast"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
