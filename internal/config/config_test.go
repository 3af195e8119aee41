package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:3000", cfg.Addr)
	assert.Equal(t, 100, cfg.HistoryLimit)
	assert.Equal(t, 16, cfg.SendBuffer)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("CHAT_ADDR", ":9000")
	t.Setenv("CHAT_HISTORY_LIMIT", "25")
	t.Setenv("CHAT_ENV", "production")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 25, cfg.HistoryLimit)
	assert.False(t, cfg.IsDevelopment())
}

func TestLoad_OverridesTakePrecedence(t *testing.T) {
	v := viper.New()
	v.Set(KeyDBPath, "override.db")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "override.db", cfg.DBPath)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Addr:            ":3000",
			DBPath:          "chat.db",
			HistoryLimit:    100,
			SendBuffer:      16,
			WriterQueue:     256,
			MaxMessageSize:  4096,
			ShutdownTimeout: time.Second,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "empty addr", mutate: func(c *Config) { c.Addr = " " }, wantErr: true},
		{name: "empty db path", mutate: func(c *Config) { c.DBPath = "" }, wantErr: true},
		{name: "zero history", mutate: func(c *Config) { c.HistoryLimit = 0 }, wantErr: true},
		{name: "negative buffer", mutate: func(c *Config) { c.SendBuffer = -1 }, wantErr: true},
		{name: "zero shutdown", mutate: func(c *Config) { c.ShutdownTimeout = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
