package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	KeyAddr            = "addr"
	KeyEnv             = "env"
	KeyDBPath          = "db_path"
	KeyHistoryLimit    = "history_limit"
	KeySendBuffer      = "send_buffer"
	KeyWriterQueue     = "writer_queue"
	KeyMaxMessageSize  = "max_message_size"
	KeyShutdownTimeout = "shutdown_timeout"
	KeyLogLevel        = "log_level"
)

// Config holds all runtime settings of the chat server.
type Config struct {
	Addr            string
	Env             string
	DBPath          string
	HistoryLimit    int
	SendBuffer      int
	WriterQueue     int
	MaxMessageSize  int
	ShutdownTimeout time.Duration
	LogLevel        string
}

// SetDefaults registers the default value of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyAddr, "127.0.0.1:3000")
	v.SetDefault(KeyEnv, "development")
	v.SetDefault(KeyDBPath, "chat.db")
	v.SetDefault(KeyHistoryLimit, 100)
	v.SetDefault(KeySendBuffer, 16)
	v.SetDefault(KeyWriterQueue, 256)
	v.SetDefault(KeyMaxMessageSize, 4096)
	v.SetDefault(KeyShutdownTimeout, 30*time.Second)
	v.SetDefault(KeyLogLevel, "info")
}

// Load reads configuration from v. A .env file in the working directory is
// loaded first if present; environment variables use the CHAT_ prefix.
func Load(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix("chat")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		Addr:            v.GetString(KeyAddr),
		Env:             v.GetString(KeyEnv),
		DBPath:          v.GetString(KeyDBPath),
		HistoryLimit:    v.GetInt(KeyHistoryLimit),
		SendBuffer:      v.GetInt(KeySendBuffer),
		WriterQueue:     v.GetInt(KeyWriterQueue),
		MaxMessageSize:  v.GetInt(KeyMaxMessageSize),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		LogLevel:        v.GetString(KeyLogLevel),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return errors.New("config: addr is required")
	case strings.TrimSpace(c.DBPath) == "":
		return errors.New("config: db_path is required")
	case c.HistoryLimit <= 0:
		return errors.New("config: history_limit must be positive")
	case c.SendBuffer <= 0:
		return errors.New("config: send_buffer must be positive")
	case c.WriterQueue <= 0:
		return errors.New("config: writer_queue must be positive")
	case c.MaxMessageSize <= 0:
		return errors.New("config: max_message_size must be positive")
	case c.ShutdownTimeout <= 0:
		return errors.New("config: shutdown_timeout must be positive")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
