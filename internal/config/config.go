package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Message  MessageConfig  `mapstructure:"message"`
}

type ServerConfig struct {
	Port       string `mapstructure:"port"`
	CORSOrigin string `mapstructure:"cors_origin"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type MessageConfig struct {
	// DeleteDelay is the gap between the messageDeleting and messageDeleted
	// broadcasts. Clients use it to play an exit animation.
	DeleteDelay time.Duration `mapstructure:"delete_delay"`
	HistoryPage int           `mapstructure:"history_page"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.cors_origin", "*")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "parley")
	viper.SetDefault("database.password", "parley_dev_password")
	viper.SetDefault("database.name", "parley")
	viper.SetDefault("auth.jwt_secret", "dev-secret-change-me")
	viper.SetDefault("auth.token_ttl", "24h")
	viper.SetDefault("message.delete_delay", "300ms")
	viper.SetDefault("message.history_page", 50)

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.cors_origin", "CORS_ORIGIN")
	_ = viper.BindEnv("database.host", "DB_HOST")
	_ = viper.BindEnv("database.port", "DB_PORT")
	_ = viper.BindEnv("database.user", "DB_USER")
	_ = viper.BindEnv("database.password", "DB_PASSWORD")
	_ = viper.BindEnv("database.name", "DB_NAME")
	_ = viper.BindEnv("auth.jwt_secret", "JWT_SECRET")
	_ = viper.BindEnv("auth.token_ttl", "TOKEN_TTL")
	_ = viper.BindEnv("message.delete_delay", "MESSAGE_DELETE_DELAY")
	_ = viper.BindEnv("message.history_page", "MESSAGE_HISTORY_PAGE")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
