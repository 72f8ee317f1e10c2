package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTP     HTTPConfig
	Storage  StorageConfig
	Discord  DiscordConfig
	Workflow WorkflowConfig
}

type HTTPConfig struct {
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}

func (h HTTPConfig) Addr() string {
	return ":" + h.Port
}

type StorageConfig struct {
	Type     string `env:"STORAGE_TYPE" envDefault:"postgres"`
	Postgres PostgresConfig
}

type PostgresConfig struct {
	Host     string `env:"DB_HOST" envDefault:"postgres"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"teambot"`
	Password string `env:"DB_PASSWORD" envDefault:"teambot"`
	DBName   string `env:"DB_NAME" envDefault:"teambot"`
	SSLMode  string `env:"DB_SSL_MODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"4"`
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

type DiscordConfig struct {
	Token          string `env:"DISCORD_TOKEN,required"`
	GuildID        string `env:"DISCORD_GUILD_ID,required"`
	AdminChannelID string `env:"ADMIN_CHANNEL_ID,required"`
	ClientRole     string `env:"CLIENT_ROLE" envDefault:"Client"`
}

type WorkflowConfig struct {
	PromptWindow  time.Duration `env:"PROMPT_WINDOW" envDefault:"60s"`
	DeveloperRole string        `env:"DEVELOPER_ROLE" envDefault:"Developer"`
	ModeratorRole string        `env:"MODERATOR_ROLE" envDefault:"Mod"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
