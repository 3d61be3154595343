package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// FeedConfig — настройки конвейера синхронизации фида поставщика.
type FeedConfig struct {
	URL string `yaml:"url"`

	// RedirectLimit — сколько всего ответов допускается на одну загрузку
	// фида, считая исходный запрос. 0 — значение по умолчанию (6).
	RedirectLimit int `yaml:"redirect_limit"`

	// FallbackCurrency подставляется товарам без валюты в фиде.
	FallbackCurrency string `yaml:"fallback_currency"`

	// Charset принудительно задаёт кодировку документа; пусто — берётся
	// из XML декларации.
	Charset string `yaml:"charset"`

	// Workers — размер пула при записи товаров в хранилище.
	Workers int `yaml:"workers"`

	// RateLimit — предел upsert-операций в секунду; 0 — без ограничения.
	RateLimit int `yaml:"rate_limit"`

	// FetchTimeoutSeconds — таймаут загрузки документа фида.
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type AppConfig struct {
	Feed     FeedConfig     `yaml:"feed"`
	Server   ServerConfig   `yaml:"server"`
	Postgres PostgresConfig `yaml:"postgres"`
}

func LoadConfig(filename string) (*AppConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	config := &AppConfig{}
	if err := decoder.Decode(config); err != nil {
		return nil, err
	}
	config.applyDefaults()
	return config, nil
}

// GetAppConfig собирает конфигурацию из переменных окружения,
// когда yaml файл не задан.
func GetAppConfig() *AppConfig {
	config := &AppConfig{
		Feed: FeedConfig{
			URL:     getEnv("FEED_URL", ""),
			Charset: getEnv("FEED_CHARSET", ""),
		},
		Server: ServerConfig{
			Addr: getEnv("SERVER_ADDR", ":8080"),
		},
		Postgres: *GetPostgresConfig(),
	}
	config.applyDefaults()
	return config
}

func (c *AppConfig) applyDefaults() {
	if c.Feed.RedirectLimit <= 0 {
		c.Feed.RedirectLimit = 6
	}
	if c.Feed.FallbackCurrency == "" {
		c.Feed.FallbackCurrency = "TRY"
	}
	if c.Feed.Workers <= 0 {
		c.Feed.Workers = 4
	}
	if c.Feed.FetchTimeoutSeconds <= 0 {
		c.Feed.FetchTimeoutSeconds = 120
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Postgres.Host == "" {
		c.Postgres = *GetPostgresConfig()
	}
}
