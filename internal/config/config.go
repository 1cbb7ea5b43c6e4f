// Package config содержит функции для загрузки конфигурации приложения
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Режимы проверки подписи вебхука
const (
	SignatureModeSecret = "secret"
	SignatureModeHMAC   = "hmac"
)

// Заголовки подписи по умолчанию
const (
	DefaultSecretHeader = "X-Webhook-Secret"
	DefaultHMACHeader   = "X-Supabase-Signature"
)

// DefaultSignatureHeader заголовок, который проверяется в указанном режиме
func DefaultSignatureHeader(mode string) string {
	if mode == SignatureModeHMAC {
		return DefaultHMACHeader
	}
	return DefaultSecretHeader
}

// Хранилища состояний каруселей
const (
	StateStoreMemory = "memory"
	StateStoreSQLite = "sqlite"
)

// Config структура для хранения конфигурации приложения.
// Создается один раз при старте и передается компонентам явно.
type Config struct {
	DiscordToken string `yaml:"discord_token" mapstructure:"discord_token"`
	ChannelID    string `yaml:"channel_id" mapstructure:"channel_id"`

	ListenPort      int    `yaml:"listen_port" mapstructure:"listen_port"`
	WebhookPath     string `yaml:"webhook_path" mapstructure:"webhook_path"`
	WebhookSecret   string `yaml:"webhook_secret" mapstructure:"webhook_secret"`
	SignatureMode   string `yaml:"signature_mode" mapstructure:"signature_mode"`
	SignatureHeader string `yaml:"signature_header" mapstructure:"signature_header"`

	ProfileBaseURL string `yaml:"profile_base_url" mapstructure:"profile_base_url"`
	ProfileAPIKey  string `yaml:"profile_api_key" mapstructure:"profile_api_key"`
	ProfileTable   string `yaml:"profile_table" mapstructure:"profile_table"`

	DashboardURL string `yaml:"dashboard_url" mapstructure:"dashboard_url"`
	EnrichTracks bool   `yaml:"enrich_tracks" mapstructure:"enrich_tracks"`

	StateStore string `yaml:"state_store" mapstructure:"state_store"`
	StatePath  string `yaml:"state_path" mapstructure:"state_path"`

	AwsBucketName string `yaml:"aws_bucket_name" mapstructure:"aws_bucket_name"`
	AwsAccessKey  string `yaml:"aws_access_key" mapstructure:"aws_access_key"`
	AwsSecretKey  string `yaml:"aws_secret_key" mapstructure:"aws_secret_key"`
	AwsRegion     string `yaml:"aws_region" mapstructure:"aws_region"`
	AwsEndpoint   string `yaml:"aws_endpoint" mapstructure:"aws_endpoint"`
	ArchivePrefix string `yaml:"archive_prefix" mapstructure:"archive_prefix"`

	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
}

// Переменные окружения для каждого ключа. Первая найденная побеждает.
var envBindings = map[string][]string{
	"discord_token":    {"DISCORD_BOT_TOKEN"},
	"channel_id":       {"TARGET_CHANNEL_ID"},
	"listen_port":      {"WEBHOOK_PORT", "PORT"},
	"webhook_path":     {"WEBHOOK_PATH"},
	"webhook_secret":   {"WEBHOOK_SECRET", "SUPABASE_JWT_SECRET"},
	"signature_mode":   {"WEBHOOK_SIGNATURE_MODE"},
	"signature_header": {"WEBHOOK_SIGNATURE_HEADER"},
	"profile_base_url": {"SUPABASE_URL"},
	"profile_api_key":  {"SUPABASE_SERVICE_KEY", "SUPABASE_KEY"},
	"profile_table":    {"PROFILE_TABLE"},
	"dashboard_url":    {"DASHBOARD_URL"},
	"enrich_tracks":    {"ENRICH_TRACKS"},
	"state_store":      {"STATE_STORE"},
	"state_path":       {"STATE_PATH"},
	"aws_bucket_name":  {"AWS_BUCKET_NAME"},
	"aws_access_key":   {"AWS_ACCESS_KEY"},
	"aws_secret_key":   {"AWS_SECRET_KEY"},
	"aws_region":       {"AWS_REGION"},
	"aws_endpoint":     {"AWS_ENDPOINT"},
	"archive_prefix":   {"ARCHIVE_PREFIX"},
	"log_level":        {"LOG_LEVEL"},
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		ListenPort:    8080,
		WebhookPath:   "/webhook",
		SignatureMode: SignatureModeSecret,
		ProfileTable:  "profiles",
		StateStore:    StateStoreMemory,
		StatePath:     "~/.relay/carousels.db",
		AwsRegion:     "us-east-1",
		ArchivePrefix: "webhooks",
		LogLevel:      "info",
	}
}

// LoadConfig загружает конфигурацию из файла (если он есть) и переменных окружения.
// Переменные окружения имеют приоритет над файлом.
func LoadConfig(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	defaults := Default()
	setDefaults(v, defaults)

	for key, envs := range envBindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return nil, fmt.Errorf("ошибка привязки переменной окружения %s: %w", key, err)
		}
	}

	if filePath != "" {
		path := ExpandHome(filePath)
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("ошибка чтения файла конфигурации yaml: %w", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, err
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("ошибка разбора конфигурации: %w", err)
	}

	// Раскрываем тильду в пути базы состояний
	config.StatePath = ExpandHome(config.StatePath)
	config.WebhookPath = "/" + strings.TrimLeft(config.WebhookPath, "/")
	config.SignatureMode = strings.ToLower(strings.TrimSpace(config.SignatureMode))
	config.StateStore = strings.ToLower(strings.TrimSpace(config.StateStore))
	if config.SignatureHeader == "" {
		config.SignatureHeader = DefaultSignatureHeader(config.SignatureMode)
	}

	return config, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("listen_port", d.ListenPort)
	v.SetDefault("webhook_path", d.WebhookPath)
	v.SetDefault("signature_mode", d.SignatureMode)
	v.SetDefault("profile_table", d.ProfileTable)
	v.SetDefault("state_store", d.StateStore)
	v.SetDefault("state_path", d.StatePath)
	v.SetDefault("aws_region", d.AwsRegion)
	v.SetDefault("archive_prefix", d.ArchivePrefix)
	v.SetDefault("log_level", d.LogLevel)
}

// Validate проверяет, что заданы все обязательные параметры
func (c *Config) Validate() error {
	var errs []error

	if c.DiscordToken == "" {
		errs = append(errs, errors.New("не задан discord_token (DISCORD_BOT_TOKEN)"))
	}
	if c.ChannelID == "" {
		errs = append(errs, errors.New("не задан channel_id (TARGET_CHANNEL_ID)"))
	}
	if c.WebhookSecret == "" {
		errs = append(errs, errors.New("не задан webhook_secret (WEBHOOK_SECRET)"))
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		errs = append(errs, fmt.Errorf("некорректный listen_port: %d", c.ListenPort))
	}
	if c.SignatureMode != SignatureModeSecret && c.SignatureMode != SignatureModeHMAC {
		errs = append(errs, fmt.Errorf("неизвестный signature_mode: %q", c.SignatureMode))
	}
	if c.StateStore != StateStoreMemory && c.StateStore != StateStoreSQLite {
		errs = append(errs, fmt.Errorf("неизвестный state_store: %q", c.StateStore))
	}
	if (c.ProfileBaseURL == "") != (c.ProfileAPIKey == "") {
		errs = append(errs, errors.New("profile_base_url и profile_api_key задаются вместе"))
	}

	return errors.Join(errs...)
}

// ProfileEnabled настроен ли поиск профилей
func (c *Config) ProfileEnabled() bool {
	return c.ProfileBaseURL != "" && c.ProfileAPIKey != ""
}

// ArchiveEnabled настроен ли архив вебхуков в S3
func (c *Config) ArchiveEnabled() bool {
	return c.AwsBucketName != ""
}

// Addr адрес для HTTP сервера
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.ListenPort)
}

// WriteSample записывает пример конфигурации в файл
func WriteSample(filePath string) error {
	path := ExpandHome(filePath)

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("файл уже существует: %s", path)
	}

	sample := Default()
	sample.DiscordToken = "your-bot-token"
	sample.ChannelID = "123456789012345678"
	sample.WebhookSecret = "change-me"

	data, err := yaml.Marshal(sample)
	if err != nil {
		return fmt.Errorf("ошибка сериализации конфигурации: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ошибка создания директории: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ExpandHome раскрывает тильду в начале пути
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
