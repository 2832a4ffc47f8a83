package config

import (
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	RepositoryMongo    = "mongodb"
	RepositoryPostgres = "postgres"
	RepositoryInMemory = "inmemory"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	MongoDB    MongoDBConfig    `mapstructure:"mongodb" yaml:"mongodb"`
	Postgres   PostgresConfig   `mapstructure:"postgres" yaml:"postgres"`
	Repository RepositoryConfig `mapstructure:"repository" yaml:"repository"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	CORS       CORSConfig       `mapstructure:"cors" yaml:"cors"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Telemetry  TelemetryConfig  `mapstructure:"telemetry" yaml:"telemetry"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port" validate:"gt=0,lt=65536"`
	Host            string        `mapstructure:"host" yaml:"host"`
	RateLimit       int           `mapstructure:"rate_limit" yaml:"rate_limit" validate:"gte=0"` // запросов в минуту с одного IP, 0 - без ограничений
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"gt=0"`
}

type MongoDBConfig struct {
	URI            string        `mapstructure:"uri" yaml:"uri"`
	Database       string        `mapstructure:"database" yaml:"database" validate:"required"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout" yaml:"connect_timeout" validate:"gt=0"`
}

type PostgresConfig struct {
	URL            string        `mapstructure:"url" yaml:"url"`
	MaxConnections int32         `mapstructure:"max_connections" yaml:"max_connections" validate:"gt=0"`
	MinConnections int32         `mapstructure:"min_connections" yaml:"min_connections" validate:"gte=0"`
	IdleTimeout    time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout" validate:"gt=0"`
}

type RepositoryConfig struct {
	Type string `mapstructure:"type" yaml:"type" validate:"oneof=mongodb postgres inmemory"`
}

type CacheConfig struct {
	Enabled       bool          `mapstructure:"enabled" yaml:"enabled"`
	RedisAddr     string        `mapstructure:"redis_addr" yaml:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password" yaml:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db" yaml:"redis_db" validate:"gte=0"`
	TTL           time.Duration `mapstructure:"ttl" yaml:"ttl" validate:"gte=0"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins" validate:"min=1,dive,required"`
}

type LoggingConfig struct {
	Development bool   `mapstructure:"development" yaml:"development"`
	Level       string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
}

// TelemetryConfig: спаны HTTP запросов пишутся в лог
type TelemetryConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.host", "")
	v.SetDefault("server.rate_limit", 600)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("mongodb.uri", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "taskManagement")
	v.SetDefault("mongodb.connect_timeout", 10*time.Second)

	v.SetDefault("postgres.url", "")
	v.SetDefault("postgres.max_connections", 10)
	v.SetDefault("postgres.min_connections", 2)
	v.SetDefault("postgres.idle_timeout", 5*time.Minute)

	v.SetDefault("repository.type", RepositoryMongo)

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("cache.ttl", 30*time.Second)

	v.SetDefault("cors.allowed_origins", []string{"https://task-management-f9389.web.app"})

	v.SetDefault("logging.development", false)
	v.SetDefault("logging.level", "info")

	v.SetDefault("telemetry.enabled", false)
}

// Load читает config.yml из рабочей директории, если он есть. Переменные окружения важнее файла.
func Load() (*Config, error) {
	return load(func(v *viper.Viper) {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	})
}

// LoadFile - то же, что Load, но с явным путём к файлу
func LoadFile(path string) (*Config, error) {
	return load(func(v *viper.Viper) {
		v.SetConfigFile(path)
	})
}

func load(locate func(*viper.Viper)) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	locate(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("чтение файла конфигурации: %w", err)
		}
	}
	if used := v.ConfigFileUsed(); used != "" {
		if err := checkKeys(used); err != nil {
			return nil, err
		}
	}

	v.SetEnvPrefix("TASKS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// PORT и MONGODB_URI остались от прежнего деплоя
	bindEnvs := []struct {
		key     string
		envVars []string
	}{
		{"server.port", []string{"TASKS_SERVER_PORT", "PORT"}},
		{"mongodb.uri", []string{"TASKS_MONGODB_URI", "MONGODB_URI"}},
		{"postgres.url", []string{"TASKS_POSTGRES_URL", "DATABASE_URL"}},
		{"cors.allowed_origins", []string{"TASKS_CORS_ALLOWED_ORIGINS"}},
	}
	for _, env := range bindEnvs {
		if err := v.BindEnv(append([]string{env.key}, env.envVars...)...); err != nil {
			return nil, fmt.Errorf("привязка переменной окружения %s: %w", env.key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("разбор конфигурации: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// checkKeys отклоняет файл с неизвестными ключами, viper их молча пропускает
func checkKeys(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("не могу открыть %s: %w", path, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var cfg Config
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("ошибка парсинга %s: %w", path, err)
	}
	return nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("проверка конфигурации: %w", err)
	}

	switch c.Repository.Type {
	case RepositoryMongo:
		if c.MongoDB.URI == "" {
			return errors.New("проверка конфигурации: mongodb.uri обязателен для репозитория mongodb")
		}
	case RepositoryPostgres:
		if c.Postgres.URL == "" {
			return errors.New("проверка конфигурации: postgres.url обязателен для репозитория postgres")
		}
		if c.Postgres.MinConnections > c.Postgres.MaxConnections {
			return errors.New("проверка конфигурации: postgres.min_connections больше max_connections")
		}
	}

	if c.Cache.Enabled && c.Cache.RedisAddr == "" {
		return errors.New("проверка конфигурации: cache.redis_addr обязателен при включённом кэше")
	}
	return nil
}

func (c *Config) GetServerAddr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}
