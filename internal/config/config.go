// Package config предоставляет структуры и функции для загрузки конфигурации сервиса доступа.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	Entitlement             `yaml:"entitlement"`
	CircuitBreaker          `yaml:"circuit_breaker"`
	RateLimit               `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis.
// Пустой адрес означает работу без redis: версии и решения хранятся в памяти процесса.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для проверки jwt-токенов.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"1h"`
}

// RabbitMQ настройки очереди событий инвалидации. Пустой URL отключает консьюмера.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"rabbitmq_url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
	Exchange           string        `yaml:"exchange" env-default:"entitlements"`
	Queue              string        `yaml:"queue" env-default:"entitlements.invalidate"`
}

// Entitlement настройки кеша решений и загрузки снимков.
type Entitlement struct {
	DecisionTTL   time.Duration `yaml:"decision_ttl" env-default:"5m"`
	RefreshAhead  time.Duration `yaml:"refresh_ahead" env-default:"1m"`
	LoadTimeout   time.Duration `yaml:"load_timeout" env-default:"2s"`
	PruneInterval time.Duration `yaml:"prune_interval" env-default:"1m"`
}

// CircuitBreaker настройки предохранителя вокруг хранилища.
type CircuitBreaker struct {
	MaxRequests      uint32        `yaml:"max_requests" env-default:"1"`
	Interval         time.Duration `yaml:"interval" env-default:"30s"`
	Timeout          time.Duration `yaml:"timeout" env-default:"10s"`
	FailureThreshold uint32        `yaml:"failure_threshold" env-default:"5"`
}

// RateLimit настройки ограничителя запросов.
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"50"`
	Burst int     `yaml:"burst" env-default:"100"`
}

// MustLoad загружает конфиг из файла CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг по указанному пути.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: cannot read config: %w", op, err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.StorageConnectionString == "" {
		return fmt.Errorf("storage_connection_string is required")
	}
	if c.DecisionTTL <= 0 {
		return fmt.Errorf("entitlement.decision_ttl must be positive")
	}
	if c.RefreshAhead < 0 || c.RefreshAhead >= c.DecisionTTL {
		return fmt.Errorf("entitlement.refresh_ahead must be in [0, decision_ttl)")
	}
	if c.LoadTimeout <= 0 {
		return fmt.Errorf("entitlement.load_timeout must be positive")
	}
	return nil
}

// String печатает конфиг без секретов.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"Redis: %s (db %d)\n"+
			"HTTPServer: %s timeout=%s idle=%s\n"+
			"RabbitMQ: enabled=%t exchange=%s queue=%s\n"+
			"Entitlement: ttl=%s refresh_ahead=%s load_timeout=%s\n",
		c.Env,
		c.AddressRedis, c.DB,
		c.AddressHTTP, c.TimeoutHTTP, c.IdleTimeout,
		c.RabbitMQURL != "", c.Exchange, c.Queue,
		c.DecisionTTL, c.RefreshAhead, c.LoadTimeout,
	)
}
