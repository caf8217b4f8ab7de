// Package config предоставляет структуры и функции для парсинга и загрузки конфига.
// Некорректные значения лимитов и окон считаются фатальной ошибкой запуска,
// а не ошибкой времени обработки запроса.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-playground/validator"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" validate:"required"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Access                  `yaml:"access"`
	RateLimits              `yaml:"rate_limits"`
}

// HTTPServer структура для настройки сервера.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" validate:"required"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" validate:"required"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" validate:"required"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// Access описывает политику разрешения уровней доступа.
// ExemptEmails — статический список адресов с пожизненным полным доступом,
// сравнение выполняется без учёта регистра. DemoRoutes — публичные маршруты,
// доступные без подписки; суффикс "*" задаёт совпадение по префиксу.
type Access struct {
	ExemptEmails  []string      `yaml:"exempt_emails"`
	DemoRoutes    []string      `yaml:"demo_routes"`
	TrialDuration time.Duration `yaml:"trial_duration" validate:"required,gt=0"`
	LookupTimeout time.Duration `yaml:"lookup_timeout" validate:"required,gt=0"`
	LoginPath     string        `yaml:"login_path" validate:"required"`
	UpgradePath   string        `yaml:"upgrade_path" validate:"required"`
}

// RatePolicy задаёт лимит запросов в скользящем окне для класса маршрутов.
type RatePolicy struct {
	Limit  int           `yaml:"limit" validate:"required,gt=0"`
	Window time.Duration `yaml:"window" validate:"required,gt=0"`
}

// RateLimits описывает пресеты ограничения частоты запросов и параметры
// блокировки. BlockDuration — фиксированный штрафной период после превышения
// лимита, не зависящий от окна подсчёта.
type RateLimits struct {
	General           RatePolicy    `yaml:"general"`
	Auth              RatePolicy    `yaml:"auth"`
	User              RatePolicy    `yaml:"user"`
	BlockDuration     time.Duration `yaml:"block_duration" validate:"required,gt=0"`
	CleanupInterval   time.Duration `yaml:"cleanup_interval" validate:"required,gt=0"`
	StaleAfter        time.Duration `yaml:"stale_after" validate:"required,gt=0"`
	TrustForwardedFor bool          `yaml:"trust_forwarded_for"`
}

// Load читает конфиг из файла и проверяет корректность значений.
func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: file %s does not exist", op, configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг по пути из CONFIG_PATH и аварийно завершает
// процесс при любой ошибке конфигурации.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot load config: %s", err)
	}
	return cfg
}
