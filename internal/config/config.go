// Package config описывает настройки сервисов и загружает их из YAML-файла
// (путь в CONFIG_PATH) с переопределением через переменные окружения.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура настроек для всех бинарников.
type Config struct {
	Env                     string          `yaml:"env" env:"ENV" env-default:"local"`
	GRPCAuthAddress         string          `yaml:"grpc_auth_address" env:"GRPC_AUTH_ADDRESS"`
	StorageConnectionString string          `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING" env-required:"true"`
	MigrationsPath          string          `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	HTTPServer              HTTPServer      `yaml:"http_server"`
	GRPCServer              GRPCServer      `yaml:"grpc_server"`
	RedisConnection         RedisConnection `yaml:"redis_connection"`
	JWTToken                JWTToken        `yaml:"jwttoken"`
	RabbitMQ                RabbitMQ        `yaml:"rabbitmq"`
	SMTP                    SMTP            `yaml:"smtp"`
	S3                      S3              `yaml:"s3"`
	License                 License         `yaml:"license"`
	Gate                    Gate            `yaml:"gate"`
	Webhook                 Webhook         `yaml:"webhook"`
}

// HTTPServer настройки HTTP-сервера дашборда.
type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"15s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// GRPCServer настройки gRPC-сервера авторизации.
type GRPCServer struct {
	Address string `yaml:"address" env:"GRPC_ADDRESS" env-default:":50051"`
}

// RedisConnection настройки подключения к redis.
type RedisConnection struct {
	Address     string        `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD"`
	User        string        `yaml:"user" env:"REDIS_USER"`
	DB          int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries  int           `yaml:"max_retries" env-default:"3"`
	DialTimeout time.Duration `yaml:"dial_timeout" env-default:"5s"`
	Timeout     time.Duration `yaml:"timeout" env-default:"3s"`
}

// JWTToken настройки токенов сессии.
type JWTToken struct {
	SecretKey  string        `yaml:"secret_key" env:"JWT_SECRET_KEY" env-required:"true"`
	TokenTTL   time.Duration `yaml:"token_ttl" env-default:"24h"`
	BcryptCost int           `yaml:"bcrypt_cost" env-default:"10"`
}

// RabbitMQ настройки брокера уведомлений.
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	Retries    int           `yaml:"retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового сервера.
type SMTP struct {
	Host string `yaml:"host" env:"SMTP_HOST"`
	Port string `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	User string `yaml:"user" env:"SMTP_USER"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
}

// S3 настройки объектного хранилища квитанций.
type S3 struct {
	Endpoint  string        `yaml:"endpoint" env:"S3_ENDPOINT"`
	Bucket    string        `yaml:"bucket" env:"S3_BUCKET"`
	Region    string        `yaml:"region" env:"S3_REGION" env-default:"us-east-1"`
	AccessKey string        `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey string        `yaml:"secret_key" env:"S3_SECRET_KEY"`
	URLTTL    time.Duration `yaml:"url_ttl" env-default:"10m"`
}

// License настройки пробного периода.
type License struct {
	TrialPeriod   time.Duration `yaml:"trial_period" env-default:"168h"`
	CacheTTL      time.Duration `yaml:"cache_ttl" env-default:"5m"`
	ScanInterval  time.Duration `yaml:"scan_interval" env-default:"24h"`
	ExpiringAhead time.Duration `yaml:"expiring_ahead" env-default:"24h"`
}

// Gate настройки гейта защищённых маршрутов.
type Gate struct {
	ResolveTimeout time.Duration `yaml:"resolve_timeout" env-default:"10s"`
	LoginRoute     string        `yaml:"login_route" env-default:"/login"`
	HomeRoute      string        `yaml:"home_route" env-default:"/home"`
}

// Webhook настройки вебхука платёжного шлюза.
type Webhook struct {
	Secret string `yaml:"secret" env:"WEBHOOK_SECRET"`
}

// Load читает конфиг из файла path.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	if path == "" {
		return nil, fmt.Errorf("%s: %w", op, errors.New("CONFIG_PATH is not set"))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: file %s: %w", op, path, err)
	}
	var cfg Config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &cfg, nil
}

// MustLoad загружает конфиг из CONFIG_PATH и завершает процесс при ошибке.
func MustLoad() *Config {
	cfg, err := Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// String выводит конфиг без секретов.
// SecureCookies сообщает, ставить ли cookie с флагом Secure: везде, кроме local.
func (c *Config) SecureCookies() bool {
	return c.Env != "local"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"HTTP: %s (timeout %s)\n"+
			"GRPC: %s, auth client: %q\n"+
			"Redis: %s db=%d\n"+
			"S3: %s/%s\n"+
			"Trial period: %s\n"+
			"Gate: timeout %s, login %s\n",
		c.Env,
		c.HTTPServer.Address, c.HTTPServer.Timeout,
		c.GRPCServer.Address, c.GRPCAuthAddress,
		c.RedisConnection.Address, c.RedisConnection.DB,
		c.S3.Endpoint, c.S3.Bucket,
		c.License.TrialPeriod,
		c.Gate.ResolveTimeout, c.Gate.LoginRoute,
	)
}
