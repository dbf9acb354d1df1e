package shared

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

const EnvPrefix = "HOTELSTAY"

type Config struct {
	AppEnv      string `envconfig:"APP_ENV" default:"prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:"127.0.0.1:8787"`
	AllowRemote bool   `envconfig:"HTTP_ALLOW_REMOTE" default:"false"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	// durable storage
	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"sqlite"` // sqlite|mysql|redis|memory
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"./data/hotelstay.db"`
	MySQLDSN      string `envconfig:"MYSQL_DSN" default:"root:root@tcp(localhost:3306)/hotelstay?parseTime=true&charset=utf8mb4,utf8&loc=UTC"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPass     string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"hotelstay"`
	DeviceSecret  string `envconfig:"DEVICE_SECRET"`

	// remote API
	APIBase    string        `envconfig:"API_BASE_URL"`
	APIRPS     int           `envconfig:"API_RPS" default:"5"`
	APITimeout time.Duration `envconfig:"API_TIMEOUT" default:"20s"`

	PersistTimeout   time.Duration `envconfig:"PERSIST_TIMEOUT" default:"5s"`
	BootstrapWorkers int           `envconfig:"BOOTSTRAP_WORKERS" default:"4"`
}

// Load reads an optional .env file (path in HOTELSTAY_ENV_FILE, default ".env")
// and then the environment.
func Load() (Config, error) {
	envFile := os.Getenv(EnvPrefix + "_ENV_FILE")
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("loading %s: %w", envFile, err)
	}

	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}
	switch c.StorageDriver {
	case "sqlite", "mysql", "redis", "memory":
	default:
		return Config{}, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.BootstrapWorkers <= 0 {
		c.BootstrapWorkers = 1
	}
	if c.DeviceSecret == "" {
		log.Warn().Msg("HOTELSTAY_DEVICE_SECRET is empty; protected storage uses an insecure default key")
	}
	if c.APIBase == "" {
		log.Warn().Msg("HOTELSTAY_API_BASE_URL is empty; remote refresh is disabled")
	}
	return c, nil
}

func (c Config) IsDev() bool { return c.AppEnv == "dev" || c.AppEnv == "development" }
