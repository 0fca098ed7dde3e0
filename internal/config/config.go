package config

import (
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"bookstore/package/logger"
)

const defaultPath = "config.yml"

type Config struct {
	IsDebug   *bool         `yaml:"is_debug" env:"IS_DEBUG" env-required:"true"`
	LogFormat string        `yaml:"log_format" env:"LOG_FORMAT" env-default:"text"`
	Listen    Listener      `yaml:"listen"`
	Storage   StorageConfig `yaml:"storage"`
	Key       JWTSecretKey  `yaml:"authorization"`
	Metrics   MetricsConfig `yaml:"metrics"`
}

type Listener struct {
	BindIp          string        `yaml:"bind_ip" env:"BIND_IP" env-default:"127.0.0.1"`
	Port            string        `yaml:"port" env:"PORT" env-default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env-default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env-default:"15s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

// StorageConfig selects the backend holding the JSON document.
// Type is one of file, postgres, sqlite or redis.
type StorageConfig struct {
	Type     string        `yaml:"type" env:"STORAGE_TYPE" env-default:"file"`
	Path     string        `yaml:"path" env:"STORAGE_PATH" env-default:"data/bookstore.json"`
	Pretty   bool          `yaml:"pretty" env:"STORAGE_PRETTY" env-default:"true"`
	Document string        `yaml:"document" env:"STORAGE_DOCUMENT" env-default:"bookstore"`
	Timeout  time.Duration `yaml:"timeout" env-default:"5s"`

	Host     string `yaml:"host" env:"STORAGE_HOST"`
	Port     int    `yaml:"port" env:"STORAGE_PORT" env-default:"5432"`
	Database string `yaml:"database" env:"STORAGE_DATABASE"`
	Username string `yaml:"username" env:"STORAGE_USERNAME"`
	Password string `yaml:"password" env:"STORAGE_PASSWORD"`
	SSLMode  string `yaml:"sslmode" env:"STORAGE_SSLMODE" env-default:"disable"`

	RedisAddr     string `yaml:"redis_addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
	RedisPassword string `yaml:"redis_password" env:"REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"REDIS_DB"`
}

type JWTSecretKey struct {
	SecretKey  string        `yaml:"key" env:"JWT_SECRET" env-required:"true"`
	TokenTTL   time.Duration `yaml:"token_ttl" env-default:"24h"`
	LoginRate  float64       `yaml:"login_rate" env-default:"1"`
	LoginBurst int           `yaml:"login_burst" env-default:"5"`
}

type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"true"`
	Path    string `yaml:"path" env-default:"/metrics"`
}

func (c *Config) Debug() bool {
	return c.IsDebug != nil && *c.IsDebug
}

var instance *Config
var once sync.Once

// GetConfig reads the configuration once per process and exits when it is
// unusable.
func GetConfig() *Config {
	once.Do(func() {
		logger.Log.Info("Reading app configuration")
		path := os.Getenv("CONFIG_PATH")
		if path == "" {
			path = defaultPath
		}
		cfg, err := Load(path)
		if err != nil {
			help, _ := cleanenv.GetDescription(&Config{}, nil)
			logger.Log.Error(help)
			logger.Log.Fatal(err)
		}
		instance = cfg
	})
	return instance
}

// Load reads the YAML file at path, applying variables from a .env file in
// the working directory first when one exists.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg := &Config{}
	if err := cleanenv.ReadConfig(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
