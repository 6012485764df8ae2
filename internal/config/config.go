package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	StorageMemory = "memory"
	StorageRedis  = "redis"
)

var ErrUnknownStorage = errors.New("unknown accounts storage")

type Config struct {
	LogLevel string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTP     HTTP     `yaml:"http"`
	Accounts Accounts `yaml:"accounts"`
	Redis    Redis    `yaml:"redis"`
	Bus      Bus      `yaml:"bus"`
}

type HTTP struct {
	Port           string        `yaml:"port" env:"HTTP_PORT" env-default:"9090"`
	ReadTimeout    time.Duration `yaml:"read-timeout" env:"HTTP_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout   time.Duration `yaml:"write-timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout    time.Duration `yaml:"idle-timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"30s"`
	HandlerTimeout time.Duration `yaml:"handler-timeout" env:"HTTP_HANDLER_TIMEOUT" env-default:"5s"`
}

type Accounts struct {
	Storage string `yaml:"storage" env:"ACCOUNTS_STORAGE" env-default:"memory"`
}

type Redis struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port     string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Bus struct {
	Enabled        bool   `yaml:"enabled" env:"BUS_ENABLED" env-default:"false"`
	RequestChannel string `yaml:"request-channel" env:"BUS_REQUEST_CHANNEL" env-default:"tictactoe:requests"`
	ReplyChannel   string `yaml:"reply-channel" env:"BUS_REPLY_CHANNEL" env-default:"tictactoe:replies"`
	Prefix         string `yaml:"prefix" env:"BUS_PREFIX" env-default:"!ttt "`
}

// Load reads the config file at path with environment overrides. A missing file means env-only.
func Load(path string) (*Config, error) {
	config := &Config{}

	var err error
	if Exists(path) {
		err = cleanenv.ReadConfig(path, config)
	} else {
		err = cleanenv.ReadEnv(config)
	}

	if err != nil {
		return nil, fmt.Errorf("unable to load config: %w", err)
	}

	if err = config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func (that *Config) validate() error {
	if that.Accounts.Storage != StorageMemory && that.Accounts.Storage != StorageRedis {
		return fmt.Errorf("%w: %q", ErrUnknownStorage, that.Accounts.Storage)
	}

	return nil
}

// NeedsRedis reports whether any enabled component talks to Redis.
func (that *Config) NeedsRedis() bool {
	return that.Bus.Enabled || that.Accounts.Storage == StorageRedis
}

func (that *Redis) GetRedisAddr() string {
	return net.JoinHostPort(that.Host, that.Port)
}

// Exists reports whether a config file is present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
