package config

import (
	"errors"
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Port           int           `yaml:"port" validate:"required,min=1,max=65535"`
	Storage        string        `yaml:"storage" validate:"required,oneof=postgres memory"`
	LogLevel       string        `yaml:"log_level"`
	LogJSON        bool          `yaml:"log_json"`
	SecureHeaders  bool          `yaml:"secure_headers"` // adds HSTS, enable only behind https
	AllowedOrigins []string      `yaml:"allowed_origins"`
	BcryptCost     int           `yaml:"bcrypt_cost" validate:"omitempty,min=4,max=31"`
	BoardCacheTTL  time.Duration `yaml:"board_cache_ttl"` // zero disables the board listing cache
	RequestTimeout time.Duration `yaml:"request_timeout" validate:"required"`
}

type Private struct {
	Pg    Pg    `yaml:"pg"`
	Redis Redis `yaml:"redis"`
}

type Pg struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// Environment variables that override private settings. They may also be
// placed in a .env file inside the config folder.
const (
	envPgHost        = "MSGBOARD_PG_HOST"
	envPgPort        = "MSGBOARD_PG_PORT"
	envPgUser        = "MSGBOARD_PG_USER"
	envPgPassword    = "MSGBOARD_PG_PASSWORD"
	envPgDbname      = "MSGBOARD_PG_DBNAME"
	envRedisAddr     = "MSGBOARD_REDIS_ADDR"
	envRedisPassword = "MSGBOARD_REDIS_PASSWORD"
)

func (c *Config) CacheEnabled() bool {
	return c.Public.BoardCacheTTL > 0 && c.Private.Redis.Addr != ""
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file")
	}

	if err := yaml.Unmarshal(configFile, output); err != nil {
		panic("can't unmarshal config file: " + err.Error())
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder, applies
// environment overrides and validates the result. It panics on any problem.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	cfg := &Config{Public: public, Private: private}
	if err := applyEnv(path.Join(configFolder, ".env"), &cfg.Private); err != nil {
		panic(err.Error())
	}
	if err := cfg.Validate(); err != nil {
		panic("invalid config: " + err.Error())
	}
	return cfg
}

func applyEnv(envFile string, p *Private) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("can't load env file: %w", err)
	}

	setString := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString(envPgHost, &p.Pg.Host)
	setString(envPgUser, &p.Pg.User)
	setString(envPgPassword, &p.Pg.Password)
	setString(envPgDbname, &p.Pg.Dbname)
	setString(envRedisAddr, &p.Redis.Addr)
	setString(envRedisPassword, &p.Redis.Password)

	if v, ok := os.LookupEnv(envPgPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s must be an integer", envPgPort)
		}
		p.Pg.Port = port
	}
	return nil
}

func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c.Public); err != nil {
		return err
	}
	if c.Public.Storage == StoragePostgres {
		pg := c.Private.Pg
		if pg.Host == "" || pg.Port == 0 || pg.User == "" || pg.Dbname == "" {
			return errors.New("pg host, port, user and dbname are required for postgres storage")
		}
	}
	return nil
}
