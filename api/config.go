package main

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type dbConfig struct {
	Driver       string        `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	DSN          string        `yaml:"dsn" env:"DB_DSN"`
	MaxOpenConns int           `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	MaxIdleConns int           `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"25"`
	MaxIdleTime  time.Duration `yaml:"max_idle_time" env:"DB_MAX_IDLE_TIME" env-default:"15m"`
}

type smtpConfig struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"25"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	Sender   string `yaml:"sender" env:"SMTP_SENDER" env-default:"Todo <no-reply@todo.local>"`
}

type limiterConfig struct {
	Enabled             bool    `yaml:"enabled" env:"LIMITER_ENABLED" env-default:"true"`
	MaxRequestPerSecond float64 `yaml:"rps" env:"LIMITER_RPS" env-default:"4"`
	Burst               int     `yaml:"burst" env:"LIMITER_BURST" env-default:"8"`
}

type corsConfig struct {
	TrustedOrigins []string `yaml:"trusted_origins" env:"CORS_TRUSTED_ORIGINS" env-separator:"," env-default:"http://localhost:3000"`
}

type config struct {
	Port           int           `yaml:"port" env:"PORT" env-default:"3000"`
	Env            string        `yaml:"env" env:"APP_ENV" env-default:"development"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"INFO"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT" env-default:"5s"`

	DB      dbConfig      `yaml:"db"`
	SMTP    smtpConfig    `yaml:"smtp"`
	Limiter limiterConfig `yaml:"limiter"`
	CORS    corsConfig    `yaml:"cors"`
}

// mustLoadConfig reads .env, then the YAML file at path, falling back to the
// environment alone when the file does not exist.
func mustLoadConfig(path string) config {
	_ = godotenv.Load()

	var cfg config
	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
		return cfg
	}

	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if errors.As(err, &pe) {
			if err := cleanenv.ReadEnv(&cfg); err != nil {
				log.Fatalf("cannot read env: %s", err)
			}
			return cfg
		}
		log.Fatalf("cannot read config %q: %s", path, err)
	}
	return cfg
}
