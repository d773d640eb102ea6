package main

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type config struct {
	APIURL          string        `yaml:"api_url" env:"API_URL" env-default:"http://localhost:3000"`
	APITimeout      time.Duration `yaml:"api_timeout" env:"API_TIMEOUT" env-default:"10s"`
	ChatWebhookURL  string        `yaml:"chat_webhook_url" env:"CHAT_WEBHOOK_URL"`
	StepsWebhookURL string        `yaml:"steps_webhook_url" env:"STEPS_WEBHOOK_URL"`
	WebhookTimeout  time.Duration `yaml:"webhook_timeout" env:"WEBHOOK_TIMEOUT" env-default:"30s"`
	NotifyDelay     time.Duration `yaml:"notify_delay" env:"NOTIFY_DELAY" env-default:"1s"`
	SessionFile     string        `yaml:"session_file" env:"SESSION_FILE" env-default:".todo-session.json"`
	LogLevel        string        `yaml:"log_level" env:"LOG_LEVEL" env-default:"ERROR"`
}

func mustLoadConfig(path string) config {
	_ = godotenv.Load()

	var cfg config
	if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		var pe *os.PathError
		if !errors.As(err, &pe) {
			log.Fatalf("cannot read config %q: %s", path, err)
		}
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read env: %s", err)
		}
	}
	return cfg
}
