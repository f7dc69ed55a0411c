package migrationbot

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config carries every environment setting the lambdas use. Each
// entrypoint names only the variables it actually needs.
type Config struct {
	SlackToken    string
	SigningSecret string
	QueueURL      string
	DatabaseURL   string
	Region        string
}

// LoadConfig reads the environment, after loading an optional .env
// file for local runs, and fails on any missing required variable.
func LoadConfig(required ...string) (*Config, error) {
	_ = godotenv.Load()

	values := map[string]string{
		"SLACK_BOT_TOKEN":      os.Getenv("SLACK_BOT_TOKEN"),
		"SLACK_SIGNING_SECRET": os.Getenv("SLACK_SIGNING_SECRET"),
		"QUEUE_URL":            os.Getenv("QUEUE_URL"),
		"DATABASE_URL":         os.Getenv("DATABASE_URL"),
		"AWS_REGION":           os.Getenv("AWS_REGION"),
	}
	for _, k := range required {
		if values[k] == "" {
			return nil, fmt.Errorf("invalid environment variable: %s", k)
		}
	}

	return &Config{
		SlackToken:    values["SLACK_BOT_TOKEN"],
		SigningSecret: values["SLACK_SIGNING_SECRET"],
		QueueURL:      values["QUEUE_URL"],
		DatabaseURL:   values["DATABASE_URL"],
		Region:        values["AWS_REGION"],
	}, nil
}
