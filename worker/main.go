// Toggle worker. Consumes the jobs the interactions endpoint enqueued
// and runs the toggle pipeline: load record, flip status, append
// history, re-render, edit the message. Always returns nil so SQS
// never redelivers; the ack to Slack went out long ago and a failed
// toggle is logged, not retried.
package main

import (
	"context"
	"encoding/json"
	"log"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/slack-go/slack"

	"migrationbot"
	"migrationbot/store"
)

var service *migrationbot.Service

func init() {
	cfg, err := migrationbot.LoadConfig("SLACK_BOT_TOKEN", "DATABASE_URL")
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	st := store.NewPostgres(pool, migrationbot.Checklist)
	if err := st.EnsureSchema(ctx); err != nil {
		log.Fatal(err)
	}

	gw := migrationbot.NewGateway(slack.New(cfg.SlackToken))
	service, err = migrationbot.NewService(st, gw)
	if err != nil {
		log.Fatal(err)
	}
}

func handle(ctx context.Context, req events.SQSEvent) error {
	for _, record := range req.Records {
		var job migrationbot.ToggleJob
		if err := json.Unmarshal([]byte(record.Body), &job); err != nil {
			slog.Warn("dropping undecodable job", "message", record.MessageId, "error", err)
			continue
		}
		if err := service.HandleInteraction(ctx, job.Interaction()); err != nil {
			slog.Error("interaction handling failed", "job", job.ID, "error", err)
		}
	}
	return nil
}

func main() {
	lambda.Start(handle)
}
