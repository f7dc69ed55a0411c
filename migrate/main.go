// Creation endpoint. Accepts either the /migracion slash command
// (form-encoded, free-text key=value args) or a JSON body from
// internal tooling, and runs the creation path synchronously: unlike
// toggles, the caller is told when the send fails.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strings"

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

func handle(ctx context.Context, req events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error) {
	body := req.Body
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return respondError(http.StatusBadRequest, "invalid body encoding"), nil
		}
		body = string(decoded)
	}

	createReq, isSlash, errMsg := decodeRequest(req.Headers, body)
	if errMsg != "" {
		return respondError(http.StatusBadRequest, errMsg), nil
	}

	ref, err := service.CreateOrUpdate(ctx, createReq)
	if err != nil {
		var verr *migrationbot.ValidationError
		var rerr *migrationbot.RemoteError
		switch {
		case errors.As(err, &verr):
			return respondError(http.StatusBadRequest, verr.Error()), nil
		case errors.As(err, &rerr):
			log.Printf("slack send failed: %v", rerr)
			return respondError(http.StatusBadGateway, "error enviando mensaje a Slack"), nil
		default:
			log.Printf("creation failed: %v", err)
			return respondError(http.StatusInternalServerError, "error interno"), nil
		}
	}

	if isSlash {
		return respondText(":white_check_mark: Checklist enviada a <#" + ref.ChannelID + ">"), nil
	}
	return respondJSON(http.StatusOK, map[string]any{
		"ok":      true,
		"channel": ref.ChannelID,
		"ts":      ref.Timestamp,
	}), nil
}

func decodeRequest(headers map[string]string, body string) (req migrationbot.CreateRequest, isSlash bool, errMsg string) {
	contentType := headers["content-type"]
	if contentType == "" {
		contentType = headers["Content-Type"]
	}

	if strings.Contains(contentType, "application/x-www-form-urlencoded") {
		form, err := url.ParseQuery(body)
		if err != nil {
			return req, true, "invalid form body"
		}
		parsed, err := migrationbot.ParseCommandText(form.Get("text"), form.Get("user_id"))
		if err != nil {
			return req, true, err.Error()
		}
		return parsed, true, ""
	}

	if err := json.Unmarshal([]byte(body), &req); err != nil {
		return req, false, "invalid JSON body"
	}
	return req, false, ""
}

func respondText(body string) *events.APIGatewayProxyResponse {
	return &events.APIGatewayProxyResponse{
		Headers:    map[string]string{"Content-Type": "text"},
		Body:       body,
		StatusCode: http.StatusOK,
	}
}

func respondJSON(status int, payload map[string]any) *events.APIGatewayProxyResponse {
	body, _ := json.Marshal(payload)
	return &events.APIGatewayProxyResponse{
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(body),
		StatusCode: status,
	}
}

func respondError(status int, msg string) *events.APIGatewayProxyResponse {
	return respondJSON(status, map[string]any{"error": msg})
}

func main() {
	lambda.Start(handle)
}
