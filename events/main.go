// Events API endpoint. Slack only ever needs the url_verification
// challenge answered here; real work arrives through the interactions
// endpoint.
package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/slack-go/slack/slackevents"

	"migrationbot"
)

var cfg *migrationbot.Config

func init() {
	var err error
	cfg, err = migrationbot.LoadConfig("SLACK_SIGNING_SECRET")
	if err != nil {
		log.Fatal(err)
	}
}

func handle(req events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error) {
	// Slack retries after 3s; a cold start can trip that even though the
	// first delivery succeeded.
	if reason, ok := req.Headers["x-slack-retry-reason"]; ok && reason == "http_timeout" {
		return respond(http.StatusOK, "ok"), nil
	}

	if err := migrationbot.VerifySlackSignature(req.Headers, []byte(req.Body), cfg.SigningSecret); err != nil {
		log.Printf("signature verification failed: %v", err)
		return respond(http.StatusUnauthorized, "invalid signature"), nil
	}

	event, err := slackevents.ParseEvent(json.RawMessage(req.Body), slackevents.OptionNoVerifyToken())
	if err != nil {
		return respond(http.StatusBadRequest, "invalid event payload"), nil
	}

	if event.Type == slackevents.URLVerification {
		var r slackevents.ChallengeResponse
		if err := json.Unmarshal([]byte(req.Body), &r); err != nil {
			return respond(http.StatusBadRequest, "invalid challenge payload"), nil
		}
		return respond(http.StatusOK, r.Challenge), nil
	}

	return respond(http.StatusOK, "ok"), nil
}

func respond(status int, body string) *events.APIGatewayProxyResponse {
	return &events.APIGatewayProxyResponse{
		Headers:    map[string]string{"Content-Type": "text"},
		Body:       body,
		StatusCode: status,
	}
}

func main() {
	lambda.Start(handle)
}
