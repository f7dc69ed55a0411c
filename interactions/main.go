// Interactivity endpoint. Button clicks land here; the handler
// validates the envelope, acks Slack immediately and hands the toggle
// to the worker through SQS. A failed enqueue is logged, never
// surfaced: Slack expects a fast 200 regardless of outcome.
package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/slack-go/slack"

	"migrationbot"
)

var (
	cfg       *migrationbot.Config
	publisher *migrationbot.Publisher
)

func init() {
	var err error
	cfg, err = migrationbot.LoadConfig("SLACK_SIGNING_SECRET", "QUEUE_URL", "AWS_REGION")
	if err != nil {
		log.Fatal(err)
	}

	awsCfg, err := config.LoadDefaultConfig(
		context.Background(),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithRetryMaxAttempts(10),
	)
	if err != nil {
		log.Fatal(err)
	}

	publisher = migrationbot.NewPublisher(
		sqs.NewFromConfig(awsCfg, func(o *sqs.Options) {
			o.Region = cfg.Region
		}),
		cfg.QueueURL,
	)
}

func handle(ctx context.Context, req events.APIGatewayProxyRequest) (*events.APIGatewayProxyResponse, error) {
	body := []byte(req.Body)
	if req.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(req.Body)
		if err != nil {
			return respond(http.StatusBadRequest, "invalid body encoding"), nil
		}
		body = decoded
	}

	if err := migrationbot.VerifySlackSignature(req.Headers, body, cfg.SigningSecret); err != nil {
		slog.Warn("signature verification failed", "error", err)
		return respond(http.StatusUnauthorized, "invalid signature"), nil
	}

	in, errMsg := parseInteraction(body)
	if errMsg != "" {
		return respond(http.StatusBadRequest, errMsg), nil
	}

	job := migrationbot.NewToggleJob(in, time.Now())
	if err := publisher.Publish(ctx, job); err != nil {
		// Fire-and-forget: the click is lost but Slack still gets its ack.
		slog.Error("enqueue failed", "job", job.ID, "task", job.TaskID, "error", err)
	}

	return respond(http.StatusOK, ""), nil
}

// parseInteraction unwraps the form-encoded envelope Slack posts
// (a single "payload" field holding JSON) and extracts the click.
func parseInteraction(body []byte) (migrationbot.Interaction, string) {
	form, err := url.ParseQuery(string(body))
	if err != nil {
		return migrationbot.Interaction{}, "invalid form body"
	}
	payload := form.Get("payload")
	if payload == "" {
		return migrationbot.Interaction{}, "missing payload"
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal([]byte(payload), &callback); err != nil {
		return migrationbot.Interaction{}, "invalid payload JSON"
	}

	actions := callback.ActionCallback.BlockActions
	if len(actions) == 0 {
		return migrationbot.Interaction{}, "no actions found"
	}

	return migrationbot.Interaction{
		ActorID:   callback.User.ID,
		ActorName: callback.User.Name,
		TaskID:    actions[0].ActionID,
		ChannelID: callback.Channel.ID,
		MessageTS: callback.Message.Timestamp,
	}, ""
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
